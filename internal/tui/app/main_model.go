// Package app содержит основную логику TUI приложения
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-recorder/internal/library"
	"github.com/hazadus/go-recorder/internal/metadata"
	"github.com/hazadus/go-recorder/internal/session"
	"github.com/hazadus/go-recorder/internal/tui/actions"
	"github.com/hazadus/go-recorder/internal/tui/clip"
	"github.com/hazadus/go-recorder/internal/tui/cliplist"
	"github.com/hazadus/go-recorder/internal/utils"
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// ClipsScreen - экран списка клипов
	ClipsScreen ScreenType = iota
	// ClipScreen - экран сведений о клипе
	ClipScreen
)

// refreshInterval - период перерисовки маркеров воспроизведения
const refreshInterval = 500 * time.Millisecond

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).MarginLeft(2).MarginTop(1)
	enabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	recStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff0000")).Bold(true)
	statusStyle   = lipgloss.NewStyle().MarginLeft(2).Foreground(lipgloss.Color("#888888"))
	errorStyle    = lipgloss.NewStyle().MarginLeft(2).Foreground(lipgloss.Color("#ff0000")).Bold(true)
)

// Session - контроллер записи
type Session interface {
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) (string, error)
	Active() bool
	State() session.State
}

// Library - список клипов
type Library interface {
	Refresh(ctx context.Context) error
	Clips() []library.Clip
	Play(ctx context.Context, uri string) error
	Stop(ctx context.Context, uri string) error
	Delete(ctx context.Context, uri string) error
	LastRefreshErr() error
}

// InfoProvider - источник сведений о клипе
type InfoProvider interface {
	GetInfo(uri string) (*metadata.Info, error)
}

// clipsLoadedMsg - список клипов после обновления или изменения
type clipsLoadedMsg struct {
	clips []library.Clip
	err   error
}

// recordingStartedMsg - результат начала записи
type recordingStartedMsg struct {
	err error
}

// recordingStoppedMsg - результат остановки записи
type recordingStoppedMsg struct {
	uri        string
	err        error
	refreshErr error
	clips      []library.Clip
}

// actionDoneMsg - результат действия над клипом
type actionDoneMsg struct {
	err error
}

// clipInfoMsg - сведения для экрана клипа
type clipInfoMsg struct {
	clip library.Clip
	info *metadata.Info
	err  error
}

// refreshTickMsg перерисовывает список
type refreshTickMsg time.Time

// MainModel представляет главную модель TUI
type MainModel struct {
	session   Session
	library   Library
	info      InfoProvider
	ctx       context.Context
	stopwatch stopwatch.Model

	currentScreen ScreenType
	clipsModel    *cliplist.Model
	clipModel     *clip.Model

	status string
	err    error
	width  int
	height int
}

// NewMainModel создает новую главную модель
func NewMainModel(ctx context.Context, s Session, lib Library, info InfoProvider) *MainModel {
	return &MainModel{
		session:       s,
		library:       lib,
		info:          info,
		ctx:           ctx,
		stopwatch:     stopwatch.NewWithInterval(100 * time.Millisecond),
		currentScreen: ClipsScreen,
		clipsModel:    cliplist.NewModel(nil),
	}
}

// Init загружает список клипов
func (m *MainModel) Init() tea.Cmd {
	return tea.Batch(m.loadClips(), refreshTick())
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Глобальные горячие клавиши
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.currentScreen == ClipsScreen {
				return m, tea.Quit
			}
		case "r":
			if !m.canStart() {
				return m, nil
			}
			m.err = nil
			m.status = "⏳ Запуск записи..."
			return m, m.startRecording()
		case "s":
			if !m.canStop() {
				return m, nil
			}
			m.err = nil
			m.status = "💾 Сохранение записи..."
			return m, tea.Batch(m.stopwatch.Stop(), m.stopRecording())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Оставляем место для заголовка и строки состояния
		inner := tea.WindowSizeMsg{Width: msg.Width, Height: max(msg.Height-6, 1)}
		m.clipsModel, _ = m.clipsModel.Update(inner)
		if m.clipModel != nil {
			m.clipModel, _ = m.clipModel.Update(inner)
		}
		return m, nil

	case clipsLoadedMsg:
		m.setClips(msg.clips)
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case recordingStartedMsg:
		if msg.err != nil {
			m.status = ""
			m.err = msg.err
			return m, nil
		}
		m.status = "🔴 Идет запись"
		return m, tea.Sequence(m.stopwatch.Reset(), m.stopwatch.Start())

	case recordingStoppedMsg:
		m.setClips(msg.clips)
		if msg.err != nil {
			m.status = ""
			m.err = msg.err
			return m, nil
		}
		if msg.refreshErr != nil {
			m.status = ""
			m.err = fmt.Errorf("запись %s сохранена, но список не обновлен: %w", filepath.Base(msg.uri), msg.refreshErr)
			return m, nil
		}
		m.status = fmt.Sprintf("✅ Запись сохранена: %s", filepath.Base(msg.uri))
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case actions.PlayClipMsg:
		m.err = nil
		return m, m.runAction(func(ctx context.Context) error { return m.library.Play(ctx, msg.URI) })

	case actions.StopClipMsg:
		m.err = nil
		return m, m.runAction(func(ctx context.Context) error { return m.library.Stop(ctx, msg.URI) })

	case actions.DeleteClipMsg:
		m.err = nil
		return m, m.deleteClip(msg.URI)

	case actions.ShowClipMsg:
		return m, m.loadClipInfo(msg.Clip)

	case clipInfoMsg:
		m.currentScreen = ClipScreen
		m.clipModel = clip.NewModel(msg.clip, msg.info, msg.err)
		if m.width > 0 {
			m.clipModel, _ = m.clipModel.Update(tea.WindowSizeMsg{Width: m.width, Height: max(m.height-6, 1)})
		}
		return m, m.clipModel.Init()

	case actions.GoBackMsg:
		m.currentScreen = ClipsScreen
		m.clipModel = nil
		return m, nil

	case refreshTickMsg:
		// Перерисовка обновляет маркеры воспроизведения
		return m, refreshTick()

	case stopwatch.TickMsg, stopwatch.StartStopMsg, stopwatch.ResetMsg:
		var cmd tea.Cmd
		m.stopwatch, cmd = m.stopwatch.Update(msg)
		return m, cmd
	}

	// Передаем сообщение активной модели
	var cmd tea.Cmd
	switch m.currentScreen {
	case ClipsScreen:
		m.clipsModel, cmd = m.clipsModel.Update(msg)
	case ClipScreen:
		if m.clipModel != nil {
			m.clipModel, cmd = m.clipModel.Update(msg)
		}
	}
	return m, cmd
}

// View отображает интерфейс
func (m *MainModel) View() string {
	var body string
	switch m.currentScreen {
	case ClipsScreen:
		body = m.clipsModel.View()
	case ClipScreen:
		if m.clipModel != nil {
			body = m.clipModel.View()
		} else {
			body = "Ошибка: модель клипа не инициализирована"
		}
	default:
		return "Неизвестный экран"
	}

	return m.headerView() + "\n" + body + "\n" + m.statusView()
}

// headerView отображает кнопки записи, доступность зависит от состояния сессии
func (m *MainModel) headerView() string {
	start := disabledStyle.Render("[r] Начать запись")
	if m.canStart() {
		start = enabledStyle.Render("[r] Начать запись")
	}

	stop := disabledStyle.Render("[s] Остановить запись")
	if m.canStop() {
		stop = enabledStyle.Render("[s] Остановить запись")
	}

	header := fmt.Sprintf("%s   %s", start, stop)
	switch m.session.State() {
	case session.StateRecording:
		header += "   " + recStyle.Render("● REC "+m.stopwatch.View())
	case session.StateStarting:
		header += "   " + disabledStyle.Render("○ ...")
	}

	return headerStyle.Render(header)
}

// statusView отображает строку состояния или последнюю ошибку
func (m *MainModel) statusView() string {
	if m.err != nil {
		return errorStyle.Render("❌ " + utils.TruncateString(m.err.Error(), max(m.width-6, 20)))
	}
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	return statusStyle.Render(fmt.Sprintf("Записей: %d • q: выход", m.clipsModel.Len()))
}

// setClips обновляет список и переносит экран клипа на новый дескриптор.
// Если клип исчез, экран закрывается
func (m *MainModel) setClips(clips []library.Clip) {
	m.clipsModel.SetClips(clips)
	if m.clipModel == nil {
		return
	}

	for _, c := range clips {
		if c.URI == m.clipModel.URI() {
			m.clipModel.SetClip(c)
			return
		}
	}
	m.currentScreen = ClipsScreen
	m.clipModel = nil
}

// canStart сообщает, доступна ли кнопка начала записи
func (m *MainModel) canStart() bool {
	return m.session.State() == session.StateIdle
}

// canStop сообщает, доступна ли кнопка остановки записи
func (m *MainModel) canStop() bool {
	return m.session.State() == session.StateRecording
}

func (m *MainModel) loadClips() tea.Cmd {
	return func() tea.Msg {
		err := m.library.Refresh(m.ctx)
		return clipsLoadedMsg{clips: m.library.Clips(), err: err}
	}
}

func (m *MainModel) startRecording() tea.Cmd {
	return func() tea.Msg {
		return recordingStartedMsg{err: m.session.StartRecording(m.ctx)}
	}
}

// stopRecording останавливает запись. Библиотека обновляется по событию
// сессии до возврата из StopRecording
func (m *MainModel) stopRecording() tea.Cmd {
	return func() tea.Msg {
		// Файл дописывается и после выхода из интерфейса
		uri, err := m.session.StopRecording(context.WithoutCancel(m.ctx))
		msg := recordingStoppedMsg{uri: uri, err: err, clips: m.library.Clips()}
		if err == nil {
			msg.refreshErr = m.library.LastRefreshErr()
		}
		return msg
	}
}

func (m *MainModel) runAction(action func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: action(m.ctx)}
	}
}

func (m *MainModel) deleteClip(uri string) tea.Cmd {
	return func() tea.Msg {
		err := m.library.Delete(m.ctx, uri)
		if errors.Is(err, library.ErrClipNotFound) {
			err = nil
		}
		return clipsLoadedMsg{clips: m.library.Clips(), err: err}
	}
}

func (m *MainModel) loadClipInfo(c library.Clip) tea.Cmd {
	return func() tea.Msg {
		info, err := m.info.GetInfo(c.URI)
		return clipInfoMsg{clip: c, info: info, err: err}
	}
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}
