// Package clip содержит модель экрана сведений о клипе для TUI
package clip

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-recorder/internal/library"
	"github.com/hazadus/go-recorder/internal/metadata"
	"github.com/hazadus/go-recorder/internal/tui/actions"
	"github.com/hazadus/go-recorder/internal/utils"
)

// tickInterval - период обновления прогресса воспроизведения
const tickInterval = 200 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000ff")).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)
)

// tickMsg обновляет прогресс воспроизведения
type tickMsg time.Time

// Model представляет модель экрана сведений о клипе
type Model struct {
	clip        library.Clip
	info        *metadata.Info
	infoErr     error
	progressBar progress.Model
	playing     bool
	startedAt   time.Time
	elapsed     time.Duration
	width       int
}

// NewModel создает модель экрана для клипа и его сведений
func NewModel(clip library.Clip, info *metadata.Info, infoErr error) *Model {
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return &Model{
		clip:        clip,
		info:        info,
		infoErr:     infoErr,
		progressBar: prog,
		playing:     clip.Sound.IsPlaying(),
	}
}

// SetClip заменяет клип после обновления списка
func (m *Model) SetClip(clip library.Clip) {
	m.clip = clip
	if !clip.Sound.IsPlaying() {
		m.playing = false
		m.elapsed = 0
	}
}

// Clip возвращает отображаемый клип
func (m *Model) Clip() library.Clip {
	return m.clip
}

// Init запускает обновление прогресса
func (m *Model) Init() tea.Cmd {
	return tick()
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = min(60, msg.Width-10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			return m, send(actions.GoBackMsg{})

		case " ", "p", "enter":
			// Воспроизведение или остановка
			if m.clip.Sound.IsPlaying() {
				return m, send(actions.StopClipMsg{URI: m.clip.URI})
			}
			return m, send(actions.PlayClipMsg{URI: m.clip.URI})

		case "x":
			return m, send(actions.StopClipMsg{URI: m.clip.URI})
		}

	case tickMsg:
		return m, tea.Batch(m.updateProgress(time.Time(msg)), tick())

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// updateProgress пересчитывает прогресс по времени с начала воспроизведения
func (m *Model) updateProgress(now time.Time) tea.Cmd {
	playing := m.clip.Sound.IsPlaying()
	if playing && !m.playing {
		m.startedAt = now
	}
	m.playing = playing

	if !playing {
		m.elapsed = 0
		return m.progressBar.SetPercent(0)
	}

	m.elapsed = now.Sub(m.startedAt)
	duration := m.clip.Sound.Duration()
	if m.elapsed > duration {
		m.elapsed = duration
	}

	var percent float64
	if duration > 0 {
		percent = float64(m.elapsed) / float64(duration)
	}
	return m.progressBar.SetPercent(percent)
}

// View отображает модель
func (m *Model) View() string {
	title := titleStyle.Render("🎙️ " + m.clip.Name)

	var info string
	if m.infoErr != nil {
		info = errorStyle.Render(fmt.Sprintf("❌ Не удалось прочитать сведения: %v", m.infoErr))
	} else if m.info != nil {
		info = infoStyle.Render(fmt.Sprintf(
			"📁 %s\n⏱️ %s\n📦 %s\n🎚️ %d Гц, каналов: %d",
			m.info.URI,
			utils.FormatDuration(m.info.Duration),
			utils.FormatFileSize(m.info.Size),
			m.info.SampleRate,
			m.info.Channels,
		))
	}

	statusIcon, statusText := "⏹️", "Остановлено"
	if m.playing {
		statusIcon, statusText = "▶️", "Воспроизведение"
	}
	status := statusStyle.Render(fmt.Sprintf("%s %s", statusIcon, statusText))

	timeText := fmt.Sprintf("%s / %s",
		utils.FormatDuration(m.elapsed),
		utils.FormatDuration(m.clip.Sound.Duration()))

	controls := controlsStyle.Render("Пробел/p: воспроизвести/остановить • q/esc: назад к списку")

	return fmt.Sprintf("%s\n\n%s\n\n%s\n\n%s\n%s\n\n%s",
		title,
		info,
		status,
		m.progressBar.View(),
		timeText,
		controls,
	)
}

// URI возвращает путь к клипу экрана
func (m *Model) URI() string {
	return m.clip.URI
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}
