// Package cliplist содержит модель экрана списка клипов для TUI
package cliplist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-recorder/internal/library"
	"github.com/hazadus/go-recorder/internal/tui/actions"
	"github.com/hazadus/go-recorder/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	playingStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
)

// clipItem реализует интерфейс list.Item для клипа
type clipItem struct {
	clip library.Clip
}

func (i clipItem) FilterValue() string {
	return i.clip.Name
}

// clipItemDelegate реализует отображение элементов списка
type clipItemDelegate struct{}

func (d clipItemDelegate) Height() int                             { return 1 }
func (d clipItemDelegate) Spacing() int                            { return 0 }
func (d clipItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d clipItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(clipItem)
	if !ok {
		return
	}

	// Строка таблицы: Маркер | Имя | Продолжительность
	marker := " "
	if i.clip.Sound.IsPlaying() {
		marker = playingStyle.Render("▶")
	}
	str := fmt.Sprintf("%s %-23s %s",
		marker,
		utils.ClipTitle(i.clip.Name),
		utils.FormatDuration(i.clip.Sound.Duration()))

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// Model представляет модель экрана списка клипов
type Model struct {
	list list.Model
}

// NewModel создает новую модель списка клипов
func NewModel(clips []library.Clip) *Model {
	l := list.New(toItems(clips), clipItemDelegate{}, 0, 0)
	l.Title = "Записи"
	l.SetShowStatusBar(false)
	l.SetShowTitle(true)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	// Выход обрабатывает главная модель
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	return &Model{list: l}
}

// SetClips заменяет элементы списка, сохраняя позицию курсора по возможности
func (m *Model) SetClips(clips []library.Clip) {
	index := m.list.Index()
	m.list.SetItems(toItems(clips))
	if index >= len(clips) {
		index = len(clips) - 1
	}
	if index >= 0 {
		m.list.Select(index)
	}
}

// Len возвращает количество клипов в списке
func (m *Model) Len() int {
	return len(m.list.Items())
}

// Selected возвращает выбранный клип
func (m *Model) Selected() (library.Clip, bool) {
	item, ok := m.list.SelectedItem().(clipItem)
	if !ok {
		return library.Clip{}, false
	}
	return item.clip, true
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height)
		return m, nil

	case tea.KeyMsg:
		clip, ok := m.Selected()

		switch msg.String() {
		case "enter", "p":
			if ok {
				return m, send(actions.PlayClipMsg{URI: clip.URI})
			}
			return m, nil

		case "x":
			if ok {
				return m, send(actions.StopClipMsg{URI: clip.URI})
			}
			return m, nil

		case "d":
			if ok {
				return m, send(actions.DeleteClipMsg{URI: clip.URI})
			}
			return m, nil

		case "i":
			if ok {
				return m, send(actions.ShowClipMsg{Clip: clip})
			}
			return m, nil
		}
	}

	// Обновляем список
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	view := m.list.View()
	if len(m.list.Items()) == 0 {
		view = titleStyle.Render("Записей пока нет") + "\n"
	}

	extraHelp := helpStyle.Render("Enter/p: воспроизвести • x: стоп • d: удалить • i: сведения")
	return view + "\n" + extraHelp
}

func toItems(clips []library.Clip) []list.Item {
	items := make([]list.Item, len(clips))
	for i, clip := range clips {
		items[i] = clipItem{clip: clip}
	}
	return items
}

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}
