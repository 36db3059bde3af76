package app

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazadus/go-recorder/internal/audio"
	"github.com/hazadus/go-recorder/internal/audiotest"
	"github.com/hazadus/go-recorder/internal/library"
	"github.com/hazadus/go-recorder/internal/metadata"
	"github.com/hazadus/go-recorder/internal/player"
	"github.com/hazadus/go-recorder/internal/session"
	"github.com/hazadus/go-recorder/internal/storage"
	"github.com/hazadus/go-recorder/internal/tui/actions"
)

const clipsDir = "/cache/Audio"

type fixture struct {
	fs       afero.Fs
	platform *audiotest.Platform
	ctrl     *session.Controller
	lib      *library.Library
	model    *MainModel
}

func newFixture(t *testing.T, clipNames ...string) *fixture {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(clipsDir, 0755))
	for _, name := range clipNames {
		require.NoError(t, audiotest.WriteWAV(fs, clipsDir+"/"+name, 100*time.Millisecond))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	platform := audiotest.NewPlatform(fs, clipsDir)
	ctrl := session.New(platform, logger)
	lib := library.New(storage.NewDir(fs, clipsDir), player.NewLoaderWithOutput(fs, &audiotest.Output{}, logger), logger)
	stop := lib.Follow(ctrl)
	t.Cleanup(func() {
		stop()
		lib.Close()
	})

	model := NewMainModel(context.Background(), ctrl, lib, metadata.NewExtractor(fs))
	model.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return &fixture{fs: fs, platform: platform, ctrl: ctrl, lib: lib, model: model}
}

// send передает сообщение модели и возвращает команду
func (f *fixture) send(msg tea.Msg) tea.Cmd {
	_, cmd := f.model.Update(msg)
	return cmd
}

// exec выполняет команду и передает результат модели
func (f *fixture) exec(t *testing.T, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	return f.send(cmd())
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (f *fixture) load(t *testing.T) {
	t.Helper()
	f.exec(t, f.model.loadClips())
}

func TestInitialLoad(t *testing.T) {
	f := newFixture(t, "a.wav", "b.wav")
	f.load(t)

	assert.Equal(t, 2, f.model.clipsModel.Len())
	view := f.model.View()
	assert.Contains(t, view, "a.wav")
	assert.Contains(t, view, "b.wav")
}

func TestEmptyStorage(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	assert.Equal(t, 0, f.model.clipsModel.Len())
	assert.Contains(t, f.model.View(), "Записей пока нет")
}

func TestRecordAndStop(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	assert.True(t, f.model.canStart())
	assert.False(t, f.model.canStop())

	// Остановка недоступна без записи
	assert.Nil(t, f.send(key("s")))

	f.exec(t, f.send(key("r")))
	assert.True(t, f.ctrl.Active())
	assert.False(t, f.model.canStart())
	assert.True(t, f.model.canStop())
	assert.Contains(t, f.model.View(), "REC")

	// Повторный старт недоступен
	assert.Nil(t, f.send(key("r")))

	cmd := f.send(key("s"))
	require.NotNil(t, cmd)
	f.send(f.model.stopRecording()())

	assert.False(t, f.ctrl.Active())
	assert.True(t, f.model.canStart())
	assert.Equal(t, 1, f.model.clipsModel.Len())
	assert.Contains(t, f.model.View(), "rec-001.wav")
	assert.Nil(t, f.model.err)
}

func TestPermissionDeniedShowsError(t *testing.T) {
	f := newFixture(t, "a.wav")
	f.load(t)
	f.platform.PermissionErr = audio.ErrPermissionDenied

	f.exec(t, f.send(key("r")))

	assert.False(t, f.ctrl.Active())
	assert.True(t, f.model.canStart())
	assert.ErrorIs(t, f.model.err, audio.ErrPermissionDenied)
	assert.Equal(t, 1, f.model.clipsModel.Len())
	assert.Contains(t, f.model.View(), "❌")
}

func TestPlayAndDeleteSelectedClip(t *testing.T) {
	f := newFixture(t, "a.wav", "b.wav")
	f.load(t)

	// Enter запрашивает воспроизведение выбранного клипа
	f.exec(t, f.exec(t, f.send(tea.KeyMsg{Type: tea.KeyEnter})))
	clips := f.lib.Clips()
	assert.True(t, clips[0].Sound.IsPlaying())
	assert.False(t, clips[1].Sound.IsPlaying())

	// x останавливает
	f.exec(t, f.exec(t, f.send(key("x"))))
	assert.False(t, clips[0].Sound.IsPlaying())

	// d удаляет
	f.exec(t, f.exec(t, f.send(key("d"))))
	assert.Equal(t, 1, f.model.clipsModel.Len())
	assert.Len(t, f.lib.Clips(), 1)
	assert.Equal(t, "b.wav", f.lib.Clips()[0].Name)
	assert.Nil(t, f.model.err)
}

func TestDeleteFailureShowsError(t *testing.T) {
	f := newFixture(t, "a.wav")
	f.load(t)

	// Файл исчез до удаления: ошибка, запись остается
	require.NoError(t, f.fs.Remove(clipsDir+"/a.wav"))
	f.exec(t, f.send(actions.DeleteClipMsg{URI: clipsDir + "/a.wav"}))

	assert.ErrorIs(t, f.model.err, audio.ErrStorage)
	assert.Equal(t, 1, f.model.clipsModel.Len())
}

func TestClipScreenRouting(t *testing.T) {
	f := newFixture(t, "a.wav")
	f.load(t)

	// i открывает экран сведений
	f.exec(t, f.exec(t, f.send(key("i"))))
	assert.Equal(t, ClipScreen, f.model.currentScreen)
	require.NotNil(t, f.model.clipModel)
	assert.Contains(t, f.model.View(), "44100")

	// q на экране клипа возвращает к списку, а не завершает программу
	f.exec(t, f.send(key("q")))
	assert.Equal(t, ClipsScreen, f.model.currentScreen)
	assert.Nil(t, f.model.clipModel)
}

func TestQuit(t *testing.T) {
	f := newFixture(t)

	cmd := f.send(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	cmd = f.send(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestUnknownScreen(t *testing.T) {
	f := newFixture(t)
	f.model.currentScreen = ScreenType(999)
	assert.Equal(t, "Неизвестный экран", f.model.View())
}

func TestStatusLineCountsClips(t *testing.T) {
	f := newFixture(t, "a.wav", "b.wav", "c.wav")
	f.load(t)

	lines := strings.Split(f.model.View(), "\n")
	assert.Contains(t, lines[len(lines)-1], "Записей: 3")
}

func TestStopShowsRefreshError(t *testing.T) {
	f := newFixture(t, "a.wav")
	f.load(t)

	f.exec(t, f.send(key("r")))
	require.True(t, f.ctrl.Active())

	// Файл, который не удается прочитать, ломает обновление после записи
	require.NoError(t, afero.WriteFile(f.fs, clipsDir+"/broken.wav", []byte("не wav"), 0644))
	f.send(f.model.stopRecording()())

	require.Error(t, f.model.err)
	assert.Contains(t, f.model.err.Error(), "список не обновлен")
	assert.Empty(t, f.model.status)
	assert.Equal(t, 1, f.model.clipsModel.Len())
}

func TestClipScreenFollowsRefresh(t *testing.T) {
	f := newFixture(t, "a.wav")
	f.load(t)

	f.exec(t, f.exec(t, f.send(key("i"))))
	require.NotNil(t, f.model.clipModel)
	before := f.model.clipModel.Clip().Sound

	// После обновления экран показывает новый дескриптор
	f.load(t)
	require.Equal(t, ClipScreen, f.model.currentScreen)
	current := f.model.clipModel.Clip().Sound
	assert.True(t, before != current)
	assert.True(t, f.lib.Clips()[0].Sound == current)
	assert.Positive(t, current.Duration())

	// Клип удален с диска: экран закрывается
	require.NoError(t, f.fs.Remove(clipsDir+"/a.wav"))
	f.load(t)
	assert.Equal(t, ClipsScreen, f.model.currentScreen)
	assert.Nil(t, f.model.clipModel)
}
