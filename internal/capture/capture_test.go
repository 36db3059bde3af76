package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazadus/go-recorder/internal/audio"
	"github.com/hazadus/go-recorder/internal/audiotest"
	"github.com/hazadus/go-recorder/internal/config"
	"github.com/hazadus/go-recorder/internal/library"
	"github.com/hazadus/go-recorder/internal/player"
	"github.com/hazadus/go-recorder/internal/session"
	"github.com/hazadus/go-recorder/internal/storage"
)

// scriptBackend запускает shell-скрипт вместо настоящей программы захвата
type scriptBackend struct {
	script string
}

func (b *scriptBackend) Type() BackendType { return "script" }
func (b *scriptBackend) Binary() string    { return "sh" }
func (b *scriptBackend) Args(_ string, _ audio.Preset, output string) []string {
	return []string{"-c", b.script, "sh", output}
}

func lookPathWith(found ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func newTestPlatform(t *testing.T) *Platform {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewPlatform(config.RecorderConfig{Backend: "auto", Device: "default", InputFormat: "pulse"},
		filepath.Join(t.TempDir(), "Audio"), logger)
	p.lookPath = lookPathWith("ffmpeg", "arecord")
	p.devicePath = filepath.Join(t.TempDir(), "snd")
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 15, 123_000_000, time.UTC) }
	p.startGrace = 100 * time.Millisecond
	p.stopTimeout = 2 * time.Second
	return p
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh не найден")
	}
}

func TestFFmpegArgs(t *testing.T) {
	b := &FFmpegBackend{InputFormat: "alsa"}
	args := b.Args("hw:0", audio.HighQuality, "/tmp/out.wav")

	assert.Equal(t, []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "alsa", "-i", "hw:0",
		"-ac", "2", "-ar", "44100",
		"-c:a", "pcm_s16le",
		"-y", "/tmp/out.wav",
	}, args)
}

func TestFFmpegArgsDefaultInputFormat(t *testing.T) {
	b := &FFmpegBackend{}
	args := b.Args("default", audio.HighQuality, "out.wav")
	assert.Contains(t, args, "pulse")
}

func TestARecordArgs(t *testing.T) {
	b := &ARecordBackend{}
	preset := audio.HighQuality
	preset.BitDepth = 24

	args := b.Args("default", preset, "out.wav")
	assert.Equal(t, []string{
		"-q", "-D", "default",
		"-f", "S24_3LE", "-c", "2", "-r", "44100",
		"-t", "wav", "out.wav",
	}, args)
}

func TestSelectBackend(t *testing.T) {
	tests := []struct {
		name     string
		backend  string
		found    []string
		expected BackendType
		wantErr  bool
	}{
		{"auto предпочитает ffmpeg", "auto", []string{"ffmpeg", "arecord"}, BackendTypeFFmpeg, false},
		{"auto без ffmpeg", "auto", []string{"arecord"}, BackendTypeARecord, false},
		{"пустое имя как auto", "", []string{"ffmpeg"}, BackendTypeFFmpeg, false},
		{"явный arecord", "ARecord", []string{"ffmpeg", "arecord"}, BackendTypeARecord, false},
		{"явный ffmpeg отсутствует", "ffmpeg", []string{"arecord"}, "", true},
		{"ничего не найдено", "auto", nil, "", true},
		{"неизвестный бэкенд", "sox", []string{"sox"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := selectBackend(tt.backend, "pulse", lookPathWith(tt.found...))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, backend.Type())
		})
	}
}

func TestSelectBackendNotFoundIsDeviceError(t *testing.T) {
	_, err := selectBackend("auto", "pulse", lookPathWith())
	require.Error(t, err)
	assert.True(t, errors.Is(err, audio.ErrDeviceUnavailable))
	assert.Contains(t, err.Error(), "ffmpeg, arecord")
}

func TestClipFileName(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 15, 123_000_000, time.UTC)
	assert.Equal(t, "rec-2024-05-01_12-30-15.123.wav", ClipFileName(ts, ".wav"))
}

func TestRequestPermission(t *testing.T) {
	p := newTestPlatform(t)

	// Каталог устройств отсутствует - это не ошибка
	require.NoError(t, p.RequestPermission(context.Background()))

	require.NoError(t, os.MkdirAll(p.devicePath, 0755))
	require.NoError(t, p.RequestPermission(context.Background()))
}

func TestRequestPermissionWithoutBinary(t *testing.T) {
	p := newTestPlatform(t)
	p.lookPath = lookPathWith()

	err := p.RequestPermission(context.Background())
	assert.ErrorIs(t, err, audio.ErrDeviceUnavailable)
}

func TestRequestPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root игнорирует права доступа")
	}

	p := newTestPlatform(t)
	require.NoError(t, os.MkdirAll(p.devicePath, 0000))
	t.Cleanup(func() { _ = os.Chmod(p.devicePath, 0755) })

	err := p.RequestPermission(context.Background())
	assert.ErrorIs(t, err, audio.ErrPermissionDenied)
}

func TestRequestPermissionCanceled(t *testing.T) {
	p := newTestPlatform(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.RequestPermission(ctx), context.Canceled)
}

func TestPrepareRequiresRecordingMode(t *testing.T) {
	p := newTestPlatform(t)
	rec := p.NewRecording()

	err := rec.Prepare(context.Background(), audio.HighQuality)
	assert.ErrorIs(t, err, audio.ErrRecordingNotAllowed)
	assert.Empty(t, rec.URI())
}

func TestPrepareBuildsPath(t *testing.T) {
	p := newTestPlatform(t)
	require.NoError(t, p.SetAudioMode(context.Background(), audio.RecordingMode))
	assert.Equal(t, audio.RecordingMode, p.Mode())

	rec := p.NewRecording()
	require.NoError(t, rec.Prepare(context.Background(), audio.HighQuality))

	assert.Equal(t, filepath.Join(p.dir, "rec-2024-05-01_12-30-15.123.wav"), rec.URI())

	// Каталог записей создается при подготовке
	info, err := os.Stat(p.dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStartWithoutPrepare(t *testing.T) {
	p := newTestPlatform(t)
	rec := p.NewRecording()

	assert.Error(t, rec.Start(context.Background()))
	assert.Error(t, rec.StopAndUnload(context.Background()))
}

func TestRecordingLifecycle(t *testing.T) {
	requireShell(t)

	p := newTestPlatform(t)
	// Скрипт пишет данные и ждет SIGINT, как настоящая программа захвата
	p.override = &scriptBackend{script: `head -c 1024 /dev/zero > "$1"; trap 'exit 0' INT; while :; do sleep 0.05; done`}
	require.NoError(t, p.SetAudioMode(context.Background(), audio.RecordingMode))

	rec := p.NewRecording()
	require.NoError(t, rec.Prepare(context.Background(), audio.HighQuality))
	require.NoError(t, rec.Start(context.Background()))
	require.NoError(t, rec.StopAndUnload(context.Background()))

	info, err := os.Stat(rec.URI())
	require.NoError(t, err)
	assert.Equal(t, int64(1024), info.Size())
}

func TestStartFailsWhenProcessExits(t *testing.T) {
	requireShell(t)

	p := newTestPlatform(t)
	p.override = &scriptBackend{script: `: > "$1"; echo "device busy" >&2; exit 1`}
	require.NoError(t, p.SetAudioMode(context.Background(), audio.RecordingMode))

	rec := p.NewRecording()
	require.NoError(t, rec.Prepare(context.Background(), audio.HighQuality))

	err := rec.Start(context.Background())
	require.ErrorIs(t, err, audio.ErrDeviceUnavailable)
	assert.Contains(t, err.Error(), "device busy")
	assert.NoFileExists(t, rec.URI())
}

func TestStartCanceledRemovesFile(t *testing.T) {
	requireShell(t)

	p := newTestPlatform(t)
	p.startGrace = 5 * time.Second
	p.override = &scriptBackend{script: `: > "$1"; while :; do sleep 0.05; done`}
	require.NoError(t, p.SetAudioMode(context.Background(), audio.RecordingMode))

	rec := p.NewRecording()
	require.NoError(t, rec.Prepare(context.Background(), audio.HighQuality))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	err := rec.Start(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, rec.URI())
}

func TestStopRejectsEmptyRecording(t *testing.T) {
	requireShell(t)

	p := newTestPlatform(t)
	p.override = &scriptBackend{script: `: > "$1"; trap 'exit 0' INT; while :; do sleep 0.05; done`}
	require.NoError(t, p.SetAudioMode(context.Background(), audio.RecordingMode))

	rec := p.NewRecording()
	require.NoError(t, rec.Prepare(context.Background(), audio.HighQuality))
	require.NoError(t, rec.Start(context.Background()))

	err := rec.StopAndUnload(context.Background())
	assert.ErrorIs(t, err, audio.ErrDeviceUnavailable)
	assert.NoFileExists(t, rec.URI())
}

func TestFailedRecordingKeepsLibraryUsable(t *testing.T) {
	requireShell(t)

	p := newTestPlatform(t)
	p.override = &scriptBackend{script: `: > "$1"; trap 'exit 0' INT; while :; do sleep 0.05; done`}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	osFs := afero.NewOsFs()
	good := filepath.Join(p.dir, "good.wav")
	require.NoError(t, osFs.MkdirAll(p.dir, 0755))
	require.NoError(t, audiotest.WriteWAV(osFs, good, 100*time.Millisecond))

	ctrl := session.New(p, logger)
	lib := library.New(storage.NewDir(osFs, p.dir), player.NewLoaderWithOutput(osFs, &audiotest.Output{}, logger), logger)
	defer lib.Close()
	defer lib.Follow(ctrl)()
	ctx := context.Background()

	require.NoError(t, lib.Refresh(ctx))
	require.NoError(t, ctrl.StartRecording(ctx))

	uri, err := ctrl.StopRecording(ctx)
	require.ErrorIs(t, err, audio.ErrDeviceUnavailable)
	assert.NoFileExists(t, uri)

	clips := lib.Clips()
	require.Len(t, clips, 1)
	assert.Equal(t, good, clips[0].URI)

	// Новая библиотека (как после перезапуска) тоже читает каталог без ошибок
	fresh := library.New(storage.NewDir(osFs, p.dir), player.NewLoaderWithOutput(osFs, &audiotest.Output{}, logger), logger)
	defer fresh.Close()
	require.NoError(t, fresh.Refresh(ctx))
	assert.Len(t, fresh.Clips(), 1)
}
