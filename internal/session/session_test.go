package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazadus/go-recorder/internal/audio"
	"github.com/hazadus/go-recorder/internal/audiotest"
)

func newTestController(t *testing.T) (*Controller, *audiotest.Platform, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	platform := audiotest.NewPlatform(fs, "/clips")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(platform, logger), platform, fs
}

// recordEvents подписывается на события и копит их
func recordEvents(c *Controller) (func() []Event, func()) {
	var (
		mutex  sync.Mutex
		events []Event
	)
	unsubscribe := c.Subscribe(func(e Event) {
		mutex.Lock()
		defer mutex.Unlock()
		events = append(events, e)
	})
	return func() []Event {
		mutex.Lock()
		defer mutex.Unlock()
		return append([]Event(nil), events...)
	}, unsubscribe
}

func TestStartStopRecording(t *testing.T) {
	c, platform, fs := newTestController(t)
	events, _ := recordEvents(c)
	ctx := context.Background()

	assert.Equal(t, StateIdle, c.State())
	assert.False(t, c.Active())

	require.NoError(t, c.StartRecording(ctx))
	assert.Equal(t, StateRecording, c.State())
	assert.True(t, c.Active())
	assert.Equal(t, audio.RecordingMode, platform.Mode())

	recordings := platform.Recordings()
	require.Len(t, recordings, 1)
	assert.Equal(t, audio.HighQuality, recordings[0].Preset())
	assert.True(t, recordings[0].Started())

	uri, err := c.StopRecording(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/clips/rec-001.wav", uri)
	assert.False(t, c.Active())
	assert.True(t, recordings[0].Stopped())

	exists, err := afero.Exists(fs, uri)
	require.NoError(t, err)
	assert.True(t, exists)

	got := events()
	require.Len(t, got, 3)
	assert.Equal(t, EventStarted, got[0].Type)
	assert.Equal(t, EventStopped, got[1].Type)
	assert.Equal(t, Event{Type: EventClosed, URI: uri}, got[2])
}

func TestStartWhileActive(t *testing.T) {
	c, platform, _ := newTestController(t)
	ctx := context.Background()

	require.NoError(t, c.StartRecording(ctx))
	assert.ErrorIs(t, c.StartRecording(ctx), ErrAlreadyRecording)
	assert.Len(t, platform.Recordings(), 1)
	assert.Equal(t, StateRecording, c.State())
}

func TestStopWithoutRecording(t *testing.T) {
	c, _, _ := newTestController(t)
	events, _ := recordEvents(c)

	uri, err := c.StopRecording(context.Background())
	assert.ErrorIs(t, err, ErrNotRecording)
	assert.Empty(t, uri)
	assert.Empty(t, events())
}

func TestStartFailures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name  string
		setup func(p *audiotest.Platform)
		want  error
	}{
		{"разрешение не получено", func(p *audiotest.Platform) { p.PermissionErr = audio.ErrPermissionDenied }, audio.ErrPermissionDenied},
		{"ошибка режима аудио", func(p *audiotest.Platform) { p.ModeErr = boom }, boom},
		{"ошибка подготовки", func(p *audiotest.Platform) { p.PrepareErr = audio.ErrDeviceUnavailable }, audio.ErrDeviceUnavailable},
		{"устройство занято", func(p *audiotest.Platform) { p.StartErr = audio.ErrDeviceUnavailable }, audio.ErrDeviceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, platform, _ := newTestController(t)
			events, _ := recordEvents(c)
			tt.setup(platform)

			err := c.StartRecording(context.Background())
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, StateIdle, c.State())
			assert.False(t, c.Active())
			assert.Empty(t, events())

			// Повторная попытка возможна после устранения причины
			platform.PermissionErr = nil
			platform.ModeErr = nil
			platform.PrepareErr = nil
			platform.StartErr = nil
			require.NoError(t, c.StartRecording(context.Background()))
		})
	}
}

func TestStopFailureStillEmitsClosed(t *testing.T) {
	c, platform, _ := newTestController(t)
	events, _ := recordEvents(c)
	ctx := context.Background()

	require.NoError(t, c.StartRecording(ctx))
	platform.StopErr = audio.ErrDeviceUnavailable

	uri, err := c.StopRecording(ctx)
	assert.ErrorIs(t, err, audio.ErrDeviceUnavailable)
	assert.Equal(t, "/clips/rec-001.wav", uri)
	assert.Equal(t, StateIdle, c.State())

	got := events()
	require.Len(t, got, 3)
	assert.Equal(t, EventClosed, got[2].Type)
	assert.ErrorIs(t, got[2].Err, audio.ErrDeviceUnavailable)
}

func TestStoppedEventSeesIdleState(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx := context.Background()

	var states []State
	c.Subscribe(func(e Event) {
		// Обработчик вызывается вне блокировки и может читать состояние
		states = append(states, c.State())
	})

	require.NoError(t, c.StartRecording(ctx))
	_, err := c.StopRecording(ctx)
	require.NoError(t, err)

	assert.Equal(t, []State{StateRecording, StateIdle, StateIdle}, states)
}

func TestUnsubscribe(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx := context.Background()

	var order []string
	unsubA := c.Subscribe(func(Event) { order = append(order, "a") })
	c.Subscribe(func(Event) { order = append(order, "b") })

	require.NoError(t, c.StartRecording(ctx))
	assert.Equal(t, []string{"a", "b"}, order)

	unsubA()
	unsubA()
	order = nil

	_, err := c.StopRecording(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "b"}, order)
}

func TestAtMostOneSession(t *testing.T) {
	c, platform, _ := newTestController(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mutex sync.Mutex
	started := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.StartRecording(ctx); err == nil {
				mutex.Lock()
				started++
				mutex.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, started)
	assert.Len(t, platform.Recordings(), 1)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "recording", StateRecording.String())
	assert.Equal(t, "State(7)", State(7).String())
}
