package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"

	"github.com/hazadus/go-recorder/internal/audio"
)

// ErrClosed возвращается при обращении к закрытому дескриптору
var ErrClosed = errors.New("дескриптор звука закрыт")

// Sound - дескриптор воспроизведения одного клипа
type Sound struct {
	uri    string
	output Output
	logger *slog.Logger

	mutex    sync.Mutex
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	done     chan struct{}
	finish   func()
	closed   bool

	// Читаются из потока динамиков без мьютекса
	playing atomic.Bool
	playID  atomic.Uint64
}

func newSound(uri string, streamer beep.StreamSeekCloser, format beep.Format, output Output, logger *slog.Logger) *Sound {
	done := make(chan struct{})
	close(done)

	return &Sound{
		uri:      uri,
		output:   output,
		logger:   logger,
		streamer: streamer,
		format:   format,
		done:     done,
		finish:   func() {},
	}
}

// Play воспроизводит клип с начала. Другие клипы продолжают играть
func (s *Sound) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrClosed
	}

	// Повторное воспроизведение начинается заново
	s.detach()

	s.output.Lock()
	err := s.streamer.Seek(0)
	s.output.Unlock()
	if err != nil {
		return fmt.Errorf("%w: ошибка перемотки %s: %v", audio.ErrDeviceUnavailable, s.uri, err)
	}

	ctrl := &beep.Ctrl{Streamer: s.streamer}
	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }
	id := s.playID.Add(1)

	s.ctrl = ctrl
	s.done = done
	s.finish = finish
	s.playing.Store(true)

	stream := beep.Seq(ctrl, beep.Callback(func() {
		// Вызывается из потока динамиков, мьютекс здесь брать нельзя
		if s.playID.Load() == id {
			s.playing.Store(false)
		}
		finish()
	}))

	if err := s.output.Play(s.format, stream); err != nil {
		s.playing.Store(false)
		s.ctrl = nil
		finish()
		return fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
	}

	s.logger.Debug("Воспроизведение начато", "uri", s.uri)
	return nil
}

// Stop останавливает воспроизведение клипа, не затрагивая остальные
func (s *Sound) Stop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrClosed
	}

	if s.detach() {
		s.logger.Debug("Воспроизведение остановлено", "uri", s.uri)
	}
	return nil
}

// detach отключает поток от микшера (должен вызываться под мьютексом).
// Возвращает true, если клип воспроизводился
func (s *Sound) detach() bool {
	if s.ctrl == nil {
		return false
	}

	s.output.Lock()
	s.ctrl.Streamer = nil
	s.output.Unlock()

	wasPlaying := s.playing.Swap(false)
	s.ctrl = nil
	s.finish()
	return wasPlaying
}

// IsPlaying возвращает true, если клип воспроизводится
func (s *Sound) IsPlaying() bool {
	return s.playing.Load()
}

// Done возвращает канал, закрывающийся по окончании текущего воспроизведения
func (s *Sound) Done() <-chan struct{} {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.done
}

// Duration возвращает длительность клипа
func (s *Sound) Duration() time.Duration {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return 0
	}
	return s.format.SampleRate.D(s.streamer.Len())
}

// Format возвращает формат клипа
func (s *Sound) Format() beep.Format {
	return s.format
}

// URI возвращает путь к файлу клипа
func (s *Sound) URI() string {
	return s.uri
}

// Close останавливает воспроизведение и закрывает файл
func (s *Sound) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}

	s.detach()
	s.closed = true

	if err := s.streamer.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия %s: %w", s.uri, err)
	}
	return nil
}
