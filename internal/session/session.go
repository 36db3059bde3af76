// Package session управляет жизненным циклом единственной активной записи
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazadus/go-recorder/internal/audio"
)

var (
	// ErrAlreadyRecording возвращается при попытке начать вторую запись
	ErrAlreadyRecording = errors.New("запись уже идет")
	// ErrNotRecording возвращается при остановке без активной записи
	ErrNotRecording = errors.New("нет активной записи")
)

// State состояние контроллера записи
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRecording:
		return "recording"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EventType тип события сессии
type EventType int

const (
	// EventStarted - запись началась
	EventStarted EventType = iota
	// EventStopped - активная запись снята, финализация еще идет
	EventStopped
	// EventClosed - запись финализирована (успешно или нет)
	EventClosed
)

// Event событие сессии записи
type Event struct {
	Type EventType
	URI  string
	// Err заполняется для EventClosed, если финализация не удалась
	Err error
}

// Platform - аудио-возможности, необходимые контроллеру
type Platform interface {
	RequestPermission(ctx context.Context) error
	SetAudioMode(ctx context.Context, mode audio.Mode) error
	NewRecording() audio.Recording
}

type listener struct {
	id int
	fn func(Event)
}

// Controller владеет не более чем одной активной записью
type Controller struct {
	platform Platform
	logger   *slog.Logger

	mutex     sync.Mutex
	state     State
	recording audio.Recording
	listeners []listener
	nextID    int
}

// New создает контроллер записи
func New(platform Platform, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		platform: platform,
		logger:   logger,
	}
}

// StartRecording запрашивает разрешение, включает режим записи и запускает
// запись с пресетом высокого качества. При ошибке контроллер остается в Idle
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mutex.Lock()
	if c.state != StateIdle {
		c.mutex.Unlock()
		return ErrAlreadyRecording
	}
	c.state = StateStarting
	c.mutex.Unlock()

	recording, err := c.start(ctx)

	c.mutex.Lock()
	if err != nil {
		c.state = StateIdle
		c.mutex.Unlock()
		c.logger.Error("Не удалось начать запись", "error", err)
		return err
	}
	c.state = StateRecording
	c.recording = recording
	c.mutex.Unlock()

	c.logger.Info("Запись начата", "uri", recording.URI())
	c.emit(Event{Type: EventStarted, URI: recording.URI()})
	return nil
}

func (c *Controller) start(ctx context.Context) (audio.Recording, error) {
	if err := c.platform.RequestPermission(ctx); err != nil {
		return nil, fmt.Errorf("запрос разрешения на запись: %w", err)
	}

	if err := c.platform.SetAudioMode(ctx, audio.RecordingMode); err != nil {
		return nil, fmt.Errorf("настройка режима аудио: %w", err)
	}

	recording := c.platform.NewRecording()
	if err := recording.Prepare(ctx, audio.HighQuality); err != nil {
		return nil, fmt.Errorf("подготовка записи: %w", err)
	}

	if err := recording.Start(ctx); err != nil {
		return nil, fmt.Errorf("запуск записи: %w", err)
	}

	return recording, nil
}

// StopRecording снимает активную запись сразу, затем финализирует ее и
// возвращает путь к файлу. EventClosed отправляется и при ошибке финализации
func (c *Controller) StopRecording(ctx context.Context) (string, error) {
	c.mutex.Lock()
	if c.state != StateRecording {
		c.mutex.Unlock()
		return "", ErrNotRecording
	}
	recording := c.recording
	c.recording = nil
	c.state = StateIdle
	c.mutex.Unlock()

	c.emit(Event{Type: EventStopped, URI: recording.URI()})

	err := recording.StopAndUnload(ctx)
	uri := recording.URI()
	if err != nil {
		err = fmt.Errorf("завершение записи: %w", err)
		c.logger.Error("Не удалось завершить запись", "uri", uri, "error", err)
	} else {
		c.logger.Info("Запись сохранена", "uri", uri)
	}

	c.emit(Event{Type: EventClosed, URI: uri, Err: err})
	return uri, err
}

// Active возвращает true, если запись запускается или идет
func (c *Controller) Active() bool {
	return c.State() != StateIdle
}

// State возвращает текущее состояние
func (c *Controller) State() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state
}

// Subscribe подписывает fn на события. Обработчики вызываются синхронно,
// вне блокировки контроллера, в порядке подписки
func (c *Controller) Subscribe(fn func(Event)) func() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(id) })
	}
}

func (c *Controller) unsubscribe(id int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for i, l := range c.listeners {
		if l.id == id {
			c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
			return
		}
	}
}

func (c *Controller) emit(event Event) {
	c.mutex.Lock()
	listeners := make([]listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mutex.Unlock()

	for _, l := range listeners {
		l.fn(event)
	}
}
