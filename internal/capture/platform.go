package capture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/hazadus/go-recorder/internal/audio"
	"github.com/hazadus/go-recorder/internal/config"
)

const (
	// defaultDevicePath - каталог звуковых устройств ALSA
	defaultDevicePath = "/dev/snd"
	// defaultStartGrace - за это время процесс захвата должен не упасть
	defaultStartGrace = 300 * time.Millisecond
	// defaultStopTimeout - сколько ждем завершения процесса после SIGINT
	defaultStopTimeout = 5 * time.Second
)

// Platform предоставляет запрос разрешения, режим аудио и создание записей
type Platform struct {
	cfg    config.RecorderConfig
	dir    string
	logger *slog.Logger

	lookPath    func(string) (string, error)
	devicePath  string
	now         func() time.Time
	startGrace  time.Duration
	stopTimeout time.Duration
	override    Backend

	mutex sync.RWMutex
	mode  audio.Mode
}

// NewPlatform создает платформу записи, сохраняющую клипы в dir
func NewPlatform(cfg config.RecorderConfig, dir string, logger *slog.Logger) *Platform {
	if logger == nil {
		logger = slog.Default()
	}

	return &Platform{
		cfg:         cfg,
		dir:         dir,
		logger:      logger,
		lookPath:    exec.LookPath,
		devicePath:  defaultDevicePath,
		now:         time.Now,
		startGrace:  defaultStartGrace,
		stopTimeout: defaultStopTimeout,
	}
}

// RequestPermission проверяет, что запись с микрофона возможна
func (p *Platform) RequestPermission(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	backend, err := p.backend()
	if err != nil {
		return err
	}

	f, err := os.Open(p.devicePath)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: нет доступа к %s", audio.ErrPermissionDenied, p.devicePath)
		}
		// Узла может не быть, если звук идет через сервер (pulse, pipewire)
		p.logger.Debug("Каталог звуковых устройств недоступен", "path", p.devicePath, "error", err)
		return nil
	}
	f.Close()

	p.logger.Debug("Разрешение на запись получено", "backend", backend.Type())
	return nil
}

// SetAudioMode устанавливает режим аудио
func (p *Platform) SetAudioMode(ctx context.Context, mode audio.Mode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mutex.Lock()
	p.mode = mode
	p.mutex.Unlock()
	return nil
}

// Mode возвращает текущий режим аудио
func (p *Platform) Mode() audio.Mode {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.mode
}

// NewRecording создает новый неподготовленный дескриптор записи
func (p *Platform) NewRecording() audio.Recording {
	return &Recording{platform: p}
}

// backend возвращает бэкенд захвата согласно конфигурации
func (p *Platform) backend() (Backend, error) {
	if p.override != nil {
		return p.override, nil
	}
	return selectBackend(p.cfg.Backend, p.cfg.InputFormat, p.lookPath)
}

// ClipFileName формирует имя файла записи по времени начала
func ClipFileName(t time.Time, extension string) string {
	return "rec-" + t.Format("2006-01-02_15-04-05.000") + extension
}
