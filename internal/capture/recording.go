package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazadus/go-recorder/internal/audio"
)

// wavHeaderSize - размер заголовка WAV, файл такого размера не содержит звука
const wavHeaderSize = 44

var (
	errNotPrepared = errors.New("запись не подготовлена")
	errNotStarted  = errors.New("запись не запущена")
	errStarted     = errors.New("запись уже запущена")
)

// Recording - запись через внешний процесс захвата
type Recording struct {
	platform *Platform

	backend Backend
	path    string
	cmd     *exec.Cmd
	stderr  bytes.Buffer

	// done закрывается после завершения процесса, waitErr читается только после него
	done    chan struct{}
	waitErr error
}

// Prepare готовит команду захвата с указанным пресетом
func (r *Recording) Prepare(ctx context.Context, preset audio.Preset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !r.platform.Mode().AllowsRecording {
		return audio.ErrRecordingNotAllowed
	}

	backend, err := r.platform.backend()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.platform.dir, 0755); err != nil {
		return fmt.Errorf("%w: ошибка создания каталога записей: %v", audio.ErrStorage, err)
	}

	r.backend = backend
	r.path = filepath.Join(r.platform.dir, ClipFileName(r.platform.now(), preset.Extension))
	r.cmd = exec.Command(backend.Binary(), backend.Args(r.platform.cfg.Device, preset, r.path)...)
	r.cmd.Stderr = &r.stderr

	r.platform.logger.Debug("Запись подготовлена",
		"backend", backend.Type(),
		"preset", preset.Name,
		"command", strings.Join(r.cmd.Args, " "))
	return nil
}

// Start запускает процесс захвата
func (r *Recording) Start(ctx context.Context) error {
	if r.cmd == nil {
		return errNotPrepared
	}
	if r.done != nil {
		return errStarted
	}

	if err := r.cmd.Start(); err != nil {
		return fmt.Errorf("%w: ошибка запуска %s: %v", audio.ErrDeviceUnavailable, r.backend.Binary(), err)
	}

	r.done = make(chan struct{})
	go func() {
		r.waitErr = r.cmd.Wait()
		close(r.done)
	}()

	// Занятое устройство обычно приводит к немедленному завершению процесса
	timer := time.NewTimer(r.platform.startGrace)
	defer timer.Stop()

	select {
	case <-r.done:
		r.discard()
		return fmt.Errorf("%w: %s завершился при старте: %s",
			audio.ErrDeviceUnavailable, r.backend.Binary(), strings.TrimSpace(r.stderr.String()))
	case <-ctx.Done():
		r.kill()
		r.discard()
		return ctx.Err()
	case <-timer.C:
	}

	r.platform.logger.Info("Процесс захвата запущен", "file", r.path, "pid", r.cmd.Process.Pid)
	return nil
}

// StopAndUnload останавливает процесс захвата и проверяет файл записи
func (r *Recording) StopAndUnload(ctx context.Context) error {
	if r.done == nil {
		return errNotStarted
	}

	select {
	case <-r.done:
	default:
		// SIGINT позволяет процессу дописать заголовок WAV
		if err := r.cmd.Process.Signal(os.Interrupt); err != nil {
			r.platform.logger.Debug("Не удалось отправить SIGINT, завершаем процесс", "error", err)
			r.kill()
		}
	}

	timer := time.NewTimer(r.platform.stopTimeout)
	defer timer.Stop()

	select {
	case <-r.done:
	case <-timer.C:
		r.platform.logger.Warn("Процесс захвата не завершился вовремя, принудительно завершаем")
		r.kill()
	case <-ctx.Done():
		r.kill()
		r.discard()
		return ctx.Err()
	}

	if r.waitErr != nil {
		// Код выхода после сигнала обычно ненулевой, решает проверка файла
		r.platform.logger.Debug("Процесс захвата завершился с ошибкой",
			"error", r.waitErr,
			"stderr", strings.TrimSpace(r.stderr.String()))
	}

	if err := r.validateOutput(); err != nil {
		// Битый файл не должен попасть в список клипов
		r.discard()
		return err
	}
	return nil
}

// URI возвращает путь к файлу записи
func (r *Recording) URI() string {
	return r.path
}

// kill принудительно завершает процесс и ждет его выхода
func (r *Recording) kill() {
	if r.cmd != nil && r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
	}
	if r.done != nil {
		<-r.done
	}
}

// discard удаляет файл неудавшейся записи
func (r *Recording) discard() {
	err := os.Remove(r.path)
	switch {
	case err == nil:
		r.platform.logger.Info("Файл неудавшейся записи удален", "file", r.path)
	case !errors.Is(err, fs.ErrNotExist):
		r.platform.logger.Warn("Не удалось удалить файл неудавшейся записи", "file", r.path, "error", err)
	}
}

// validateOutput проверяет, что файл записи существует и содержит звук
func (r *Recording) validateOutput() error {
	info, err := os.Stat(r.path)
	if err != nil {
		return fmt.Errorf("%w: файл записи не найден: %s", audio.ErrDeviceUnavailable, r.path)
	}

	if info.Size() <= wavHeaderSize {
		return fmt.Errorf("%w: запись пуста (%d байт): %s", audio.ErrDeviceUnavailable, info.Size(), r.path)
	}

	return nil
}
