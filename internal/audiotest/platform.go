package audiotest

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/hazadus/go-recorder/internal/audio"
)

// Platform - платформа записи, пишущая тихие клипы в afero.Fs
type Platform struct {
	FS  afero.Fs
	Dir string
	// Length - длительность создаваемых клипов
	Length time.Duration

	PermissionErr error
	ModeErr       error
	PrepareErr    error
	StartErr      error
	StopErr       error

	mutex      sync.Mutex
	mode       audio.Mode
	recordings []*Recording
}

// NewPlatform создает платформу, пишущую в dir
func NewPlatform(fs afero.Fs, dir string) *Platform {
	return &Platform{FS: fs, Dir: dir, Length: 100 * time.Millisecond}
}

func (p *Platform) RequestPermission(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.PermissionErr
}

func (p *Platform) SetAudioMode(ctx context.Context, mode audio.Mode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ModeErr != nil {
		return p.ModeErr
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.mode = mode
	return nil
}

// Mode возвращает установленный режим аудио
func (p *Platform) Mode() audio.Mode {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.mode
}

func (p *Platform) NewRecording() audio.Recording {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	rec := &Recording{platform: p, index: len(p.recordings) + 1}
	p.recordings = append(p.recordings, rec)
	return rec
}

// Recordings возвращает созданные дескрипторы записи
func (p *Platform) Recordings() []*Recording {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]*Recording(nil), p.recordings...)
}

// Recording - дескриптор записи тестовой платформы
type Recording struct {
	platform *Platform
	index    int

	mutex    sync.Mutex
	preset   audio.Preset
	uri      string
	prepared bool
	started  bool
	stopped  bool
}

func (r *Recording) Prepare(ctx context.Context, preset audio.Preset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.platform.PrepareErr != nil {
		return r.platform.PrepareErr
	}
	if !r.platform.Mode().AllowsRecording {
		return audio.ErrRecordingNotAllowed
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.preset = preset
	r.uri = filepath.Join(r.platform.Dir, fmt.Sprintf("rec-%03d%s", r.index, preset.Extension))
	r.prepared = true
	return nil
}

func (r *Recording) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.platform.StartErr != nil {
		return r.platform.StartErr
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if !r.prepared {
		return fmt.Errorf("запись не подготовлена")
	}
	r.started = true
	return nil
}

// StopAndUnload записывает файл клипа
func (r *Recording) StopAndUnload(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.stopped = true
	if r.platform.StopErr != nil {
		return r.platform.StopErr
	}
	if err := r.platform.FS.MkdirAll(r.platform.Dir, 0755); err != nil {
		return err
	}
	return WriteWAV(r.platform.FS, r.uri, r.platform.Length)
}

func (r *Recording) URI() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.uri
}

// Preset возвращает пресет, с которым была подготовлена запись
func (r *Recording) Preset() audio.Preset {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.preset
}

// Started сообщает, была ли запись запущена
func (r *Recording) Started() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.started
}

// Stopped сообщает, была ли запись финализирована
func (r *Recording) Stopped() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.stopped
}
