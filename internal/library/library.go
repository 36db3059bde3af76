// Package library строит список клипов по каталогу записей и управляет
// их воспроизведением и удалением
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hazadus/go-recorder/internal/audio"
	"github.com/hazadus/go-recorder/internal/session"
)

// ErrClipNotFound возвращается для клипа, которого нет в списке
var ErrClipNotFound = errors.New("клип не найден")

// Clip - один сохраненный клип
type Clip struct {
	URI   string
	Name  string
	Sound audio.Sound
}

// Storage - каталог клипов
type Storage interface {
	List(ctx context.Context) ([]string, error)
	Remove(ctx context.Context, uri string) error
}

// SoundLoader создает дескрипторы воспроизведения
type SoundLoader interface {
	LoadSound(ctx context.Context, uri string) (audio.Sound, error)
}

// EventSource - источник событий сессии записи
type EventSource interface {
	Subscribe(fn func(session.Event)) func()
}

// Library владеет списком клипов и их дескрипторами
type Library struct {
	storage Storage
	loader  SoundLoader
	logger  *slog.Logger

	// generation выдается каждому обновлению при старте
	generation atomic.Uint64

	mutex   sync.RWMutex
	clips   []Clip
	applied uint64
	closed  bool
	// lastErr - ошибка последнего обновления, nil после успешного
	lastErr error
}

// New создает пустую библиотеку. Список заполняется вызовом Refresh
func New(storage Storage, loader SoundLoader, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{
		storage: storage,
		loader:  loader,
		logger:  logger,
	}
}

// Refresh перечитывает каталог и заменяет список новым снимком.
// Дескрипторы создаются параллельно; если хотя бы один не создан, список
// не меняется. Результат обновления, начатого раньше уже примененного,
// отбрасывается
func (l *Library) Refresh(ctx context.Context) error {
	gen := l.generation.Add(1)

	uris, err := l.storage.List(ctx)
	if err != nil {
		l.logger.Error("Ошибка чтения каталога клипов", "error", err)
		return l.fail(gen, fmt.Errorf("чтение каталога клипов: %w", err))
	}

	sounds := make([]audio.Sound, len(uris))
	g, gctx := errgroup.WithContext(ctx)
	for i, uri := range uris {
		i, uri := i, uri
		g.Go(func() error {
			sound, err := l.loader.LoadSound(gctx, uri)
			if err != nil {
				return fmt.Errorf("загрузка клипа %s: %w", filepath.Base(uri), err)
			}
			sounds[i] = sound
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		closeSounds(l.logger, sounds)
		l.logger.Error("Ошибка обновления списка клипов", "error", err)
		return l.fail(gen, err)
	}

	clips := make([]Clip, len(uris))
	for i, uri := range uris {
		clips[i] = Clip{URI: uri, Name: filepath.Base(uri), Sound: sounds[i]}
	}

	l.mutex.Lock()
	if l.closed || gen < l.applied {
		l.mutex.Unlock()
		closeSounds(l.logger, sounds)
		l.logger.Debug("Устаревшее обновление отброшено", "generation", gen)
		return nil
	}
	clips, unused := carryPlaying(l.clips, clips)
	l.clips = clips
	l.applied = gen
	l.lastErr = nil
	l.mutex.Unlock()

	closeSounds(l.logger, unused)
	l.logger.Debug("Список клипов обновлен", "generation", gen, "count", len(clips))
	return nil
}

// fail запоминает ошибку обновления, если после него не применено более новое
func (l *Library) fail(gen uint64, err error) error {
	l.mutex.Lock()
	if gen >= l.applied {
		l.lastErr = err
	}
	l.mutex.Unlock()
	return err
}

// LastRefreshErr возвращает ошибку последнего обновления списка
func (l *Library) LastRefreshErr() error {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.lastErr
}

// carryPlaying переносит в новый снимок играющие дескрипторы старого.
// Возвращает новый список и дескрипторы, которые нужно закрыть
func carryPlaying(old, fresh []Clip) ([]Clip, []audio.Sound) {
	playing := make(map[string]audio.Sound)
	for _, clip := range old {
		if clip.Sound.IsPlaying() {
			playing[clip.URI] = clip.Sound
		}
	}

	carried := make(map[audio.Sound]bool)
	var unused []audio.Sound
	for i, clip := range fresh {
		if sound, ok := playing[clip.URI]; ok {
			unused = append(unused, clip.Sound)
			fresh[i].Sound = sound
			carried[sound] = true
		}
	}

	for _, clip := range old {
		if !carried[clip.Sound] {
			unused = append(unused, clip.Sound)
		}
	}

	return fresh, unused
}

// Follow обновляет список после каждой завершенной записи
func (l *Library) Follow(src EventSource) func() {
	return src.Subscribe(func(event session.Event) {
		if event.Type != session.EventClosed {
			return
		}
		// Ошибка уже залогирована в Refresh
		_ = l.Refresh(context.Background())
	})
}

// Clips возвращает копию текущего списка
func (l *Library) Clips() []Clip {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	clips := make([]Clip, len(l.clips))
	copy(clips, l.clips)
	return clips
}

// Clip возвращает клип по URI
func (l *Library) Clip(uri string) (Clip, bool) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	for _, clip := range l.clips {
		if clip.URI == uri {
			return clip, true
		}
	}
	return Clip{}, false
}

// Find ищет клип по URI, имени файла или имени без расширения
func (l *Library) Find(ref string) (Clip, bool) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	for _, clip := range l.clips {
		if clip.URI == ref || clip.Name == ref ||
			strings.TrimSuffix(clip.Name, filepath.Ext(clip.Name)) == ref {
			return clip, true
		}
	}
	return Clip{}, false
}

// Play воспроизводит клип с начала, не останавливая другие
func (l *Library) Play(ctx context.Context, uri string) error {
	clip, ok := l.Clip(uri)
	if !ok {
		return ErrClipNotFound
	}

	if err := clip.Sound.Play(ctx); err != nil {
		l.logger.Error("Ошибка воспроизведения клипа", "uri", uri, "error", err)
		return fmt.Errorf("воспроизведение %s: %w", clip.Name, err)
	}
	return nil
}

// Stop останавливает клип, если он играет
func (l *Library) Stop(ctx context.Context, uri string) error {
	clip, ok := l.Clip(uri)
	if !ok {
		return ErrClipNotFound
	}

	if err := clip.Sound.Stop(ctx); err != nil {
		l.logger.Error("Ошибка остановки клипа", "uri", uri, "error", err)
		return fmt.Errorf("остановка %s: %w", clip.Name, err)
	}
	return nil
}

// Delete удаляет файл клипа и, только при успехе, запись из списка.
// При ошибке запись остается в списке
func (l *Library) Delete(ctx context.Context, uri string) error {
	if _, ok := l.Clip(uri); !ok {
		return ErrClipNotFound
	}

	if err := l.storage.Remove(ctx, uri); err != nil {
		l.logger.Error("Ошибка удаления клипа", "uri", uri, "error", err)
		return fmt.Errorf("удаление %s: %w", filepath.Base(uri), err)
	}

	var removed audio.Sound
	l.mutex.Lock()
	for i, clip := range l.clips {
		if clip.URI == uri {
			removed = clip.Sound
			l.clips = append(l.clips[:i:i], l.clips[i+1:]...)
			break
		}
	}
	l.mutex.Unlock()

	if removed != nil {
		closeSounds(l.logger, []audio.Sound{removed})
	}

	l.logger.Info("Клип удален", "uri", uri)
	return nil
}

// Close закрывает все дескрипторы. Последующие обновления отбрасываются
func (l *Library) Close() error {
	l.mutex.Lock()
	clips := l.clips
	l.clips = nil
	l.closed = true
	l.mutex.Unlock()

	var errs []error
	for _, clip := range clips {
		if err := clip.Sound.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// closeSounds закрывает дескрипторы, пропуская пустые
func closeSounds(logger *slog.Logger, sounds []audio.Sound) {
	for _, sound := range sounds {
		if sound == nil {
			continue
		}
		if err := sound.Close(); err != nil {
			logger.Warn("Ошибка закрытия дескриптора", "error", err)
		}
	}
}
