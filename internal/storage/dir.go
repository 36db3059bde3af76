// Package storage предоставляет доступ к каталогу с записями
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/hazadus/go-recorder/internal/audio"
)

// Dir - каталог с клипами поверх afero.Fs
type Dir struct {
	fs   afero.Fs
	path string
}

// NewDir создает новый каталог клипов
func NewDir(fs afero.Fs, path string) *Dir {
	return &Dir{
		fs:   fs,
		path: filepath.Clean(path),
	}
}

// Path возвращает путь к каталогу
func (d *Dir) Path() string {
	return d.path
}

// Ensure создает каталог, если он не существует
func (d *Dir) Ensure() error {
	if err := d.fs.MkdirAll(d.path, 0755); err != nil {
		return fmt.Errorf("%w: ошибка создания каталога %s: %v", audio.ErrStorage, d.path, err)
	}
	return nil
}

// List возвращает пути ко всем аудиофайлам каталога, отсортированные по имени.
// Отсутствующий каталог считается пустым
func (d *Dir) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// afero.ReadDir возвращает записи, отсортированные по имени
	entries, err := afero.ReadDir(d.fs, d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: ошибка чтения каталога %s: %v", audio.ErrStorage, d.path, err)
	}

	uris := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !audio.IsSupported(entry.Name()) {
			continue
		}
		uris = append(uris, filepath.Join(d.path, entry.Name()))
	}
	return uris, nil
}

// Remove удаляет файл клипа
func (d *Dir) Remove(ctx context.Context, uri string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !d.contains(uri) {
		return fmt.Errorf("%w: файл %s находится вне каталога %s", audio.ErrStorage, uri, d.path)
	}

	if err := d.fs.Remove(uri); err != nil {
		return fmt.Errorf("%w: ошибка удаления %s: %v", audio.ErrStorage, uri, err)
	}
	return nil
}

// contains проверяет, что путь указывает на файл непосредственно в каталоге
func (d *Dir) contains(uri string) bool {
	return filepath.Dir(filepath.Clean(uri)) == d.path
}
