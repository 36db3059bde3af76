package player

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
	"github.com/spf13/afero"

	"github.com/hazadus/go-recorder/internal/audio"
)

// Loader создает дескрипторы воспроизведения для файлов клипов
type Loader struct {
	fs     afero.Fs
	output Output
	logger *slog.Logger
}

// NewLoader создает загрузчик, воспроизводящий через общий динамик
func NewLoader(fs afero.Fs, logger *slog.Logger) *Loader {
	return NewLoaderWithOutput(fs, DefaultOutput, logger)
}

// NewLoaderWithOutput создает загрузчик с указанным выходом
func NewLoaderWithOutput(fs afero.Fs, output Output, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{fs: fs, output: output, logger: logger}
}

// LoadSound открывает файл клипа и декодирует его заголовок
func (l *Loader) LoadSound(ctx context.Context, uri string) (audio.Sound, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	streamer, format, err := Open(l.fs, uri)
	if err != nil {
		return nil, err
	}

	return newSound(uri, streamer, format, l.output, l.logger), nil
}

// Open открывает файл клипа и возвращает декодер по расширению
func Open(fs afero.Fs, uri string) (beep.StreamSeekCloser, beep.Format, error) {
	if !audio.IsSupported(uri) {
		return nil, beep.Format{}, fmt.Errorf("%w: %s", audio.ErrUnsupportedFormat, filepath.Ext(uri))
	}

	file, err := fs.Open(uri)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: ошибка открытия %s: %v", audio.ErrStorage, uri, err)
	}

	streamer, format, err := decode(file, uri)
	if err != nil {
		file.Close()
		return nil, beep.Format{}, err
	}

	return &fileStreamer{StreamSeekCloser: streamer, file: file}, format, nil
}

// decode выбирает декодер по расширению файла
func decode(file afero.File, uri string) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)

	switch strings.ToLower(filepath.Ext(uri)) {
	case ".wav":
		streamer, format, err = wav.Decode(readSeeker{file})
	case ".mp3":
		streamer, format, err = mp3.Decode(readSeekNopCloser{file})
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", audio.ErrUnsupportedFormat, filepath.Ext(uri))
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: ошибка декодирования %s: %v", audio.ErrUnsupportedFormat, uri, err)
	}

	return streamer, format, nil
}

// readSeeker скрывает Close файла от декодера wav
type readSeeker struct {
	io.ReadSeeker
}

// readSeekNopCloser скрывает Close файла от декодера mp3
type readSeekNopCloser struct {
	io.ReadSeeker
}

func (readSeekNopCloser) Close() error { return nil }

// fileStreamer закрывает декодер и файл вместе
type fileStreamer struct {
	beep.StreamSeekCloser
	file afero.File
}

func (f *fileStreamer) Close() error {
	err := f.StreamSeekCloser.Close()
	if cerr := f.file.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
