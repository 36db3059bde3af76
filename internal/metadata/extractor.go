// Package metadata предоставляет функционал для получения сведений о клипах
package metadata

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/spf13/afero"

	"github.com/hazadus/go-recorder/internal/player"
)

// Tags хранит теги клипа
type Tags struct {
	Artist string
	Title  string
	Album  string
	// Format - формат тегов (ID3v2, VORBIS и т.п.), пустой если тегов нет
	Format string
}

// Info содержит сведения о файле клипа
type Info struct {
	URI        string
	Name       string
	Size       int64
	ModTime    time.Time
	Duration   time.Duration
	SampleRate int
	Channels   int
	Tags       Tags
}

// Extractor извлекает сведения из аудиофайлов
type Extractor struct {
	fs afero.Fs
}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor(fs afero.Fs) *Extractor {
	return &Extractor{fs: fs}
}

// ExtractFromReader извлекает теги из io.ReadSeeker
func (e *Extractor) ExtractFromReader(reader io.ReadSeeker, source string) Tags {
	// Сбрасываем reader в начало
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return e.getDefaultTags(source)
	}

	metadata, err := tag.ReadFrom(reader)
	if err != nil {
		return e.getDefaultTags(source)
	}

	tags := Tags{
		Artist: metadata.Artist(),
		Title:  metadata.Title(),
		Album:  metadata.Album(),
		Format: string(metadata.Format()),
	}
	if tags.Title == "" {
		tags.Title = e.getDefaultTags(source).Title
	}
	return tags
}

// ExtractFromFile извлекает теги из файла
func (e *Extractor) ExtractFromFile(uri string) Tags {
	file, err := e.fs.Open(uri)
	if err != nil {
		return e.getDefaultTags(uri)
	}
	defer file.Close()

	return e.ExtractFromReader(file, uri)
}

// GetInfo получает размер, длительность, формат и теги клипа
func (e *Extractor) GetInfo(uri string) (*Info, error) {
	stat, err := e.fs.Stat(uri)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения информации о файле: %w", err)
	}

	streamer, format, err := player.Open(e.fs, uri)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения длительности: %w", err)
	}
	defer streamer.Close()

	return &Info{
		URI:        uri,
		Name:       filepath.Base(uri),
		Size:       stat.Size(),
		ModTime:    stat.ModTime(),
		Duration:   format.SampleRate.D(streamer.Len()),
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
		Tags:       e.ExtractFromFile(uri),
	}, nil
}

// getDefaultTags возвращает теги по умолчанию на основе имени файла
func (e *Extractor) getDefaultTags(source string) Tags {
	fileName := filepath.Base(source)
	nameWithoutExt := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	// Пытаемся разобрать имя файла в формате "Artist - Title"
	parts := strings.Split(nameWithoutExt, " - ")
	if len(parts) >= 2 {
		return Tags{
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(strings.Join(parts[1:], " - ")),
		}
	}

	return Tags{Title: nameWithoutExt}
}
