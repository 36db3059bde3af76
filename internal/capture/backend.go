// Package capture реализует запись звука через внешний процесс захвата
package capture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hazadus/go-recorder/internal/audio"
)

// BackendType тип бэкенда захвата
type BackendType string

const (
	BackendTypeFFmpeg  BackendType = "ffmpeg"
	BackendTypeARecord BackendType = "arecord"
	BackendTypeAuto    BackendType = "auto"
)

// Backend строит командную строку процесса захвата
type Backend interface {
	Type() BackendType
	Binary() string
	Args(device string, preset audio.Preset, output string) []string
}

// FFmpegBackend захватывает звук через ffmpeg (pulse или alsa)
type FFmpegBackend struct {
	InputFormat string
}

// Type возвращает тип бэкенда
func (b *FFmpegBackend) Type() BackendType { return BackendTypeFFmpeg }

// Binary возвращает имя исполняемого файла
func (b *FFmpegBackend) Binary() string { return "ffmpeg" }

// Args возвращает аргументы ffmpeg для записи в WAV
func (b *FFmpegBackend) Args(device string, preset audio.Preset, output string) []string {
	inputFormat := b.InputFormat
	if inputFormat == "" {
		inputFormat = "pulse"
	}

	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", inputFormat,
		"-i", device,
		"-ac", strconv.Itoa(preset.Channels),
		"-ar", strconv.Itoa(preset.SampleRate),
		"-c:a", pcmCodec(preset.BitDepth),
		"-y", // Перезаписываем файл
		output,
	}
}

// ARecordBackend захватывает звук через arecord (ALSA)
type ARecordBackend struct{}

// Type возвращает тип бэкенда
func (b *ARecordBackend) Type() BackendType { return BackendTypeARecord }

// Binary возвращает имя исполняемого файла
func (b *ARecordBackend) Binary() string { return "arecord" }

// Args возвращает аргументы arecord для записи в WAV
func (b *ARecordBackend) Args(device string, preset audio.Preset, output string) []string {
	return []string{
		"-q",
		"-D", device,
		"-f", alsaSampleFormat(preset.BitDepth),
		"-c", strconv.Itoa(preset.Channels),
		"-r", strconv.Itoa(preset.SampleRate),
		"-t", "wav",
		output,
	}
}

// selectBackend выбирает бэкенд по имени из конфигурации.
// В режиме auto предпочитается ffmpeg, затем arecord
func selectBackend(name, inputFormat string, lookPath func(string) (string, error)) (Backend, error) {
	ffmpeg := &FFmpegBackend{InputFormat: inputFormat}
	arecord := &ARecordBackend{}

	var candidates []Backend
	switch BackendType(strings.ToLower(name)) {
	case BackendTypeFFmpeg:
		candidates = []Backend{ffmpeg}
	case BackendTypeARecord:
		candidates = []Backend{arecord}
	case BackendTypeAuto, "":
		candidates = []Backend{ffmpeg, arecord}
	default:
		return nil, fmt.Errorf("неизвестный бэкенд записи: %s", name)
	}

	tried := make([]string, 0, len(candidates))
	for _, backend := range candidates {
		if _, err := lookPath(backend.Binary()); err == nil {
			return backend, nil
		}
		tried = append(tried, backend.Binary())
	}

	return nil, fmt.Errorf("%w: программа захвата не найдена (пробовали: %s)",
		audio.ErrDeviceUnavailable, strings.Join(tried, ", "))
}

// pcmCodec возвращает кодек ffmpeg для разрядности
func pcmCodec(bitDepth int) string {
	if bitDepth == 24 {
		return "pcm_s24le"
	}
	return "pcm_s16le"
}

// alsaSampleFormat возвращает формат сэмплов arecord для разрядности
func alsaSampleFormat(bitDepth int) string {
	if bitDepth == 24 {
		return "S24_3LE"
	}
	return "S16_LE"
}
