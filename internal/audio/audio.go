// Package audio описывает контракт платформенных аудио-возможностей:
// дескрипторы записи и воспроизведения, режим аудио, пресеты и ошибки
package audio

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// Ошибки платформы. Реализации оборачивают их через %w, вызывающий код
// проверяет через errors.Is
var (
	// ErrPermissionDenied - нет доступа к микрофону
	ErrPermissionDenied = errors.New("доступ к микрофону запрещен")
	// ErrDeviceUnavailable - устройство занято, отсутствует или не смогло стартовать
	ErrDeviceUnavailable = errors.New("аудиоустройство недоступно")
	// ErrRecordingNotAllowed - режим аудио не разрешает запись
	ErrRecordingNotAllowed = errors.New("режим аудио не разрешает запись")
	// ErrUnsupportedFormat - формат файла не поддерживается
	ErrUnsupportedFormat = errors.New("неподдерживаемый формат")
	// ErrStorage - ошибка чтения или изменения хранилища
	ErrStorage = errors.New("ошибка хранилища")
)

// Mode задает режим аудиосессии
type Mode struct {
	AllowsRecording   bool
	PlaysInSilentMode bool
}

// RecordingMode - режим, который включается перед началом записи
var RecordingMode = Mode{
	AllowsRecording:   true,
	PlaysInSilentMode: true,
}

// Preset описывает параметры записи
type Preset struct {
	Name       string
	SampleRate int
	Channels   int
	BitDepth   int
	Extension  string
}

// HighQuality - фиксированный пресет записи высокого качества
var HighQuality = Preset{
	Name:       "high",
	SampleRate: 44100,
	Channels:   2,
	BitDepth:   16,
	Extension:  ".wav",
}

// SupportedExtensions - расширения файлов, которые умеет воспроизводить плеер
var SupportedExtensions = []string{".wav", ".mp3"}

// IsSupported сообщает, поддерживается ли файл по его расширению
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Recording - дескриптор записи, принадлежащий одной сессии
type Recording interface {
	Prepare(ctx context.Context, preset Preset) error
	Start(ctx context.Context) error
	// StopAndUnload завершает запись и освобождает устройство
	StopAndUnload(ctx context.Context) error
	// URI возвращает путь к файлу записи
	URI() string
}

// Sound - дескриптор воспроизведения одного файла
type Sound interface {
	// Play начинает воспроизведение с начала
	Play(ctx context.Context) error
	// Stop останавливает воспроизведение, если оно идет
	Stop(ctx context.Context) error
	IsPlaying() bool
	// Done закрывается по окончании текущего воспроизведения
	Done() <-chan struct{}
	Duration() time.Duration
	Close() error
}
