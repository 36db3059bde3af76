// Package audiotest содержит вспомогательные средства для тестов:
// генерацию WAV-файлов и выход без реального динамика
package audiotest

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/spf13/afero"
)

// Format - формат генерируемых клипов
var Format = beep.Format{
	SampleRate:  44100,
	NumChannels: 2,
	Precision:   2,
}

// WriteWAV записывает в fs тихий WAV-файл указанной длительности
func WriteWAV(fs afero.Fs, path string, d time.Duration) error {
	return WriteWAVWithFormat(fs, path, d, Format)
}

// WriteWAVWithFormat записывает тихий WAV-файл в указанном формате
func WriteWAVWithFormat(fs afero.Fs, path string, d time.Duration, format beep.Format) error {
	file, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return wav.Encode(file, beep.Silence(format.SampleRate.N(d)), format)
}

// Output - выход, который копит потоки вместо воспроизведения
type Output struct {
	mutex   sync.Mutex
	streams []beep.Streamer
	played  int

	// Err возвращается из Play, если задана
	Err error
}

// Play запоминает поток
func (o *Output) Play(_ beep.Format, s beep.Streamer) error {
	if o.Err != nil {
		return o.Err
	}

	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.streams = append(o.streams, s)
	o.played++
	return nil
}

func (o *Output) Lock()   { o.mutex.Lock() }
func (o *Output) Unlock() { o.mutex.Unlock() }

// Played возвращает количество запущенных потоков
func (o *Output) Played() int {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.played
}

// Drain прокручивает все потоки до конца, как это сделал бы динамик
func (o *Output) Drain() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	buf := make([][2]float64, 512)
	for _, s := range o.streams {
		for {
			if _, ok := s.Stream(buf); !ok {
				break
			}
		}
	}
	o.streams = nil
}
