// Package player содержит дескрипторы воспроизведения клипов
package player

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// OutputSampleRate - частота дискретизации динамиков
const OutputSampleRate = beep.SampleRate(44100)

// resampleQuality - качество передискретизации клипов с другой частотой
const resampleQuality = 4

// Output смешивает и воспроизводит потоки
type Output interface {
	// Play добавляет поток в микшер
	Play(format beep.Format, s beep.Streamer) error
	// Lock блокирует микшер на время изменения потоков
	Lock()
	Unlock()
}

// speakerOutput воспроизводит через общий динамик beep
type speakerOutput struct {
	once    sync.Once
	initErr error
}

// DefaultOutput - общий динамик процесса, инициализируется при первом воспроизведении
var DefaultOutput Output = &speakerOutput{}

func (o *speakerOutput) Play(format beep.Format, s beep.Streamer) error {
	o.once.Do(func() {
		o.initErr = speaker.Init(OutputSampleRate, OutputSampleRate.N(time.Second/10))
	})
	if o.initErr != nil {
		return fmt.Errorf("ошибка инициализации динамиков: %w", o.initErr)
	}

	if format.SampleRate != OutputSampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, OutputSampleRate, s)
	}

	speaker.Play(s)
	return nil
}

func (o *speakerOutput) Lock() {
	speaker.Lock()
}

func (o *speakerOutput) Unlock() {
	speaker.Unlock()
}
