// Package actions содержит сообщения, которыми экраны TUI запрашивают
// действия над клипами у главной модели
package actions

import "github.com/hazadus/go-recorder/internal/library"

// PlayClipMsg запрашивает воспроизведение клипа
type PlayClipMsg struct {
	URI string
}

// StopClipMsg запрашивает остановку клипа
type StopClipMsg struct {
	URI string
}

// DeleteClipMsg запрашивает удаление клипа
type DeleteClipMsg struct {
	URI string
}

// ShowClipMsg запрашивает экран сведений о клипе
type ShowClipMsg struct {
	Clip library.Clip
}

// GoBackMsg возвращает к списку клипов
type GoBackMsg struct{}
