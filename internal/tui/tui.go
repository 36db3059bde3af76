// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-recorder/internal/session"
	"github.com/hazadus/go-recorder/internal/tui/app"
)

// Ожидание запуска записи, начатого перед выходом
var (
	settleTimeout  = 10 * time.Second
	settleInterval = 20 * time.Millisecond
)

// App представляет основное TUI приложение
type App struct {
	session app.Session
	library app.Library
	info    app.InfoProvider
}

// NewApp создает новый экземпляр TUI приложения
func NewApp(s app.Session, lib app.Library, info app.InfoProvider) *App {
	return &App{
		session: s,
		library: lib,
		info:    info,
	}
}

// Run запускает TUI приложение
func (tuiApp *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := app.NewMainModel(runCtx, tuiApp.session, tuiApp.library, tuiApp.info)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()

	// Запуск записи, не завершившийся до выхода, отменяется
	cancel()
	return tuiApp.finish(err)
}

// finish дожидается незавершенного запуска и сохраняет идущую запись
func (tuiApp *App) finish(runErr error) error {
	tuiApp.waitSettled()

	if tuiApp.session.State() != session.StateRecording {
		return runErr
	}

	uri, err := tuiApp.session.StopRecording(context.Background())
	if err != nil {
		if runErr == nil {
			return err
		}
		return runErr
	}

	fmt.Printf("💾 Запись сохранена: %s\n", uri)
	return runErr
}

func (tuiApp *App) waitSettled() {
	deadline := time.Now().Add(settleTimeout)
	for tuiApp.session.State() == session.StateStarting && time.Now().Before(deadline) {
		time.Sleep(settleInterval)
	}
}
