package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-recorder/internal/tui"
)

// createTUICommand создает команду tui с привязкой к экземпляру приложения
func (app *Application) createTUICommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch TUI (Terminal User Interface)",
		Long:  `Launch interactive terminal user interface for recording and playing clips.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.launchTUI(ctx)
		},
	}
}

func (app *Application) launchTUI(ctx context.Context) error {
	tuiApp := tui.NewApp(app.Session, app.Library, app.Extractor)
	return tuiApp.Run(ctx)
}
