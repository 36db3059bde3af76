package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-recorder/internal/utils"
)

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "play [clip]",
		Short: "Play a clip",
		Long:  `Play a clip by its number from 'list', file name or path. Press Ctrl+C to stop.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.playClip(ctx, args[0])
		},
	}
}

func (app *Application) playClip(ctx context.Context, ref string) error {
	clip, err := app.findClip(ctx, ref)
	if err != nil {
		return err
	}

	fmt.Printf("🎵 Воспроизведение: %s (%s)\n", clip.Name, utils.FormatDuration(clip.Sound.Duration()))

	if err := app.Library.Play(ctx, clip.URI); err != nil {
		return err
	}

	select {
	case <-clip.Sound.Done():
		fmt.Println("✅ Воспроизведение завершено")
	case <-ctx.Done():
		if err := app.Library.Stop(context.Background(), clip.URI); err != nil {
			return err
		}
		fmt.Println("⏹️  Воспроизведение остановлено")
	}
	return nil
}
