package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-recorder/internal/utils"
)

// createInfoCommand создает команду info с привязкой к экземпляру приложения
func (app *Application) createInfoCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "info [clip]",
		Short: "Show clip details",
		Long:  `Show file size, duration, audio format and tags of a clip.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.showClipInfo(ctx, args[0])
		},
	}
}

func (app *Application) showClipInfo(ctx context.Context, ref string) error {
	clip, err := app.findClip(ctx, ref)
	if err != nil {
		return err
	}

	info, err := app.Extractor.GetInfo(clip.URI)
	if err != nil {
		return err
	}

	fmt.Printf("🎙️  %s\n\n", info.Name)
	fmt.Printf("   Путь:         %s\n", info.URI)
	fmt.Printf("   Размер:       %s\n", utils.FormatFileSize(info.Size))
	fmt.Printf("   Длительность: %s\n", utils.FormatDuration(info.Duration))
	fmt.Printf("   Формат:       %d Гц, каналов: %d\n", info.SampleRate, info.Channels)
	fmt.Printf("   Изменен:      %s\n", info.ModTime.Format("2006-01-02 15:04:05"))
	if info.Tags.Format != "" {
		fmt.Printf("   Теги (%s):   %s - %s\n", info.Tags.Format, info.Tags.Artist, info.Tags.Title)
	}
	return nil
}
