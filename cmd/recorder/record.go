package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-recorder/internal/utils"
)

// createRecordCommand создает команду record с привязкой к экземпляру приложения
func (app *Application) createRecordCommand(ctx context.Context) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a clip from the microphone",
		Long: `Record a new clip from the default input device into the clips directory.
Recording stops on Ctrl+C or when --duration elapses.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.recordClip(ctx, duration)
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "stop recording after this duration (0 - until Ctrl+C)")

	return cmd
}

func (app *Application) recordClip(ctx context.Context, duration time.Duration) error {
	if err := app.Session.StartRecording(ctx); err != nil {
		return err
	}

	started := time.Now()
	fmt.Println("🔴 Идет запись. Нажмите Ctrl+C для остановки.")

	var deadline <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

wait:
	for {
		select {
		case <-ticker.C:
			fmt.Printf("\r⏱️  %s", utils.FormatDuration(time.Since(started)))
		case <-deadline:
			break wait
		case <-ctx.Done():
			break wait
		}
	}
	fmt.Println()

	// Контекст команды уже может быть отменен, а файл нужно дописать
	uri, err := app.Session.StopRecording(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("💾 Запись сохранена: %s\n", uri)
	if err := app.Library.LastRefreshErr(); err != nil {
		fmt.Printf("⚠️  Список клипов не обновлен: %v\n", err)
		return nil
	}
	if clip, ok := app.Library.Clip(uri); ok {
		size := "N/A"
		if stat, err := app.Fs.Stat(uri); err == nil {
			size = utils.FormatFileSize(stat.Size())
		}
		fmt.Printf("   %s, %s, %s\n", filepath.Base(uri), utils.FormatDuration(clip.Sound.Duration()), size)
	}
	return nil
}
