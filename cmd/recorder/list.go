package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-recorder/internal/utils"
)

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded clips",
		Long:  `Display all clips cached in the clips directory, ordered by name.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.listClips(ctx)
		},
	}
}

func (app *Application) listClips(ctx context.Context) error {
	if err := app.Library.Refresh(ctx); err != nil {
		return err
	}

	clips := app.Library.Clips()
	if len(clips) == 0 {
		fmt.Println("📚 Записей пока нет. Запишите клип командой 'record'.")
		return nil
	}

	fmt.Printf("📚 Найдено записей: %d\n\n", len(clips))

	fmt.Printf("%-4s %-40s %-12s %-12s\n", "№", "Файл", "Длительность", "Размер")
	fmt.Println(strings.Repeat("-", 72))

	for i, clip := range clips {
		size := "N/A"
		if stat, err := app.Fs.Stat(clip.URI); err == nil {
			size = utils.FormatFileSize(stat.Size())
		}

		fmt.Printf("%-4d %-40s %-12s %-12s\n",
			i+1, utils.TruncateString(clip.Name, 38), utils.FormatDuration(clip.Sound.Duration()), size)
	}

	fmt.Println()
	fmt.Println("💡 Используйте 'recorder play [имя]' для воспроизведения клипа")
	return nil
}
