package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-recorder/internal/library"
)

// createDeleteCommand создает команду delete с привязкой к экземпляру приложения
func (app *Application) createDeleteCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [clip]",
		Short: "Delete a clip",
		Long:  `Delete a clip file from the clips directory by its number from 'list', file name or path.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.deleteClip(ctx, args[0])
		},
	}
}

func (app *Application) deleteClip(ctx context.Context, ref string) error {
	clip, err := app.findClip(ctx, ref)
	if errors.Is(err, library.ErrClipNotFound) {
		fmt.Printf("ℹ️  Клип '%s' не найден, удалять нечего\n", ref)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("🗑️  Удаляем клип: %s\n", clip.Name)

	err = app.Library.Delete(ctx, clip.URI)
	if errors.Is(err, library.ErrClipNotFound) {
		fmt.Println("ℹ️  Клип уже удален")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println("✅ Клип успешно удален")
	return nil
}
