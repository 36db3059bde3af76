package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hazadus/go-recorder/internal/library"
)

// findClip обновляет список и ищет клип по номеру из 'list', имени или пути
func (app *Application) findClip(ctx context.Context, ref string) (library.Clip, error) {
	if err := app.Library.Refresh(ctx); err != nil {
		return library.Clip{}, err
	}

	if clip, ok := app.Library.Find(ref); ok {
		return clip, nil
	}

	if n, err := strconv.Atoi(ref); err == nil {
		clips := app.Library.Clips()
		if n >= 1 && n <= len(clips) {
			return clips[n-1], nil
		}
	}

	return library.Clip{}, fmt.Errorf("'%s': %w", ref, library.ErrClipNotFound)
}
