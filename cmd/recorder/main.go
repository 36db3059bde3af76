package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hazadus/go-recorder/internal/capture"
	"github.com/hazadus/go-recorder/internal/config"
	"github.com/hazadus/go-recorder/internal/library"
	"github.com/hazadus/go-recorder/internal/metadata"
	"github.com/hazadus/go-recorder/internal/player"
	"github.com/hazadus/go-recorder/internal/session"
	"github.com/hazadus/go-recorder/internal/storage"
)

const (
	defaultConfigPath = "~/.recorder.yaml"
)

// Application хранит конфигурацию и компоненты, общие для всех команд
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Fs        afero.Fs
	Session   *session.Controller
	Library   *library.Library
	Extractor *metadata.Extractor

	logCloser io.Closer
	unfollow  func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &Application{}
	rootCmd := app.createRootCommand(ctx)

	err := rootCmd.ExecuteContext(ctx)
	app.Close()
	if err != nil {
		fmt.Printf("❌ Ошибка: %v\n", err)
		os.Exit(1)
	}
}

// setup загружает конфигурацию, настраивает логирование и создает компоненты
func (app *Application) setup(configPath string, verbose bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	app.Config = cfg

	logger, closer, err := setupLogging(cfg, verbose)
	if err != nil {
		return err
	}
	app.Logger = logger
	app.logCloser = closer

	app.Fs = afero.NewOsFs()
	platform := capture.NewPlatform(cfg.Recorder, cfg.ClipsDir, logger)
	return app.wire(platform, player.NewLoader(app.Fs, logger))
}

// wire связывает сессию записи и библиотеку клипов
func (app *Application) wire(platform session.Platform, loader library.SoundLoader) error {
	dir := storage.NewDir(app.Fs, app.Config.ClipsDir)
	if err := dir.Ensure(); err != nil {
		return err
	}

	app.Session = session.New(platform, app.Logger)
	app.Library = library.New(dir, loader, app.Logger)
	app.Extractor = metadata.NewExtractor(app.Fs)
	app.unfollow = app.Library.Follow(app.Session)

	app.Logger.Debug("Приложение запущено", "clips_dir", dir.Path(), "backend", app.Config.Recorder.Backend)
	return nil
}

// Close освобождает дескрипторы и закрывает лог
func (app *Application) Close() {
	if app.unfollow != nil {
		app.unfollow()
	}
	if app.Library != nil {
		if err := app.Library.Close(); err != nil {
			app.Logger.Warn("Ошибка закрытия библиотеки", "error", err)
		}
	}
	if app.logCloser != nil {
		app.logCloser.Close()
	}
}

// loadConfig загружает конфигурацию; отсутствующий файл заменяется значениями по умолчанию
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if os.IsNotExist(err) {
		return config.Default(), nil
	}
	return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
}

// setupLogging настраивает slog с записью в ротируемый файл
func setupLogging(cfg *config.Config, verbose bool) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return nil, nil, fmt.Errorf("ошибка создания каталога логов: %w", err)
	}

	writer := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // мегабайты
		MaxBackups: 3,
		MaxAge:     28, // дни
	}

	level := parseLevel(cfg.LogLevel)
	if verbose {
		level = slog.LevelDebug
	}

	// Лог пишется в файл, чтобы не портить экран TUI
	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, writer, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
