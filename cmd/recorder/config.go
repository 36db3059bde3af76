package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-recorder/internal/config"
)

// createConfigCommand создает команду config с подкомандой init
func (app *Application) createConfigCommand(configPath *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration file",
		// Компоненты приложения для работы с конфигом не нужны
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write default configuration file",
		Long:  `Write a configuration file with default values to the --config path.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return writeDefaultConfig(*configPath, force)
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing config file")

	configCmd.AddCommand(initCmd)
	return configCmd
}

func writeDefaultConfig(path string, force bool) error {
	expanded, err := config.ExpandHome(path)
	if err != nil {
		return err
	}

	if _, err := os.Stat(expanded); err == nil && !force {
		return fmt.Errorf("файл %s уже существует, используйте --force для перезаписи", expanded)
	}

	if err := config.Default().Save(expanded); err != nil {
		return err
	}

	fmt.Printf("✅ Конфигурация сохранена: %s\n", expanded)
	return nil
}
