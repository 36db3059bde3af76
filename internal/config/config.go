// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const appDirName = "go-recorder"

// Config структура для хранения конфигурации приложения
type Config struct {
	ClipsDir string         `yaml:"clips_dir"`
	LogFile  string         `yaml:"log_file"`
	LogLevel string         `yaml:"log_level"`
	Recorder RecorderConfig `yaml:"recorder"`
}

// RecorderConfig настройки внешнего процесса захвата звука
type RecorderConfig struct {
	Backend     string `yaml:"backend"`      // "auto", "ffmpeg", "arecord"
	Device      string `yaml:"device"`       // устройство захвата
	InputFormat string `yaml:"input_format"` // формат ввода ffmpeg: "pulse", "alsa"
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	config := &Config{}
	config.applyDefaults()
	return config
}

// LoadConfig загружает конфигурацию приложения из указанного файла
func LoadConfig(filePath string) (*Config, error) {
	path, err := ExpandHome(filePath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("ошибка разбора yaml: %w", err)
	}

	config.applyDefaults()
	return config, nil
}

// Save сохраняет конфигурацию в указанный файл
func (c *Config) Save(filePath string) error {
	path, err := ExpandHome(filePath)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("ошибка сериализации конфигурации: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла конфигурации: %w", err)
	}
	return nil
}

// applyDefaults устанавливает значения по умолчанию и раскрывает тильду
func (c *Config) applyDefaults() {
	base := cacheBaseDir()

	if c.ClipsDir == "" {
		c.ClipsDir = filepath.Join(base, appDirName, "Audio")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(base, appDirName, "recorder.log")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Recorder.Backend == "" {
		c.Recorder.Backend = "auto"
	}
	if c.Recorder.Device == "" {
		c.Recorder.Device = "default"
	}
	if c.Recorder.InputFormat == "" {
		c.Recorder.InputFormat = "pulse"
	}

	// Ошибку игнорируем: без домашнего каталога путь остается как есть
	if dir, err := ExpandHome(c.ClipsDir); err == nil {
		c.ClipsDir = dir
	}
	if file, err := ExpandHome(c.LogFile); err == nil {
		c.LogFile = file
	}
}

// ExpandHome раскрывает тильду в начале пути
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return strings.Replace(path, "~", home, 1), nil
}

// cacheBaseDir возвращает каталог кэша пользователя
func cacheBaseDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return os.TempDir()
}
