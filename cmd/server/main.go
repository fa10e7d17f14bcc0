package main

import (
	"fmt"
	"os"

	"posekit/internal/config"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "posekit",
	Short: "PoseKit API Server",
	Long:  "PoseKit хранит каталог поз, строит варианты скелета и конвертирует позы в формат OpenPose.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "путь к YAML файлу конфигурации")
}

func main() {
	// .env необязателен
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup загружает конфигурацию и настраивает логгер
func setup() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logger.Warnf("Неизвестный уровень логирования %q, используется info", cfg.Logging.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return cfg, logger, nil
}
