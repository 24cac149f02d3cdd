package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"design-room/internal/designroom/layout"
	"design-room/internal/designroom/models"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int

	DBPath        string
	ExportDir     string
	DesignRoomURL string
	ConfigFile    string

	Canvas Canvas
}

// Canvas: настройки холста, раскладки и загрузки картинок.
// Ключи раскладки лежат на том же уровне, что и остальные.
type Canvas struct {
	MinZoom      float64 `yaml:"min_zoom"`
	MaxZoom      float64 `yaml:"max_zoom"`
	ZoomStep     float64 `yaml:"zoom_step"`
	MinShapeSize float64 `yaml:"min_shape_size"`

	layout.Options `yaml:",inline"`

	// стиль новых объектов
	Style models.Style `yaml:"style"`

	BitmapTimeout     time.Duration `yaml:"bitmap_timeout"`
	BitmapConcurrency int           `yaml:"bitmap_concurrency"`

	RenderWidth  int `yaml:"render_width"`
	RenderHeight int `yaml:"render_height"`
}

func DefaultCanvas() Canvas {
	return Canvas{
		MinZoom:           0.1,
		MaxZoom:           8,
		ZoomStep:          1.1,
		MinShapeSize:      5,
		Options:           layout.DefaultOptions(),
		Style:             models.DefaultStyle(),
		BitmapTimeout:     15 * time.Second,
		BitmapConcurrency: 4,
		RenderWidth:       1280,
		RenderHeight:      800,
	}
}

type fileConfig struct {
	Canvas Canvas `yaml:"canvas"`
}

// Load загружает конфигурацию: переменные окружения, затем YAML-файл
// с настройками холста, затем флаги командной строки.
func Load() *Config {
	cfg, err := LoadArgs(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func LoadArgs(args []string) (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "3000"),
		Environment:   getEnv("ENV", "development"),
		ReadTimeout:   getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout:  getEnvAsInt("WRITE_TIMEOUT", 10),
		DBPath:        getEnv("DESIGNROOM_DB_PATH", "data/db/design-room.db"),
		ExportDir:     getEnv("DESIGNROOM_EXPORT_DIR", "data/exports"),
		DesignRoomURL: getEnv("DESIGNROOM_URL", "http://localhost:3003"),
		ConfigFile:    getEnv("DESIGNROOM_CONFIG", ""),
		Canvas:        DefaultCanvas(),
	}

	var canvas Canvas
	flagSet := pflag.NewFlagSet("design-room", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Port, "port", cfg.Port, "listen port")
	flagSet.StringVar(&cfg.Environment, "env", cfg.Environment, "environment name")
	flagSet.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	flagSet.StringVar(&cfg.ExportDir, "export-dir", cfg.ExportDir, "directory for scene exports")
	flagSet.StringVar(&cfg.DesignRoomURL, "designroom-url", cfg.DesignRoomURL, "design-room service URL (gateway)")
	flagSet.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML file with canvas settings")
	flagSet.Float64Var(&canvas.MinZoom, "min-zoom", 0, "minimum zoom")
	flagSet.Float64Var(&canvas.MaxZoom, "max-zoom", 0, "maximum zoom")
	flagSet.Float64Var(&canvas.ZoomStep, "zoom-step", 0, "zoom factor per wheel step")
	flagSet.Float64Var(&canvas.MinShapeSize, "min-shape-size", 0, "smallest shape a gesture may create")
	flagSet.DurationVar(&canvas.BitmapTimeout, "bitmap-timeout", 0, "timeout of one image fetch")
	flagSet.IntVar(&canvas.BitmapConcurrency, "bitmap-concurrency", 0, "parallel image fetches on scene load")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}

	if cfg.ConfigFile != "" {
		if err := cfg.loadFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	// флаги перекрывают файл
	if flagSet.Changed("min-zoom") {
		cfg.Canvas.MinZoom = canvas.MinZoom
	}
	if flagSet.Changed("max-zoom") {
		cfg.Canvas.MaxZoom = canvas.MaxZoom
	}
	if flagSet.Changed("zoom-step") {
		cfg.Canvas.ZoomStep = canvas.ZoomStep
	}
	if flagSet.Changed("min-shape-size") {
		cfg.Canvas.MinShapeSize = canvas.MinShapeSize
	}
	if flagSet.Changed("bitmap-timeout") {
		cfg.Canvas.BitmapTimeout = canvas.BitmapTimeout
	}
	if flagSet.Changed("bitmap-concurrency") {
		cfg.Canvas.BitmapConcurrency = canvas.BitmapConcurrency
	}

	if err := cfg.Canvas.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile накладывает YAML поверх текущих значений: отсутствующие
// в файле ключи сохраняют умолчания.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	file := fileConfig{Canvas: c.Canvas}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.Canvas = file.Canvas
	return nil
}

func (c Canvas) Validate() error {
	switch {
	case c.MinZoom <= 0 || c.MaxZoom < c.MinZoom:
		return fmt.Errorf("canvas: invalid zoom range [%v, %v]", c.MinZoom, c.MaxZoom)
	case c.ZoomStep <= 1:
		return fmt.Errorf("canvas: zoom_step must be > 1, got %v", c.ZoomStep)
	case c.MinShapeSize < 0 || c.HeaderHeight < 0:
		return fmt.Errorf("canvas: negative min_shape_size or header_height")
	case c.NominalItemWidth <= 0 || c.ItemAspect <= 0:
		return fmt.Errorf("canvas: nominal_item_width and item_aspect must be positive")
	case c.RowMaxItemHeight <= 0 || c.ColumnMaxItemHeight <= 0:
		return fmt.Errorf("canvas: item height caps must be positive")
	case c.BitmapConcurrency < 1:
		return fmt.Errorf("canvas: bitmap_concurrency must be >= 1")
	case c.RenderWidth <= 0 || c.RenderHeight <= 0:
		return fmt.Errorf("canvas: render size must be positive")
	}
	if err := c.Style.Validate(); err != nil {
		return fmt.Errorf("canvas: style: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
