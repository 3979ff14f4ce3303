package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	SampleRate int
	WindowMs   int

	DefaultModel string
	Language     string
	Device       string

	SidecarURL         string
	SidecarLoadTimeout time.Duration
	TranscribeTimeout  time.Duration

	FFmpegPath  string
	FFprobePath string
}

// fileConfig mirrors the optional YAML overlay. Only fields present in the
// file override the environment-derived values.
type fileConfig struct {
	ServerAddr string `yaml:"server_addr"`
	LogLevel   string `yaml:"log_level"`

	SampleRate int `yaml:"sample_rate"`
	WindowMs   int `yaml:"window_ms"`

	DefaultModel string `yaml:"default_model"`
	Language     string `yaml:"language"`
	Device       string `yaml:"device"`

	SidecarURL         string `yaml:"sidecar_url"`
	SidecarLoadTimeout int    `yaml:"sidecar_load_timeout_sec"`
	TranscribeTimeout  int    `yaml:"transcribe_timeout_sec"`

	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8000"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		SampleRate: getEnvInt("SAMPLE_RATE", 16000),
		WindowMs:   getEnvInt("WINDOW_MS", 5000),

		DefaultModel: getEnv("DEFAULT_MODEL", "small"),
		Language:     getEnv("LANGUAGE", "en"),
		Device:       getEnv("DEVICE", "auto"),

		SidecarURL:         getEnv("SIDECAR_URL", ""),
		SidecarLoadTimeout: time.Duration(getEnvInt("SIDECAR_LOAD_TIMEOUT_SEC", 120)) * time.Second,
		TranscribeTimeout:  time.Duration(getEnvInt("TRANSCRIBE_TIMEOUT_SEC", 60)) * time.Second,

		FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: getEnv("FFPROBE_PATH", "ffprobe"),
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	if fc.ServerAddr != "" {
		cfg.ServerAddr = fc.ServerAddr
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.SampleRate > 0 {
		cfg.SampleRate = fc.SampleRate
	}
	if fc.WindowMs > 0 {
		cfg.WindowMs = fc.WindowMs
	}
	if fc.DefaultModel != "" {
		cfg.DefaultModel = fc.DefaultModel
	}
	if fc.Language != "" {
		cfg.Language = fc.Language
	}
	if fc.Device != "" {
		cfg.Device = fc.Device
	}
	if fc.SidecarURL != "" {
		cfg.SidecarURL = fc.SidecarURL
	}
	if fc.SidecarLoadTimeout > 0 {
		cfg.SidecarLoadTimeout = time.Duration(fc.SidecarLoadTimeout) * time.Second
	}
	if fc.TranscribeTimeout > 0 {
		cfg.TranscribeTimeout = time.Duration(fc.TranscribeTimeout) * time.Second
	}
	if fc.FFmpegPath != "" {
		cfg.FFmpegPath = fc.FFmpegPath
	}
	if fc.FFprobePath != "" {
		cfg.FFprobePath = fc.FFprobePath
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
