package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration resolved from the environment. User
// preferences (API key, language, hotkey, session budget) live in the
// settings package; this covers the knobs a deployment tunes.
type Config struct {
	OpenAI  OpenAIConfig
	Audio   AudioConfig
	Storage StorageConfig
	Session SessionConfig
}

type OpenAIConfig struct {
	APIBaseURL         string
	TranscriptionModel string
	SummaryModel       string
	RequestTimeout     time.Duration
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type StorageConfig struct {
	DataDir          string
	RecordingMaxAge  time.Duration
	CleanupOnStartup bool
}

type SessionConfig struct {
	ChunkSize    int
	TickInterval time.Duration
}

// Load resolves configuration from environment variables and sensible defaults.
func Load() (Config, error) {
	dataDir := strings.TrimSpace(os.Getenv("EVERVOICE_DATA_DIR"))
	if dataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Config{}, errors.New("could not determine user config directory")
		}
		dataDir = filepath.Join(base, "evervoice")
	}

	cfg := Config{
		OpenAI: OpenAIConfig{
			APIBaseURL:         envOrDefault("EVERVOICE_OPENAI_API_BASE", "https://api.openai.com/v1"),
			TranscriptionModel: envOrDefault("EVERVOICE_TRANSCRIPTION_MODEL", "whisper-1"),
			SummaryModel:       envOrDefault("EVERVOICE_SUMMARY_MODEL", "gpt-4o-mini"),
			RequestTimeout:     time.Duration(envOrDefaultInt("EVERVOICE_REQUEST_TIMEOUT_S", 120)) * time.Second,
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("EVERVOICE_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("EVERVOICE_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("EVERVOICE_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("EVERVOICE_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("EVERVOICE_CHANNELS", 1),
		},
		Storage: StorageConfig{
			DataDir:          dataDir,
			RecordingMaxAge:  time.Duration(envOrDefaultInt("EVERVOICE_RECORDING_MAX_AGE_DAYS", 30)) * 24 * time.Hour,
			CleanupOnStartup: envOrDefaultBool("EVERVOICE_CLEANUP_ON_STARTUP", true),
		},
		Session: SessionConfig{
			ChunkSize:    envOrDefaultInt("EVERVOICE_AUDIO_CHUNK_SIZE", 4096),
			TickInterval: time.Duration(envOrDefaultInt("EVERVOICE_TICK_INTERVAL_MS", 1000)) * time.Millisecond,
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Session.ChunkSize < 256 {
		cfg.Session.ChunkSize = 4096
	}
	if cfg.Session.TickInterval <= 0 {
		cfg.Session.TickInterval = time.Second
	}
	if cfg.OpenAI.RequestTimeout <= 0 {
		cfg.OpenAI.RequestTimeout = 120 * time.Second
	}

	return cfg, nil
}

// RecordingsDir is where captured audio payloads are stored.
func (c Config) RecordingsDir() string {
	return filepath.Join(c.Storage.DataDir, "recordings")
}

// HistoryDir is where the history database lives.
func (c Config) HistoryDir() string {
	return filepath.Join(c.Storage.DataDir, "history")
}

// SettingsPath is the user settings file location.
func (c Config) SettingsPath() string {
	return filepath.Join(c.Storage.DataDir, "settings.json")
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
