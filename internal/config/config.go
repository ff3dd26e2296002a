package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config holds application configuration
type Config struct {
	Hotkey         HotkeyConfig `json:"hotkey"`
	RecordingMode  string       `json:"recording_mode"` // "press-to-hold" or "toggle"
	AudioDeviceID  int          `json:"audio_device_id"`
	SampleRate     int          `json:"sample_rate"`
	Channels       int          `json:"channels"`
	MaxRecordTime  int          `json:"max_record_time"` // seconds; sets the capture buffer capacity
	ModelPath      string       `json:"model_path"`
	Language       string       `json:"language"` // "auto" for automatic detection, or specific language code
	PasteSplitSize int          `json:"paste_split_size"` // characters
	ChatPrefixKey  string       `json:"chat_prefix_key"` // key tapped before pasting (e.g. "t" for game chat), "" to disable
	AutoSend       bool         `json:"auto_send"` // press Enter after pasting
	mu             sync.RWMutex
}

// HotkeyConfig holds hotkey configuration
type HotkeyConfig struct {
	Ctrl  bool   `json:"ctrl"`
	Shift bool   `json:"shift"`
	Alt   bool   `json:"alt"`
	Cmd   bool   `json:"cmd"`
	Key   string `json:"key"` // e.g., "Space"
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Hotkey: HotkeyConfig{
			Ctrl: true,
			Alt:  true,
			Key:  "Space",
		},
		RecordingMode:  "press-to-hold",
		AudioDeviceID:  -1, // -1 means use system default device
		SampleRate:     16000,
		Channels:       1,
		MaxRecordTime:  30,
		ModelPath:      "", // Empty by default - user must specify
		Language:       "auto",
		PasteSplitSize: 500,
		ChatPrefixKey:  "",
		AutoSend:       false,
	}
}

// Load loads configuration from the specified path
func Load(path string) (*Config, error) {
	// If file doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Fill in values the file left empty
	if config.Hotkey.Key == "" {
		config.Hotkey.Key = "Space"
	}
	if config.SampleRate == 0 {
		config.SampleRate = 16000
	}
	if config.Channels == 0 {
		config.Channels = 1
	}

	return config, nil
}

// Save saves configuration to the specified path
func (c *Config) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, "Library", "Application Support", "VoxKey", "config.json")
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Config{
		Hotkey:         c.Hotkey,
		RecordingMode:  c.RecordingMode,
		AudioDeviceID:  c.AudioDeviceID,
		SampleRate:     c.SampleRate,
		Channels:       c.Channels,
		MaxRecordTime:  c.MaxRecordTime,
		ModelPath:      c.ModelPath,
		Language:       c.Language,
		PasteSplitSize: c.PasteSplitSize,
		ChatPrefixKey:  c.ChatPrefixKey,
		AutoSend:       c.AutoSend,
	}
}

// ExpandPath expands ~ to home directory in file paths
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, path[2:]), nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	return absPath, nil
}

// GetModelPath returns the expanded model path
func (c *Config) GetModelPath() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return ExpandPath(c.ModelPath)
}

// IsValidModelExtension checks if the file has a valid Whisper model extension
func IsValidModelExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".bin" || ext == ".gguf"
}

// ValidateModelPath validates the model file path
func (c *Config) ValidateModelPath() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.ModelPath == "" {
		return fmt.Errorf("model path is not set")
	}

	expandedPath, err := ExpandPath(c.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to expand model path: %w", err)
	}

	info, err := os.Stat(expandedPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", expandedPath)
	}
	if err != nil {
		return fmt.Errorf("failed to check model file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("model path is a directory, not a file: %s", expandedPath)
	}

	if !IsValidModelExtension(expandedPath) {
		return fmt.Errorf("model file must have .bin or .gguf extension: %s", expandedPath)
	}

	return nil
}

// Validate validates all configuration fields
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.RecordingMode != "press-to-hold" && c.RecordingMode != "toggle" {
		return fmt.Errorf("invalid recording_mode: %s (must be 'press-to-hold' or 'toggle')", c.RecordingMode)
	}

	if c.SampleRate < 8000 || c.SampleRate > 48000 {
		return fmt.Errorf("invalid sample_rate: %d (must be between 8000 and 48000)", c.SampleRate)
	}

	if c.Channels != 1 {
		return fmt.Errorf("invalid channels: %d (only mono capture is supported)", c.Channels)
	}

	if c.MaxRecordTime <= 0 || c.MaxRecordTime > 300 {
		return fmt.Errorf("invalid max_record_time: %d (must be between 1 and 300 seconds)", c.MaxRecordTime)
	}

	if c.Language == "" {
		return fmt.Errorf("language cannot be empty")
	}

	if c.PasteSplitSize <= 0 || c.PasteSplitSize > 10000 {
		return fmt.Errorf("invalid paste_split_size: %d (must be between 1 and 10000 characters)", c.PasteSplitSize)
	}

	if len(c.ChatPrefixKey) > 1 {
		return fmt.Errorf("invalid chat_prefix_key: %q (must be a single key or empty)", c.ChatPrefixKey)
	}

	// Model path validation is optional (can be empty for first run);
	// use ValidateModelPath() separately when a model is required

	return nil
}
