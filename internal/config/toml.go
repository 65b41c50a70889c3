package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	MIDI     MIDIConfig     `toml:"midi"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Mode      *string  `toml:"mode"`
	Velocity  *int     `toml:"velocity"`
	TempoBPM  *float64 `toml:"tempo"`
	FocusWeak *bool    `toml:"focus-weak"`
	WeakTop   *int     `toml:"weak-top"`
}

// MIDIConfig maps MIDI port selection settings. Port names are matched
// by substring, case-insensitively.
type MIDIConfig struct {
	InputPort    *string  `toml:"input-port"`
	OutputPort   *string  `toml:"output-port"`
	ExcludePorts []string `toml:"exclude-ports"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
