package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LinkConfig selects the transport to the host. Serial wins when both are
// set; with neither the emulator runs without a host.
type LinkConfig struct {
	SerialPort string `json:"serialPort,omitempty"`
	Baud       int    `json:"baud,omitempty"`
	TCPAddr    string `json:"tcpAddr,omitempty"`
	Listen     bool   `json:"listen,omitempty"` // accept instead of dial
}

// SynthOutputConfig defines the synth MIDI output
type SynthOutputConfig struct {
	PortName    string `json:"portName,omitempty"`
	Channel     int    `json:"channel,omitempty"`
	CapturePath string `json:"capturePath,omitempty"` // .mid written on exit
}

// SequencerConfig holds the timing and track layout
type SequencerConfig struct {
	Tempo  int      `json:"tempo,omitempty"`
	BPQ    int      `json:"bpq,omitempty"`
	Tracks []string `json:"tracks,omitempty"` // "Midi" or "Sf2" per track
	// ListenFor subscriptions sent to the host at startup
	ListenFor []string `json:"listenFor,omitempty"`
}

// LogConfig stores debug logging preferences
type LogConfig struct {
	Level string `json:"level,omitempty"`
	File  string `json:"file,omitempty"`
}

// HostConfig is read by the host companion
type HostConfig struct {
	MidiInput string `json:"midiInput,omitempty"`
	OSCListen string `json:"oscListen,omitempty"` // host:port for inbound OSC
	OSCHost   string `json:"oscHost,omitempty"`
	OSCPort   int    `json:"oscPort,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Link        LinkConfig        `json:"link"`
	SynthOutput SynthOutputConfig `json:"synthOutput"`
	Sequencer   SequencerConfig   `json:"sequencer"`
	Log         LogConfig         `json:"log"`
	Host        HostConfig        `json:"host"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Link: LinkConfig{Baud: 115200},
		Sequencer: SequencerConfig{
			Tempo:  120,
			BPQ:    48,
			Tracks: []string{"Midi", "Sf2"},
		},
		Log: LogConfig{Level: "info"},
		Host: HostConfig{
			OSCListen: "127.0.0.1:9001",
			OSCHost:   "127.0.0.1",
			OSCPort:   9000,
		},
	}
}

// Validate checks the values the sequencer can't run without
func (c *Config) Validate() error {
	var errs []error
	if c.Sequencer.BPQ <= 0 || c.Sequencer.BPQ%8 != 0 {
		errs = append(errs, fmt.Errorf("bpq %d must be a positive multiple of 8", c.Sequencer.BPQ))
	}
	if ch := c.SynthOutput.Channel; ch < 0 || ch > 15 {
		errs = append(errs, fmt.Errorf("channel %d out of range 0-15", ch))
	}
	if len(c.Sequencer.Tracks) == 0 {
		errs = append(errs, errors.New("at least one track is required"))
	}
	for i, k := range c.Sequencer.Tracks {
		if k != "Midi" && k != "Sf2" {
			errs = append(errs, fmt.Errorf("track %d: unknown kind %q", i, k))
		}
	}
	return errors.Join(errs...)
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-tracker"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults, so a partial file only overrides
// what it names
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
