package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileMissingGivesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sequencer.BPQ != 48 || cfg.Sequencer.Tempo != 120 {
		t.Fatalf("defaults not applied: %+v", cfg.Sequencer)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"sequencer":{"tempo":90}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sequencer.Tempo != 90 || cfg.Sequencer.BPQ != 48 || cfg.Link.Baud != 115200 {
		t.Fatalf("got %+v", cfg)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Sequencer.ListenFor = []string{"/filter"}
	cfg.SynthOutput.PortName = "FluidSynth"
	if err := cfg.SaveFile(path); err != nil {
		t.Fatal(err)
	}
	back, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.SynthOutput.PortName != "FluidSynth" || len(back.Sequencer.ListenFor) != 1 {
		t.Fatalf("got %+v", back)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bpq not multiple of 8", func(c *Config) { c.Sequencer.BPQ = 12 }, false},
		{"channel too high", func(c *Config) { c.SynthOutput.Channel = 16 }, false},
		{"unknown kind", func(c *Config) { c.Sequencer.Tracks = []string{"Drum"} }, false},
		{"no tracks", func(c *Config) { c.Sequencer.Tracks = nil }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
