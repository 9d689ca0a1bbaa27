package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/imgauge/internal/export"
	"github.com/danmuck/imgauge/internal/monitor"
	"github.com/danmuck/imgauge/internal/source"
)

type Config struct {
	VerifyChecksum bool
	PollInterval   time.Duration
	Format         export.Format
	JournalPath    string
	MetricsAddr    string
	CORSOrigins    []string
	Serial         source.SerialConfig
}

func DefaultConfig() Config {
	return Config{
		PollInterval: monitor.DefaultInterval,
		Format:       export.FormatJSON,
		CORSOrigins:  []string{},
		Serial: source.SerialConfig{
			BaudRate:    source.DefaultBaudRate,
			ReadTimeout: source.DefaultReadTimeout,
		},
	}
}

type fileConfig struct {
	VerifyChecksum bool     `toml:"verify_checksum"`
	PollInterval   string   `toml:"poll_interval"`
	Format         string   `toml:"format"`
	JournalPath    string   `toml:"journal_path"`
	MetricsAddr    string   `toml:"metrics_addr"`
	CORSOrigins    []string `toml:"cors_origins"`
	Serial         struct {
		Port        string `toml:"port"`
		BaudRate    int    `toml:"baud_rate"`
		ReadTimeout string `toml:"read_timeout"`
	} `toml:"serial"`
}

func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load imgauge config: %w", err)
	}

	if meta.IsDefined("verify_checksum") {
		cfg.VerifyChecksum = raw.VerifyChecksum
	}

	if meta.IsDefined("poll_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.PollInterval))
		if err != nil {
			return Config{}, fmt.Errorf("parse poll_interval: %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("parse poll_interval: must be positive, got %s", d)
		}
		cfg.PollInterval = d
	}

	if meta.IsDefined("format") {
		f, err := export.ParseFormat(raw.Format)
		if err != nil {
			return Config{}, fmt.Errorf("parse format: %w", err)
		}
		cfg.Format = f
	}

	if meta.IsDefined("journal_path") {
		cfg.JournalPath = strings.TrimSpace(raw.JournalPath)
	}

	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	if meta.IsDefined("cors_origins") {
		cfg.CORSOrigins = normalizeOrigins(raw.CORSOrigins)
	}

	if meta.IsDefined("serial", "port") {
		cfg.Serial.Port = strings.TrimSpace(raw.Serial.Port)
	}

	if meta.IsDefined("serial", "baud_rate") {
		if raw.Serial.BaudRate <= 0 {
			return Config{}, fmt.Errorf("parse serial.baud_rate: must be positive, got %d", raw.Serial.BaudRate)
		}
		cfg.Serial.BaudRate = raw.Serial.BaudRate
	}

	if meta.IsDefined("serial", "read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Serial.ReadTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse serial.read_timeout: %w", err)
		}
		cfg.Serial.ReadTimeout = d
	}

	return cfg, nil
}

func normalizeOrigins(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
