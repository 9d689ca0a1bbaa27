package main

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestConfigTemplateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imgauge.toml")
	var out bytes.Buffer
	if err := run([]string{"config", "-output", path}, nil, &out); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := run([]string{"config", "-output", path}, nil, &out); err == nil {
		t.Fatalf("expected refusal to overwrite without -force")
	}
	if err := run([]string{"config", "-output", path, "-force"}, nil, &out); err != nil {
		t.Fatalf("overwrite template: %v", err)
	}
	if err := run([]string{"config", "-validate", "-input", path}, nil, &out); err != nil {
		t.Fatalf("validate template: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.Serial.Port != "/dev/ttyUSB0" || cfg.MetricsAddr != "127.0.0.1:9120" {
		t.Fatalf("unexpected template values: %+v", cfg)
	}
}
