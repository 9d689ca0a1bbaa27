package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

const defaultConfigPath = "imgauge.toml"

const configTemplate = `verify_checksum = false
poll_interval = "250ms"
format = "json"
journal_path = "captures/imgauge.cbor"
metrics_addr = "127.0.0.1:9120"
cors_origins = ["http://localhost:3000"]

[serial]
port = "/dev/ttyUSB0"
baud_rate = 9600
read_timeout = "250ms"
`

func writeTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(configTemplate), 0o600)
}

func runConfig(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	output := fs.String("output", defaultConfigPath, "output path for config template")
	validate := fs.Bool("validate", false, "validate an existing config file")
	input := fs.String("input", defaultConfigPath, "config path for validation")
	force := fs.Bool("force", false, "overwrite existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *validate {
		if _, err := loadConfig(*input); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "validated config at %s\n", *input)
		return nil
	}

	if err := writeTemplate(*output, *force); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote config template to %s\n", *output)
	return nil
}
