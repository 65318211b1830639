package main

import (
	"errors"
	"fmt"

	"github.com/aixgo-dev/amas"
	"github.com/aixgo-dev/amas/internal/demo"
)

// cliConfig is the file read by the amas command: the library sections plus
// the demo section.
type cliConfig struct {
	amas.Config `yaml:",inline"`
	Demo        demo.Config `yaml:"demo"`
}

func defaultCLIConfig() *cliConfig {
	return &cliConfig{
		Config: *amas.DefaultConfig(),
		Demo:   demo.DefaultConfig(),
	}
}

// Validate checks the library sections and the demo section.
func (c *cliConfig) Validate() error {
	err := c.Config.Validate()
	if derr := c.Demo.Validate(); derr != nil {
		err = errors.Join(err, fmt.Errorf("%w: %w", amas.ErrInvalidConfig, derr))
	}
	return err
}

func loadCLIConfig(path string) (*cliConfig, error) {
	cfg := defaultCLIConfig()
	if err := amas.NewConfigLoader(&amas.OSFileReader{}).LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
