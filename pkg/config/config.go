// Package config loads the controller configuration: device endpoint,
// session identity, pipeline artifact paths and the policy knobs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sparknet/synwatch/pkg/policy"
)

// ElectionID is the 128-bit token asserting this client's right to mutate
// device state.
type ElectionID struct {
	High uint64 `yaml:"high"`
	Low  uint64 `yaml:"low"`
}

type Policy struct {
	SynMask      uint64 `yaml:"syn_mask"`
	SynPriority  int32  `yaml:"syn_priority"`
	DropPriority int32  `yaml:"drop_priority"`
}

type Config struct {
	Addr       string     `yaml:"addr"`
	DeviceID   uint64     `yaml:"device_id"`
	ElectionID ElectionID `yaml:"election_id"`
	BinPath    string     `yaml:"bin"`
	P4InfoPath string     `yaml:"p4info"`
	Policy     Policy     `yaml:"policy"`
}

// Default returns the configuration matching the reference deployment: a
// local software switch and the stock SYN policy.
func Default() *Config {
	return &Config{
		Addr:       "127.0.0.1:50051",
		DeviceID:   0,
		ElectionID: ElectionID{High: 1, Low: 0},
		Policy: Policy{
			SynMask:      policy.SynFlagMask,
			SynPriority:  policy.SynEntryPriority,
			DropPriority: policy.DefaultDropPriority,
		},
	}
}

// Load reads a YAML configuration file on top of the defaults and validates
// it.
func Load(path string) (*Config, error) {
	configFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config := Default()
	if err := yaml.Unmarshal(configFile, config); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("device address must not be empty")
	}
	if c.BinPath == "" {
		return fmt.Errorf("path to compiled P4 binary must be set")
	}
	if c.P4InfoPath == "" {
		return fmt.Errorf("path to P4Info text file must be set")
	}
	if c.Policy.SynMask == 0 {
		return fmt.Errorf("SYN mask must not be zero, a zero mask matches nothing specific")
	}
	if c.Policy.SynPriority <= c.Policy.DropPriority {
		return fmt.Errorf("SYN entry priority %d must be strictly greater than drop entry priority %d",
			c.Policy.SynPriority, c.Policy.DropPriority)
	}
	return nil
}
