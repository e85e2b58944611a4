// Copyright 2025 Certen Protocol
//
// Per-chain configuration loader. One YAML block per destination chain,
// loaded with environment variable substitution — adapted from the
// validator's anchor configuration loader.

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML unmarshaling as a Go duration
// string ("30s", "2m").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// ChainConfig is one chain's entry in the chains.yaml file (spec.md §6.4):
// RPC endpoints, contract address, confirmation policy, and the Wormhole
// coordinates used by the VAA service when this chain is the emitter side
// of a redemption.
type ChainConfig struct {
	Name                   string   `yaml:"-"`
	RPC                    string   `yaml:"rpc"`
	RPCBackup              string   `yaml:"rpc_backup"`
	ContractAddress        string   `yaml:"contract_address"`
	RequiredConfirmations  int      `yaml:"required_confirmations"`
	WormholeChainID        uint16   `yaml:"wormhole_chain_id"`
	WormholeEmitterAddress string   `yaml:"wormhole_emitter_address"`
	SupportsWormholeBridge bool     `yaml:"supports_wormhole_bridge"`
	SupportsPastDepositCheck bool   `yaml:"supports_past_deposit_check"`
	PollInterval           Duration `yaml:"poll_interval"`
}

// ChainsFile is the top-level shape of the YAML document: a map of
// chainName to its ChainConfig block.
type ChainsFile struct {
	Chains map[string]*ChainConfig `yaml:"chains"`
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// LoadChainConfigs reads the per-chain configuration file, expanding
// ${VAR_NAME} / ${VAR_NAME:-default} references against the process
// environment before parsing.
func LoadChainConfigs(path string) (map[string]*ChainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain config file %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	var file ChainsFile
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, fmt.Errorf("failed to parse chain config file %s: %w", path, err)
	}

	for name, c := range file.Chains {
		c.Name = name
		if err := validateChainConfig(name, c); err != nil {
			return nil, err
		}
	}
	return file.Chains, nil
}

func validateChainConfig(name string, c *ChainConfig) error {
	var errs []string
	if c.RPC == "" || strings.HasPrefix(c.RPC, "${") {
		errs = append(errs, "rpc is required")
	}
	if c.ContractAddress == "" {
		errs = append(errs, "contract_address is required")
	}
	if c.RequiredConfirmations < 0 {
		errs = append(errs, "required_confirmations must be non-negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("chain %q configuration invalid:\n  - %s", name, strings.Join(errs, "\n  - "))
	}
	return nil
}
