package config

import (
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultMarkets is the route label whitelist used when none is configured.
var DefaultMarkets = []string{
	"orca (whirlpools)",
	"orca",
	"raydium",
	"raydiumv2",
	"saber",
	"orca (whirlpools) (95%) + raydium (5%)",
	"raydium (95%) + orca (5%)",
	"orca (whirlpools) (85%) + orca (15%)",
	"orca (95%) + raydium (5%)",
	"cykura",
}

type RouteConfig struct {
	Markets struct {
		Whitelist []string `yaml:"whitelist"`
		Blacklist []string `yaml:"blacklist"`
	} `yaml:"markets"`
	Slippage     string            `yaml:"slippage"`
	PlatformFee  string            `yaml:"platform_fee"`
	Replacements map[string]string `yaml:"replacements"`
	Pairs        []PairConfig      `yaml:"pairs"`
}

// PairConfig is a pair kept warm in the route cache.
type PairConfig struct {
	Input    string  `yaml:"input"`
	Output   string  `yaml:"output"`
	UIAmount float64 `yaml:"ui_amount"`
}

func DefaultRouteConfig() *RouteConfig {
	cfg := &RouteConfig{Slippage: "10bip"}
	cfg.Markets.Whitelist = append([]string(nil), DefaultMarkets...)
	return cfg
}

func LoadRouteConfig(path string) (*RouteConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read route config")
	}

	cfg := DefaultRouteConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse route config %s", path)
	}
	if len(cfg.Markets.Whitelist) == 0 {
		cfg.Markets.Whitelist = append([]string(nil), DefaultMarkets...)
	}
	return cfg, nil
}

// ReplacementMap parses the configured account substitutions.
func (c *RouteConfig) ReplacementMap() (map[solana.PublicKey]solana.PublicKey, error) {
	out := make(map[solana.PublicKey]solana.PublicKey, len(c.Replacements))
	for from, to := range c.Replacements {
		fromKey, err := solana.PublicKeyFromBase58(from)
		if err != nil {
			return nil, errors.Wrapf(err, "replacement key %s", from)
		}
		toKey, err := solana.PublicKeyFromBase58(to)
		if err != nil {
			return nil, errors.Wrapf(err, "replacement value %s", to)
		}
		out[fromKey] = toKey
	}
	return out, nil
}
