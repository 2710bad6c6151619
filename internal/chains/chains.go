package chains

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

type ID int64

const (
	Mainnet        ID = 1
	Goerli         ID = 5
	Optimism       ID = 10
	Polygon        ID = 137
	OptimismGoerli ID = 420
	Arbitrum       ID = 42161
	ArbitrumGoerli ID = 421613
	Sepolia        ID = 11155111
)

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses a decimal chain id as sent by wallets and query strings.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid chain id %q", s)
	}
	return ID(n), nil
}

type NetworkConfig struct {
	ID           ID     `yaml:"id" json:"id"`
	Name         string `yaml:"name" json:"name"`
	ShortName    string `yaml:"shortName" json:"shortName"`
	IsProd       bool   `yaml:"isProd" json:"isProd"`
	Explorer     string `yaml:"explorer" json:"explorer,omitempty"`
	NativeSymbol string `yaml:"nativeSymbol" json:"nativeSymbol,omitempty"`
}

//go:embed networks.yaml
var networksYAML []byte

var registry = mustLoad(networksYAML)

type registryFile struct {
	Networks []NetworkConfig `yaml:"networks"`
}

func load(raw []byte) (map[ID]NetworkConfig, error) {
	var f registryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse networks: %w", err)
	}
	out := make(map[ID]NetworkConfig, len(f.Networks))
	for _, n := range f.Networks {
		if n.ID <= 0 {
			return nil, fmt.Errorf("network %q: missing id", n.Name)
		}
		if _, dup := out[n.ID]; dup {
			return nil, fmt.Errorf("network %d declared twice", n.ID)
		}
		out[n.ID] = n
	}
	return out, nil
}

func mustLoad(raw []byte) map[ID]NetworkConfig {
	m, err := load(raw)
	if err != nil {
		panic(err)
	}
	return m
}

// Lookup returns the registered network for id.
func Lookup(id ID) (NetworkConfig, bool) {
	n, ok := registry[id]
	return n, ok
}

// Get never fails: unknown chains are treated as non-production test networks.
func Get(id ID) NetworkConfig {
	if n, ok := registry[id]; ok {
		return n
	}
	return NetworkConfig{ID: id, Name: "Unknown", ShortName: "unknown"}
}

// All returns every registered network ordered by id.
func All() []NetworkConfig {
	out := make([]NetworkConfig, 0, len(registry))
	for _, n := range registry {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllowsPrecisionLoss reports chains whose deployed deal contracts tolerate a deal token
// with fewer decimals than the investment token.
// TODO: drop once the upgraded deal contracts are live on every network.
func AllowsPrecisionLoss(id ID) bool {
	return id == Mainnet || id == Goerli
}
