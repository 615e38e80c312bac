package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"condopapers/internal/status"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "condopapers.yml"

// Config models condopapers.yml.
type Config struct {
	Classification struct {
		Compliance PolicyConfig `yaml:"compliance" json:"compliance"`
		Contracts  PolicyConfig `yaml:"contracts" json:"contracts"`
	} `yaml:"classification" json:"classification"`
	Display struct {
		Language       string `yaml:"language" json:"language"`
		DateLayout     string `yaml:"date_layout" json:"date_layout"`
		DateTimeLayout string `yaml:"datetime_layout" json:"datetime_layout"`
		Currency       string `yaml:"currency" json:"currency"`
	} `yaml:"display" json:"display"`
	Server struct {
		Addr     string `yaml:"addr" json:"addr"`
		BasePath string `yaml:"base_path" json:"base_path"`
	} `yaml:"server" json:"server"`
}

// PolicyConfig is one threshold table as written in YAML.
type PolicyConfig struct {
	Bands []BandConfig `yaml:"bands" json:"bands"`
}

type BandConfig struct {
	State   string `yaml:"state" json:"state"`
	MaxDays *int   `yaml:"max_days,omitempty" json:"max_days,omitempty"`
	Tier    string `yaml:"tier" json:"tier"`
	Label   string `yaml:"label" json:"label"`
}

// Policy converts the table and validates it.
func (p PolicyConfig) Policy(name string) (status.Policy, error) {
	out := status.Policy{Name: name}
	for _, b := range p.Bands {
		tier, err := status.ParseTier(b.Tier)
		if err != nil {
			return status.Policy{}, fmt.Errorf("%s band %s: %w", name, b.State, err)
		}
		out.Bands = append(out.Bands, status.Band{
			State:   b.State,
			MaxDays: b.MaxDays,
			Tier:    tier,
			Label:   b.Label,
		})
	}
	if err := out.Validate(); err != nil {
		return status.Policy{}, err
	}
	return out, nil
}

// Policies returns the compliance and contract tables.
func (c *Config) Policies() (compliance, contracts status.Policy, err error) {
	compliance, err = c.Classification.Compliance.Policy("compliance")
	if err != nil {
		return compliance, contracts, err
	}
	contracts, err = c.Classification.Contracts.Policy("contracts")
	return compliance, contracts, err
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if len(c.Classification.Compliance.Bands) == 0 {
		return fmt.Errorf("config.classification.compliance.bands is required")
	}
	if len(c.Classification.Contracts.Bands) == 0 {
		return fmt.Errorf("config.classification.contracts.bands is required")
	}
	if _, _, err := c.Policies(); err != nil {
		return fmt.Errorf("config.classification: %w", err)
	}
	if strings.TrimSpace(c.Display.Language) == "" {
		return fmt.Errorf("config.display.language is required")
	}
	if c.Display.DateLayout == "" {
		return fmt.Errorf("config.display.date_layout is required")
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	return nil
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes. Sections left
// out of data keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	merge(cfg, &overlay)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

func merge(dst, src *Config) {
	if len(src.Classification.Compliance.Bands) > 0 {
		dst.Classification.Compliance = src.Classification.Compliance
	}
	if len(src.Classification.Contracts.Bands) > 0 {
		dst.Classification.Contracts = src.Classification.Contracts
	}
	if src.Display.Language != "" {
		dst.Display.Language = src.Display.Language
	}
	if src.Display.DateLayout != "" {
		dst.Display.DateLayout = src.Display.DateLayout
	}
	if src.Display.DateTimeLayout != "" {
		dst.Display.DateTimeLayout = src.Display.DateTimeLayout
	}
	if src.Display.Currency != "" {
		dst.Display.Currency = src.Display.Currency
	}
	if src.Server.Addr != "" {
		dst.Server.Addr = src.Server.Addr
	}
	if src.Server.BasePath != "" {
		dst.Server.BasePath = src.Server.BasePath
	}
}

const defaultTemplate = `classification:
  # Certificates and inspection reports.
  compliance:
    bands:
      - state: expired
        max_days: -1
        tier: critical
        label: "expired {days} days ago"
      - state: critical
        max_days: 15
        tier: critical
        label: "expires in {days} days"
      - state: warning
        max_days: 60
        tier: warning
        label: "expires in {days} days"
      - state: valid
        tier: valid
        label: "valid for {days} days"

  # Supplier contracts.
  contracts:
    bands:
      - state: expired
        max_days: -1
        tier: critical
        label: "expired"
      - state: expiring
        max_days: 30
        tier: warning
        label: "expires in {days} days"
      - state: active
        tier: valid
        label: "active"

display:
  language: pt-BR
  date_layout: "02/01/2006"
  datetime_layout: "02/01/2006, 15:04:05"
  currency: "R$"

server:
  addr: 127.0.0.1:8080
  base_path: /v0
`
