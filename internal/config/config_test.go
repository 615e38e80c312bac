package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condopapers/internal/config"
	"condopapers/internal/status"
)

func TestDefaultMatchesBuiltinPolicies(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	compliance, contracts, err := cfg.Policies()
	require.NoError(t, err)
	assert.Equal(t, status.CompliancePolicy(), compliance)
	assert.Equal(t, status.ContractPolicy(), contracts)
	assert.Equal(t, "pt-BR", cfg.Display.Language)
	assert.Equal(t, "/v0", cfg.Server.BasePath)
}

func TestFromYAMLOverridesOneTableOnly(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
classification:
  contracts:
    bands:
      - state: expired
        max_days: -1
        tier: critical
        label: expired
      - state: expiring
        max_days: 45
        tier: warning
        label: "expires in {days} days"
      - state: active
        tier: valid
        label: active
`))
	require.NoError(t, err)
	compliance, contracts, err := cfg.Policies()
	require.NoError(t, err)
	assert.Equal(t, status.CompliancePolicy(), compliance)
	assert.Equal(t, 45, *contracts.Bands[1].MaxDays)
	assert.Equal(t, "02/01/2006", cfg.Display.DateLayout)
}

func TestFromYAMLRejectsBadTables(t *testing.T) {
	cases := map[string]string{
		"unknown tier": `
classification:
  compliance:
    bands:
      - state: valid
        tier: green
        label: ok
`,
		"bounded last band": `
classification:
  compliance:
    bands:
      - state: valid
        max_days: 10
        tier: valid
        label: ok
`,
		"bad base path": `
server:
  base_path: v0
`,
		"not yaml": `classification: [`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.FromYAML([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.LoadOptional(filepath.Join(dir, "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	path := filepath.Join(dir, "condopapers.yml")
	require.NoError(t, os.WriteFile(path, []byte("display:\n  currency: \"US$\"\n"), 0o644))
	cfg, err = config.LoadOptional(path)
	require.NoError(t, err)
	assert.Equal(t, "US$", cfg.Display.Currency)
	assert.Equal(t, "pt-BR", cfg.Display.Language)
}

func TestGenerateDefaultRoundTrips(t *testing.T) {
	cfg, err := config.FromYAML([]byte(config.GenerateDefault()))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}
