package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/musicstore/store-contract-tests/client"
	"github.com/musicstore/store-contract-tests/servicedef"
	"github.com/musicstore/store-contract-tests/storetests"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullYAML = `baseUrl: http://localhost:8080
timeout: 10s
retries: 2
credentials:
  username: someone
  password: secret
  email: someone@example.com
scenarios:
  order-receipt:
    endpointSet: customer
    endpoints:
      orderHistory: /api/v2/orders
  multiple-checkout:
    credentials:
      username: other
      password: pw
`

func writeFile(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "store-tests.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeFile(t, fullYAML))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.Retries)
	require.NotNil(t, cfg.Credentials)
	assert.Equal(t, "someone", cfg.Credentials.Username)
	assert.Equal(t, []string{"multiple-checkout", "order-receipt"}, cfg.ScenarioNamesConfigured())
	assert.Equal(t, "customer", cfg.Scenarios["order-receipt"].EndpointSet)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name     string
		contents string
		parse    bool
		contains string
	}{
		{"malformed yaml", "baseUrl: [1, 2\n", true, "config"},
		{"unknown field", "baseUrl: http://x\nbogus: 1\n", true, "bogus"},
		{"wrong type", "retries: lots\n", true, "cannot unmarshal"},
		{"bad url", "baseUrl: not a url\n", false, "baseUrl"},
		{"negative retries", "retries: -1\n", false, "retries"},
		{"negative timeout", "timeout: -5s\n", false, "timeout"},
		{"missing password", "credentials:\n  username: u\n", false, "credentials.password is required"},
		{"bad email", "credentials:\n  username: u\n  password: p\n  email: nope\n", false, "email"},
		{"unknown endpoint set", "scenarios:\n  order-receipt:\n    endpointSet: beta\n", false, "must be one of [legacy customer]"},
		{"unknown scenario", "scenarios:\n  browse-only: {}\n", false, "scenarios.browse-only: no such scenario"},
		{"relative endpoint", "scenarios:\n  order-receipt:\n    endpoints:\n      cart: api/cart\n", false, "cart"},
		{"cart add without placeholder", "scenarios:\n  order-receipt:\n    endpoints:\n      cartAdd: /add\n", false, "cartAdd"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.contents))
			require.Error(t, err)
			if c.parse {
				var pe *ParseError
				require.ErrorAs(t, err, &pe)
			} else {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
			}
			assert.Contains(t, err.Error(), c.contains)
		})
	}
}

func TestParseErrorHasLineNumber(t *testing.T) {
	_, err := Load(writeFile(t, "baseUrl: http://x\nretries: lots\n"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
	assert.Contains(t, err.Error(), "store-tests.yaml:2")
}

func TestEmptyDocumentIsValid(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.True(t, os.IsNotExist(pe.Err))
}

func TestScenarioParams(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	require.NoError(t, err)
	c, err := client.New("http://store.test", client.Options{})
	require.NoError(t, err)

	t.Run("endpoint set and overrides", func(t *testing.T) {
		params, err := cfg.ScenarioParams("order-receipt", c)
		require.NoError(t, err)
		require.NotNil(t, params.Endpoints)
		assert.Equal(t, storetests.CustomerCartEndpoints.Cart, params.Endpoints.Cart)
		assert.Equal(t, "/api/v2/orders", params.Endpoints.OrderHistory)
		assert.Same(t, c, params.Client)
	})

	t.Run("top-level credentials", func(t *testing.T) {
		params, err := cfg.ScenarioParams("order-receipt", c)
		require.NoError(t, err)
		assert.Equal(t, servicedef.Credentials{
			Username: "someone", Password: "secret", Email: "someone@example.com", Role: servicedef.RoleCustomer,
		}, params.Credentials)
	})

	t.Run("scenario credentials win", func(t *testing.T) {
		params, err := cfg.ScenarioParams("multiple-checkout", c)
		require.NoError(t, err)
		assert.Equal(t, "other", params.Credentials.Username)
		assert.Equal(t, storetests.CustomerCartEndpoints, *params.Endpoints)
	})

	t.Run("no configuration keeps scenario defaults", func(t *testing.T) {
		params, err := Config{}.ScenarioParams("order-receipt", c)
		require.NoError(t, err)
		assert.Equal(t, storetests.LegacyCartEndpoints, *params.Endpoints)
		assert.Empty(t, params.Credentials.Username)
	})

	t.Run("unknown scenario", func(t *testing.T) {
		_, err := Config{}.ScenarioParams("nope", c)
		assert.ErrorIs(t, err, storetests.ErrUnknownScenario)
	})
}
