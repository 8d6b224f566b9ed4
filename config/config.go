// Package config loads the optional YAML file that customizes a test run: the service URL,
// network settings, accounts, and the endpoint set each scenario uses.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/musicstore/store-contract-tests/client"
	"github.com/musicstore/store-contract-tests/servicedef"
	"github.com/musicstore/store-contract-tests/storetests"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

type Config struct {
	BaseURL     string                    `yaml:"baseUrl" validate:"omitempty,url"`
	Timeout     time.Duration             `yaml:"timeout" validate:"gte=0"`
	Retries     int                       `yaml:"retries" validate:"gte=0"`
	Credentials *Credentials              `yaml:"credentials" validate:"omitempty"`
	Scenarios   map[string]ScenarioConfig `yaml:"scenarios" validate:"omitempty,dive"`
}

type Credentials struct {
	Username  string `yaml:"username" validate:"required"`
	Password  string `yaml:"password" validate:"required"`
	Email     string `yaml:"email" validate:"omitempty,email"`
	FirstName string `yaml:"firstName"`
	LastName  string `yaml:"lastName"`
}

// ScenarioConfig customizes one scenario. Endpoints are applied on top of EndpointSet, or on
// top of the scenario's own endpoint set if EndpointSet is empty.
type ScenarioConfig struct {
	EndpointSet string            `yaml:"endpointSet" validate:"omitempty,oneof=legacy customer"`
	Endpoints   EndpointOverrides `yaml:"endpoints"`
	Credentials *Credentials      `yaml:"credentials" validate:"omitempty"`
}

type EndpointOverrides struct {
	Register     string `yaml:"register" validate:"omitempty,startswith=/"`
	Login        string `yaml:"login" validate:"omitempty,startswith=/"`
	Music        string `yaml:"music" validate:"omitempty,startswith=/"`
	CartClear    string `yaml:"cartClear" validate:"omitempty,startswith=/"`
	CartAdd      string `yaml:"cartAdd" validate:"omitempty,startswith=/,contains={id}"`
	Cart         string `yaml:"cart" validate:"omitempty,startswith=/"`
	Checkout     string `yaml:"checkout" validate:"omitempty,startswith=/"`
	OrderHistory string `yaml:"orderHistory" validate:"omitempty,startswith=/"`
}

// Load reads and validates a configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ParseError{Path: path, Err: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Path = path
		}
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes and validates a YAML document. An empty document is a valid empty Config.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &ParseError{Line: extractLine(err), Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and that every scenario entry names a known scenario.
func (c Config) Validate() error {
	var problems []string
	if err := validatorInstance().Struct(c); err != nil {
		problems = append(problems, describeValidationErrors(err)...)
	}
	known := make(map[string]bool)
	for _, name := range storetests.ScenarioNames() {
		known[name] = true
	}
	for _, name := range c.ScenarioNamesConfigured() {
		if !known[name] {
			problems = append(problems, fmt.Sprintf("scenarios.%s: no such scenario", name))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ScenarioNamesConfigured returns the names of the scenario entries in sorted order.
func (c Config) ScenarioNamesConfigured() []string {
	ret := make([]string, 0, len(c.Scenarios))
	for name := range c.Scenarios {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// ScenarioParams builds the parameters for running the named scenario with this
// configuration. Credentials come from the scenario entry, then the top-level credentials;
// if neither is set the scenario uses its own account.
func (c Config) ScenarioParams(name string, cl *client.Client) (storetests.Params, error) {
	sc := c.Scenarios[name]

	var endpoints storetests.Endpoints
	var err error
	if sc.EndpointSet != "" {
		endpoints, err = storetests.EndpointSet(sc.EndpointSet)
	} else {
		endpoints, err = storetests.DefaultEndpoints(name)
	}
	if err != nil {
		return storetests.Params{}, err
	}
	endpoints = endpoints.Override(sc.Endpoints.asEndpoints())

	params := storetests.Params{Client: cl, Endpoints: &endpoints}
	switch {
	case sc.Credentials != nil:
		params.Credentials = sc.Credentials.AsServiceCredentials()
	case c.Credentials != nil:
		params.Credentials = c.Credentials.AsServiceCredentials()
	}
	return params, nil
}

func (c Credentials) AsServiceCredentials() servicedef.Credentials {
	return servicedef.Credentials{
		Username:  c.Username,
		Password:  c.Password,
		Email:     c.Email,
		Role:      servicedef.RoleCustomer,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}
}

func (o EndpointOverrides) asEndpoints() storetests.Endpoints {
	return storetests.Endpoints{
		Register:     o.Register,
		Login:        o.Login,
		Music:        o.Music,
		CartClear:    o.CartClear,
		CartAdd:      o.CartAdd,
		Cart:         o.Cart,
		Checkout:     o.Checkout,
		OrderHistory: o.OrderHistory,
	}
}

func extractLine(err error) int {
	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}
	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}
	return line
}
