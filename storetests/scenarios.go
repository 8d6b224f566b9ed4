package storetests

import (
	"errors"
	"fmt"

	"github.com/musicstore/store-contract-tests/client"
	"github.com/musicstore/store-contract-tests/framework"
	"github.com/musicstore/store-contract-tests/servicedef"
)

// ErrUnknownScenario is returned for a scenario name that is not in the catalog.
var ErrUnknownScenario = errors.New("unknown scenario")

// Params are the run-time inputs of a scenario.
type Params struct {
	Client *client.Client

	// Credentials replace the scenario's default account if Username is set.
	Credentials servicedef.Credentials

	// Endpoints, if not nil, replaces the scenario's default endpoint set entirely.
	Endpoints *Endpoints
}

type scenarioDef struct {
	name        string
	description string
	endpoints   Endpoints
	credentials servicedef.Credentials
	steps       func(env StepEnv, creds servicedef.Credentials) []framework.Step
}

var allScenarios = []scenarioDef{
	{
		name:        "order-receipt",
		description: "place an order through the /api/cart endpoints, which triggers a receipt email",
		endpoints:   LegacyCartEndpoints,
		credentials: servicedef.Credentials{
			Username:  "email_test_user",
			Password:  "password123",
			Email:     "email_test_user@example.com",
			Role:      servicedef.RoleCustomer,
			FirstName: "Email",
			LastName:  "Test",
		},
		steps: func(env StepEnv, creds servicedef.Credentials) []framework.Step {
			return []framework.Step{
				Authenticate(env, creds),
				ListCatalog(env, 1, 3),
				ClearCart(env),
				AddItemsToCart(env),
				GetCart(env),
				Checkout(env),
			}
		},
	},
	{
		name:        "multiple-checkout",
		description: "check out several tracks at once through the /api/customer/cart endpoints",
		endpoints:   CustomerCartEndpoints,
		credentials: servicedef.Credentials{
			Username:  "test_multiple_user",
			Password:  "password123",
			Email:     "test_multiple@example.com",
			Role:      servicedef.RoleCustomer,
			FirstName: "Test",
			LastName:  "User",
		},
		steps: func(env StepEnv, creds servicedef.Credentials) []framework.Step {
			return []framework.Step{
				Authenticate(env, creds),
				ListCatalog(env, 3, 3),
				AddItemsToCart(env),
				GetCart(env),
				Checkout(env),
				VerifyCartEmpty(env),
				VerifyOrderHistory(env),
			}
		},
	},
}

func findScenario(name string) (scenarioDef, error) {
	for _, s := range allScenarios {
		if s.name == name {
			return s, nil
		}
	}
	return scenarioDef{}, fmt.Errorf("%w %q", ErrUnknownScenario, name)
}

// ScenarioNames lists the catalog in its defined order.
func ScenarioNames() []string {
	ret := make([]string, 0, len(allScenarios))
	for _, s := range allScenarios {
		ret = append(ret, s.name)
	}
	return ret
}

// Describe returns a one-line description of the scenario.
func Describe(name string) (string, error) {
	s, err := findScenario(name)
	if err != nil {
		return "", err
	}
	return s.description, nil
}

// DefaultEndpoints returns the endpoint set the scenario was written against.
func DefaultEndpoints(name string) (Endpoints, error) {
	s, err := findScenario(name)
	if err != nil {
		return Endpoints{}, err
	}
	return s.endpoints, nil
}

// BuildScenario assembles the named scenario's steps.
func BuildScenario(name string, params Params) (framework.Scenario, error) {
	s, err := findScenario(name)
	if err != nil {
		return framework.Scenario{}, err
	}
	if params.Client == nil {
		return framework.Scenario{}, errors.New("scenario parameters have no client")
	}

	endpoints := s.endpoints
	if params.Endpoints != nil {
		endpoints = *params.Endpoints
	}
	if err := endpoints.Validate(); err != nil {
		return framework.Scenario{}, fmt.Errorf("scenario %q: %w", name, err)
	}

	creds := s.credentials
	if params.Credentials.Username != "" {
		creds = params.Credentials
	}

	env := StepEnv{Client: params.Client, Endpoints: endpoints}
	return framework.Scenario{Name: s.name, Steps: s.steps(env, creds)}, nil
}

// RunScenario builds and runs the named scenario. The error return is only for an unknown
// scenario or invalid parameters; failures of the service under test are in the Report.
func RunScenario(name string, params Params, logger framework.StepLogger) (framework.Report, error) {
	scenario, err := BuildScenario(name, params)
	if err != nil {
		return framework.Report{}, err
	}
	return framework.RunScenario(scenario, nil, logger)
}
