package storetests

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/musicstore/store-contract-tests/client"
)

// ItemIDPlaceholder is replaced with the music ID in Endpoints.CartAdd.
const ItemIDPlaceholder = "{id}"

// Endpoints is the set of paths a scenario uses. The store has exposed its cart under two
// different prefixes, so each scenario names the set it was written against.
type Endpoints struct {
	Register     string `validate:"required,startswith=/"`
	Login        string `validate:"required,startswith=/"`
	Music        string `validate:"required,startswith=/"`
	CartClear    string `validate:"omitempty,startswith=/"`
	CartAdd      string `validate:"required,startswith=/,contains={id}"`
	Cart         string `validate:"required,startswith=/"`
	Checkout     string `validate:"required,startswith=/"`
	OrderHistory string `validate:"omitempty,startswith=/"`
}

// LegacyCartEndpoints is the /api/cart/* endpoint set. Its cart reports "total" and its
// checkout reports "orderId".
var LegacyCartEndpoints = Endpoints{
	Register:  "/api/auth/register",
	Login:     "/api/auth/login",
	Music:     "/api/music",
	CartClear: "/api/cart/clear",
	CartAdd:   "/api/cart/add/{id}",
	Cart:      "/api/cart",
	Checkout:  "/api/cart/checkout",
}

// CustomerCartEndpoints is the /api/customer/cart/* endpoint set. Its cart reports
// "totalAmount" and its checkout returns the whole order, including "id" and "orderItems".
var CustomerCartEndpoints = Endpoints{
	Register:     "/api/auth/register",
	Login:        "/api/auth/login",
	Music:        "/api/music",
	CartAdd:      "/api/customer/cart/add/{id}",
	Cart:         "/api/customer/cart",
	Checkout:     "/api/customer/cart/checkout",
	OrderHistory: "/api/customer/orders",
}

var endpointSets = map[string]Endpoints{
	"legacy":   LegacyCartEndpoints,
	"customer": CustomerCartEndpoints,
}

// EndpointSet looks up a predefined endpoint set by name ("legacy" or "customer").
func EndpointSet(name string) (Endpoints, error) {
	e, ok := endpointSets[name]
	if !ok {
		return Endpoints{}, fmt.Errorf("unknown endpoint set %q", name)
	}
	return e, nil
}

func (e Endpoints) AddToCartPath(id int64) string {
	return strings.ReplaceAll(e.CartAdd, ItemIDPlaceholder, strconv.FormatInt(id, 10))
}

func (e Endpoints) Auth() client.AuthEndpoints {
	return client.AuthEndpoints{Register: e.Register, Login: e.Login}
}

// Override returns a copy of e in which every non-empty field of o replaces the original.
func (e Endpoints) Override(o Endpoints) Endpoints {
	pick := func(orig, override string) string {
		if override != "" {
			return override
		}
		return orig
	}
	return Endpoints{
		Register:     pick(e.Register, o.Register),
		Login:        pick(e.Login, o.Login),
		Music:        pick(e.Music, o.Music),
		CartClear:    pick(e.CartClear, o.CartClear),
		CartAdd:      pick(e.CartAdd, o.CartAdd),
		Cart:         pick(e.Cart, o.Cart),
		Checkout:     pick(e.Checkout, o.Checkout),
		OrderHistory: pick(e.OrderHistory, o.OrderHistory),
	}
}

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func (e Endpoints) Validate() error {
	validatorOnce.Do(func() { validateInst = validator.New() })
	err := validateInst.Struct(e)
	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		msgs := make([]string, 0, len(ves))
		for _, fe := range ves {
			msgs = append(msgs, fmt.Sprintf("%s: %q fails %q", fe.Field(), fe.Value(), fe.Tag()))
		}
		return fmt.Errorf("invalid endpoints: %s", strings.Join(msgs, "; "))
	}
	return err
}
