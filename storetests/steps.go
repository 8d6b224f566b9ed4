package storetests

import (
	"errors"
	"fmt"
	"strings"

	"github.com/musicstore/store-contract-tests/client"
	"github.com/musicstore/store-contract-tests/framework"
	"github.com/musicstore/store-contract-tests/servicedef"
)

// Keys of the values that steps put in the ScenarioContext.
const (
	KeyToken             = "token"
	KeyAuthMethod        = "authMethod"
	KeyUsername          = "username"
	KeyMusicIDs          = "musicIds"
	KeyCatalogSize       = "catalogSize"
	KeyCartCleared       = "cartCleared"
	KeyAddedIDs          = "addedIds"
	KeyCartItemCount     = "cartItemCount"
	KeyCartTotal         = "cartTotal"
	KeyOrderID           = "orderId"
	KeyOrderTotal        = "orderTotal"
	KeyOrderStatus       = "orderStatus"
	KeyOrderItemCount    = "orderItemCount"
	KeyOrderHistoryCount = "orderHistoryCount"
)

// StepEnv is what every store step needs: a client for the service and the endpoint set
// of the scenario.
type StepEnv struct {
	Client    *client.Client
	Endpoints Endpoints
}

// authorized returns a client carrying the token from the context, logging to the current
// step's debug output.
func (env StepEnv) authorized(sc *framework.ScenarioContext) (*client.Client, error) {
	token, err := sc.String(KeyToken)
	if err != nil {
		return nil, preconditionFailed("not authenticated: %s", err)
	}
	return env.Client.WithToken(token).WithLogger(sc.DebugLogger()), nil
}

// Authenticate registers the account, or logs in if registration fails.
func Authenticate(env StepEnv, creds servicedef.Credentials) framework.Step {
	return framework.Step{
		Name:   "register or log in",
		Policy: framework.AbortRun,
		Action: func(sc *framework.ScenarioContext) framework.Outcome {
			c := env.Client.WithLogger(sc.DebugLogger())
			resp, method, err := client.RegisterOrLogin(c, env.Endpoints.Auth(), creds)
			if err != nil {
				return framework.Failure(err)
			}
			return framework.Success(map[string]interface{}{
				KeyToken:      framework.Secret(resp.Token),
				KeyAuthMethod: string(method),
				KeyUsername:   creds.Username,
			}).WithMessage("%s as %s", method, creds.Username)
		},
	}
}

// ListCatalog fetches the music catalog and selects the first maxItems distinct IDs. It
// fails with a PreconditionFailedError if fewer than minItems distinct IDs are available.
func ListCatalog(env StepEnv, minItems, maxItems int) framework.Step {
	return framework.Step{
		Name:   "list catalog",
		Policy: framework.AbortRun,
		Action: func(sc *framework.ScenarioContext) framework.Outcome {
			c, err := env.authorized(sc)
			if err != nil {
				return framework.Failure(err)
			}
			var catalog servicedef.Catalog
			if err := c.Get(env.Endpoints.Music, &catalog); err != nil {
				return framework.Failure(err)
			}

			ids := distinctIDs(catalog.IDs())
			if len(ids) < minItems {
				return framework.Failure(preconditionFailed(
					"need at least %d distinct catalog items, found %d", minItems, len(ids)))
			}
			if maxItems > 0 && len(ids) > maxItems {
				ids = ids[:maxItems]
			}
			for _, m := range catalog {
				sc.Debug("Catalog item %d: %s", m.ID, m.DisplayName())
			}
			return framework.Success(map[string]interface{}{
				KeyMusicIDs:    ids,
				KeyCatalogSize: len(catalog),
			}).WithMessage("found %d music tracks, selected %v", len(catalog), ids)
		},
	}
}

// ClearCart empties the cart. Clearing an empty cart is not an error.
func ClearCart(env StepEnv) framework.Step {
	return framework.Step{
		Name:   "clear cart",
		Policy: framework.WarnAndContinue,
		Action: func(sc *framework.ScenarioContext) framework.Outcome {
			c, err := env.authorized(sc)
			if err != nil {
				return framework.Failure(err)
			}
			if env.Endpoints.CartClear == "" {
				return framework.Failure(preconditionFailed("endpoint set has no cart clear endpoint"))
			}
			if err := c.Post(env.Endpoints.CartClear, nil, nil); err != nil {
				return framework.Failure(err)
			}
			return framework.Success(map[string]interface{}{KeyCartCleared: true}).WithMessage("cart cleared")
		},
	}
}

// AddItemsToCart adds every selected music ID to the cart. It attempts all of them even if
// some fail, and fails if any of them did.
func AddItemsToCart(env StepEnv) framework.Step {
	return framework.Step{
		Name:   "add items to cart",
		Policy: framework.WarnAndContinue,
		Action: func(sc *framework.ScenarioContext) framework.Outcome {
			c, err := env.authorized(sc)
			if err != nil {
				return framework.Failure(err)
			}
			ids, err := sc.Int64s(KeyMusicIDs)
			if err != nil {
				return framework.Failure(preconditionFailed("no music selected: %s", err))
			}
			if len(ids) == 0 {
				return framework.Failure(preconditionFailed("no music selected"))
			}

			var added []int64
			var errs []error
			for _, id := range ids {
				if err := c.Post(env.Endpoints.AddToCartPath(id), nil, nil); err != nil {
					errs = append(errs, fmt.Errorf("music %d: %w", id, err))
					continue
				}
				added = append(added, id)
			}
			if len(errs) > 0 {
				return framework.Failure(fmt.Errorf("could not add %d of %d item(s) to cart: %w",
					len(errs), len(ids), errors.Join(errs...)))
			}
			return framework.Success(map[string]interface{}{KeyAddedIDs: added}).
				WithMessage("added %d item(s) to cart", len(added))
		},
	}
}

// GetCart reads the cart and records its item count and total.
func GetCart(env StepEnv) framework.Step {
	return framework.Step{
		Name:   "check cart contents",
		Policy: framework.AbortRun,
		Action: func(sc *framework.ScenarioContext) framework.Outcome {
			c, err := env.authorized(sc)
			if err != nil {
				return framework.Failure(err)
			}
			var cart servicedef.Cart
			if err := c.Get(env.Endpoints.Cart, &cart); err != nil {
				return framework.Failure(err)
			}

			data := map[string]interface{}{KeyCartItemCount: cart.ItemCount()}
			lines := []string{fmt.Sprintf("cart contains %d item(s)", cart.ItemCount())}
			if total, ok := cart.TotalValue(); ok {
				data[KeyCartTotal] = total
				lines[0] += fmt.Sprintf(", total $%.2f", total)
			}
			for _, item := range cart.Items {
				lines = append(lines, "- "+describeCartItem(item))
			}
			return framework.Success(data).WithMessage("%s", strings.Join(lines, "\n"))
		},
	}
}

// Checkout places the order for the current cart.
func Checkout(env StepEnv) framework.Step {
	return framework.Step{
		Name:   "checkout",
		Policy: framework.AbortRun,
		Action: func(sc *framework.ScenarioContext) framework.Outcome {
			c, err := env.authorized(sc)
			if err != nil {
				return framework.Failure(err)
			}
			var order servicedef.Order
			if err := c.Post(env.Endpoints.Checkout, nil, &order); err != nil {
				return framework.Failure(err)
			}

			id, _ := order.Identifier()
			data := map[string]interface{}{
				KeyOrderID:        id,
				KeyOrderItemCount: len(order.OrderItems),
			}
			if order.Status != "" {
				data[KeyOrderStatus] = order.Status
			}
			lines := []string{fmt.Sprintf("order %d placed", id)}
			if order.TotalAmount != nil {
				data[KeyOrderTotal] = *order.TotalAmount
				lines[0] += fmt.Sprintf(", total $%.2f", *order.TotalAmount)
			}
			if order.Status != "" {
				lines[0] += ", status " + order.Status
			}
			for _, item := range order.OrderItems {
				lines = append(lines, fmt.Sprintf("- %s by %s (%s)", item.MusicTitle, item.ArtistName, formatPrice(item.UnitPrice)))
			}
			return framework.Success(data).WithMessage("%s", strings.Join(lines, "\n"))
		},
	}
}

// VerifyCartEmpty checks that the cart has no items, as it should after checkout or clear.
func VerifyCartEmpty(env StepEnv) framework.Step {
	return framework.Step{
		Name:   "verify cart is empty",
		Policy: framework.WarnAndContinue,
		Action: func(sc *framework.ScenarioContext) framework.Outcome {
			c, err := env.authorized(sc)
			if err != nil {
				return framework.Failure(err)
			}
			var cart servicedef.Cart
			if err := c.Get(env.Endpoints.Cart, &cart); err != nil {
				return framework.Failure(err)
			}
			if n := cart.ItemCount(); n != 0 {
				return framework.Failure(&VerificationError{Reason: fmt.Sprintf("cart still contains %d item(s)", n)})
			}
			return framework.Success(map[string]interface{}{KeyCartItemCount: 0}).WithMessage("cart is empty")
		},
	}
}

// VerifyOrderHistory checks that the order placed by Checkout appears in the order history.
func VerifyOrderHistory(env StepEnv) framework.Step {
	return framework.Step{
		Name:   "verify order history",
		Policy: framework.WarnAndContinue,
		Action: func(sc *framework.ScenarioContext) framework.Outcome {
			c, err := env.authorized(sc)
			if err != nil {
				return framework.Failure(err)
			}
			if env.Endpoints.OrderHistory == "" {
				return framework.Failure(preconditionFailed("endpoint set has no order history endpoint"))
			}
			orderID, err := sc.Int64(KeyOrderID)
			if err != nil {
				return framework.Failure(preconditionFailed("no order was placed: %s", err))
			}
			var page servicedef.OrderPage
			if err := c.Get(env.Endpoints.OrderHistory, &page); err != nil {
				return framework.Failure(err)
			}
			if !page.ContainsOrder(int(orderID)) {
				return framework.Failure(&VerificationError{
					Reason: fmt.Sprintf("order %d is not in the order history (%d orders listed)", orderID, len(page.Content)),
				})
			}
			return framework.Success(map[string]interface{}{KeyOrderHistoryCount: len(page.Content)}).
				WithMessage("order %d is in the order history", orderID)
		},
	}
}

func distinctIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	ret := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			ret = append(ret, id)
		}
	}
	return ret
}

func describeCartItem(item servicedef.CartItem) string {
	name, artist := "Unknown", "Unknown"
	if item.Music != nil {
		name = item.Music.DisplayName()
		if item.Music.ArtistUsername.IsDefined() {
			artist = item.Music.ArtistUsername.StringValue()
		}
	}
	return fmt.Sprintf("%s by %s (%s)", name, artist, formatPrice(item.UnitPrice))
}

func formatPrice(p *float64) string {
	if p == nil {
		return "no price"
	}
	return fmt.Sprintf("$%.2f", *p)
}
