// Package servicedef contains the JSON request and response schemas of the music store
// service endpoints that the scenarios use.
//
// Each response type states which fields are required. A response that decodes but lacks
// a required field is rejected by Validate, so that scenarios never silently work with
// zero values.
package servicedef

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const RoleCustomer = "CUSTOMER"

// Credentials describes the account a scenario registers or logs in with.
type Credentials struct {
	Username  string `validate:"required"`
	Password  string `validate:"required"`
	Email     string `validate:"omitempty,email"`
	Role      string
	FirstName string
	LastName  string
}

// RegisterParams is the body of POST /api/auth/register.
type RegisterParams struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// LoginParams is the body of POST /api/auth/login.
type LoginParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) RegisterParams() RegisterParams {
	role := c.Role
	if role == "" {
		role = RoleCustomer
	}
	return RegisterParams{
		Username:  c.Username,
		Password:  c.Password,
		Email:     c.Email,
		Role:      role,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}
}

func (c Credentials) LoginParams() LoginParams {
	return LoginParams{Username: c.Username, Password: c.Password}
}

func (c Credentials) Validate() error {
	return validateStruct(c)
}

// AuthResponse is returned by both register and login.
type AuthResponse struct {
	Token string    `json:"token" validate:"required"`
	User  *UserInfo `json:"user,omitempty"`
}

type UserInfo struct {
	ID       ldvalue.OptionalInt `json:"id"`
	Username string              `json:"username"`
	Email    string              `json:"email"`
	Role     string              `json:"role"`
}

func (r *AuthResponse) Validate() error {
	return validateStruct(r)
}

// MusicItem is one entry of GET /api/music. Only the ID is required; the store has
// returned the title under both "title" and "name".
type MusicItem struct {
	ID             int64                  `json:"id" validate:"required"`
	Title          ldvalue.OptionalString `json:"title"`
	Name           ldvalue.OptionalString `json:"name"`
	ArtistUsername ldvalue.OptionalString `json:"artistUsername"`
	Price          *float64               `json:"price,omitempty"`
}

// DisplayName returns the best available title for the item.
func (m MusicItem) DisplayName() string {
	if m.Title.IsDefined() && m.Title.StringValue() != "" {
		return m.Title.StringValue()
	}
	if m.Name.IsDefined() && m.Name.StringValue() != "" {
		return m.Name.StringValue()
	}
	return fmt.Sprintf("music #%d", m.ID)
}

// Catalog is the response of GET /api/music. The service returns either a bare array or a
// page object whose "content" holds the items.
type Catalog []MusicItem

func (c *Catalog) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var page struct {
			Content *[]MusicItem `json:"content"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return err
		}
		if page.Content == nil {
			return errors.New("catalog page has no content")
		}
		*c = Catalog(*page.Content)
		return nil
	}
	var items []MusicItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*c = Catalog(items)
	return nil
}

func (c *Catalog) Validate() error {
	if *c == nil {
		return fmt.Errorf("catalog response was null")
	}
	for i := range *c {
		if err := validateStruct((*c)[i]); err != nil {
			return fmt.Errorf("catalog item %d: %w", i, err)
		}
	}
	return nil
}

// IDs returns the item IDs in catalog order.
func (c Catalog) IDs() []int64 {
	ret := make([]int64, 0, len(c))
	for _, m := range c {
		ret = append(ret, m.ID)
	}
	return ret
}

// CartItem is one line of a cart.
type CartItem struct {
	ID         ldvalue.OptionalInt `json:"id"`
	Music      *MusicItem          `json:"music,omitempty"`
	UnitPrice  *float64            `json:"unitPrice,omitempty"`
	TotalPrice *float64            `json:"totalPrice,omitempty"`
}

// Cart is the response of GET on the cart endpoint. A null or missing item list means the
// cart is empty. Depending on the endpoint the total is reported as "total" or "totalAmount".
type Cart struct {
	ID          ldvalue.OptionalInt `json:"id"`
	Items       []CartItem          `json:"items"`
	Total       *float64            `json:"total,omitempty"`
	TotalAmount *float64            `json:"totalAmount,omitempty"`
}

func (c *Cart) Validate() error {
	return validateStruct(c)
}

func (c Cart) ItemCount() int {
	return len(c.Items)
}

// TotalValue returns whichever total field the service provided.
func (c Cart) TotalValue() (float64, bool) {
	if c.TotalAmount != nil {
		return *c.TotalAmount, true
	}
	if c.Total != nil {
		return *c.Total, true
	}
	return 0, false
}

// OrderItem is one line of a placed order.
type OrderItem struct {
	MusicTitle string   `json:"musicTitle"`
	ArtistName string   `json:"artistName"`
	UnitPrice  *float64 `json:"unitPrice,omitempty"`
}

// Order is the response of the checkout endpoints and an element of the order history.
// The legacy cart endpoint reports the identifier as "orderId", the customer endpoint as "id";
// one of them is required.
type Order struct {
	OrderID     ldvalue.OptionalInt `json:"orderId"`
	ID          ldvalue.OptionalInt `json:"id"`
	TotalAmount *float64            `json:"totalAmount,omitempty"`
	Status      string              `json:"status"`
	OrderDate   string              `json:"orderDate"`
	Message     string              `json:"message"`
	OrderItems  []OrderItem         `json:"orderItems"`
}

func (o *Order) Validate() error {
	if _, ok := o.Identifier(); !ok {
		return fmt.Errorf("order has neither orderId nor id")
	}
	return nil
}

// Identifier returns the order ID, preferring "orderId" over "id".
func (o Order) Identifier() (int, bool) {
	if o.OrderID.IsDefined() {
		return o.OrderID.IntValue(), true
	}
	if o.ID.IsDefined() {
		return o.ID.IntValue(), true
	}
	return 0, false
}

// OrderPage is the paged response of GET /api/customer/orders.
type OrderPage struct {
	Content       []Order `json:"content" validate:"required"`
	TotalElements int     `json:"totalElements"`
}

func (p *OrderPage) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	for i := range p.Content {
		if err := p.Content[i].Validate(); err != nil {
			return fmt.Errorf("order %d: %w", i, err)
		}
	}
	return nil
}

// ContainsOrder reports whether the page lists an order with the given ID.
func (p OrderPage) ContainsOrder(id int) bool {
	for _, o := range p.Content {
		if oid, ok := o.Identifier(); ok && oid == id {
			return true
		}
	}
	return false
}
