package domain

import (
	"fmt"
	"net/url"
)

// Request is one of the closed set of actions the vault understands.
// Validate runs at the encryption boundary, before the payload is sealed,
// so malformed requests never reach the wire.
type Request interface {
	Action() string
	Validate() error
}

// GetItems asks the vault for the items matching a page URL.
type GetItems struct {
	URL string `json:"url"`
}

func (GetItems) Action() string { return "get-items" }

func (r GetItems) Validate() error { return validateURL("get-items", r.URL) }

// GetItemDetails asks for the full record of a single item.
type GetItemDetails struct {
	ItemID string `json:"itemId"`
}

func (GetItemDetails) Action() string { return "get-item-details" }

func (r GetItemDetails) Validate() error {
	if r.ItemID == "" {
		return fmt.Errorf("get-item-details: itemId is required")
	}
	return nil
}

// CreateItem stores a new login item in the vault.
type CreateItem struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (CreateItem) Action() string { return "create-item" }

func (r CreateItem) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("create-item: name is required")
	}
	return validateURL("create-item", r.URL)
}

// Ping checks end-to-end liveness of the encrypted channel.
type Ping struct{}

func (Ping) Action() string { return "ping" }

func (Ping) Validate() error { return nil }

func validateURL(action, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s: url is required", action)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s: invalid url %q", action, raw)
	}
	return nil
}
