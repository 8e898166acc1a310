package vaultsim

import (
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"strings"
)

// Item is one stored login record.
type Item struct {
	ID       string `json:"itemId"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}

func defaultItems() []Item {
	return []Item{
		{
			ID:       "a1b2c3d4e5f60718293a4b5c6d7e8f90",
			Name:     "Example Login",
			URL:      "https://example.com/login",
			Username: "alice@example.com",
			Password: "correct horse battery staple",
		},
		{
			ID:       "0f9e8d7c6b5a49382716054a3b2c1d0e",
			Name:     "Example Admin",
			URL:      "https://admin.example.com",
			Username: "root",
			Password: "hunter2",
		},
		{
			ID:       "11223344556677889900aabbccddeeff",
			Name:     "Staging",
			URL:      "https://staging.example.org/signin",
			Username: "deploy",
			Password: "s3cret",
		},
	}
}

func newItemID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// matchesHost reports whether the item belongs to the page URL, matching
// on registrable host suffix so admin.example.com matches example.com.
func matchesHost(itemURL, pageURL string) bool {
	iu, err := url.Parse(itemURL)
	if err != nil {
		return false
	}
	pu, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	ih, ph := strings.ToLower(iu.Hostname()), strings.ToLower(pu.Hostname())
	if ih == "" || ph == "" {
		return false
	}
	return ih == ph || strings.HasSuffix(ih, "."+ph) || strings.HasSuffix(ph, "."+ih)
}
