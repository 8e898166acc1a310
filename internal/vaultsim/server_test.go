package vaultsim_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"vaultbridge/internal/domain"
	"vaultbridge/internal/services/channel"
	"vaultbridge/internal/services/identity"
	"vaultbridge/internal/transport"
	"vaultbridge/internal/vaultsim"
)

func startVault(t *testing.T, cfg vaultsim.Config) (*vaultsim.Server, string) {
	t.Helper()
	srv, err := vaultsim.New(cfg)
	require.NoError(t, err)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return srv, "ws" + strings.TrimPrefix(hs.URL, "http")
}

func newClient(t *testing.T, url string) *channel.Channel {
	t.Helper()
	id, err := identity.NewEphemeral()
	require.NoError(t, err)
	ws := transport.NewWebSocket(nil)
	ch, err := channel.New(id, ws, channel.Config{ClientName: "e2e test", TargetName: "vault"})
	require.NoError(t, err)
	require.NoError(t, ch.Connect(context.Background(), url))
	t.Cleanup(func() { _ = ch.Close() })
	return ch
}

func waitState(t *testing.T, ch *channel.Channel, want domain.State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if ch.State().State == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state never reached %s, still %s", want, ch.State().State)
}

func TestAutoAuthorize_PingRoundTrip(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, url := startVault(t, vaultsim.Config{AutoAuthorize: true, Registry: registry})
	ch := newClient(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ch.WaitForAuthorization(ctx))

	payload, err := ch.SendRequest(ctx, domain.Ping{}, 5*time.Second)
	require.NoError(t, err)
	var reply struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(payload, &reply))
	require.Equal(t, "ok", reply.Status)

	families, err := registry.Gather()
	require.NoError(t, err)
	byName := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			byName[mf.GetName()] += m.GetCounter().GetValue()
		}
	}
	require.Equal(t, float64(1), byName["vaultsim_handshakes_total"])
	require.Equal(t, float64(1), byName["vaultsim_requests_total"])
}

func TestDeferredApproval_TransitionsAndGetItems(t *testing.T) {
	_, url := startVault(t, vaultsim.Config{ApproveAfter: 150 * time.Millisecond})
	ch := newClient(t, url)

	var mu sync.Mutex
	var states []domain.State
	cancel := ch.Subscribe(func(s channel.Snapshot) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})
	defer cancel()

	ctx, cancelCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelCtx()
	require.NoError(t, ch.WaitForAuthorization(ctx))

	mu.Lock()
	seen := append([]domain.State(nil), states...)
	mu.Unlock()
	require.Contains(t, seen, domain.StatePendingApproval)
	require.Equal(t, domain.StatePaired, seen[len(seen)-1])

	payload, err := ch.SendRequest(ctx, domain.GetItems{URL: "https://example.com/login"}, 5*time.Second)
	require.NoError(t, err)
	var reply struct {
		Items []vaultsim.Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(payload, &reply))
	require.Len(t, reply.Items, 2)
	for _, it := range reply.Items {
		require.Empty(t, it.Password, "listing must not expose secrets")
	}
}

func TestDeferredDenial_ConnectedNotDisconnected(t *testing.T) {
	_, url := startVault(t, vaultsim.Config{DenyAfter: 150 * time.Millisecond})
	ch := newClient(t, url)

	waitState(t, ch, domain.StatePendingApproval)
	waitState(t, ch, domain.StateConnected)

	_, err := ch.SendRequest(context.Background(), domain.Ping{}, time.Second)
	require.ErrorIs(t, err, domain.ErrNotAuthorized)
}

func TestCreateItemThenFetchDetails(t *testing.T) {
	_, url := startVault(t, vaultsim.Config{AutoAuthorize: true})
	ch := newClient(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ch.WaitForAuthorization(ctx))

	payload, err := ch.SendRequest(ctx, domain.CreateItem{
		Name:     "New Service",
		URL:      "https://new.example.net",
		Username: "bob",
		Password: "pass123",
	}, 5*time.Second)
	require.NoError(t, err)
	var created struct {
		Status string `json:"status"`
		ItemID string `json:"itemId"`
	}
	require.NoError(t, json.Unmarshal(payload, &created))
	require.Equal(t, "created", created.Status)
	require.Len(t, created.ItemID, 32)

	payload, err = ch.SendRequest(ctx, domain.GetItemDetails{ItemID: created.ItemID}, 5*time.Second)
	require.NoError(t, err)
	var details struct {
		Item vaultsim.Item `json:"item"`
	}
	require.NoError(t, json.Unmarshal(payload, &details))
	require.Equal(t, "bob", details.Item.Username)
	require.Equal(t, "pass123", details.Item.Password)
}

func TestConcurrentRequests_SlowActionDoesNotBlockFast(t *testing.T) {
	_, url := startVault(t, vaultsim.Config{
		AutoAuthorize: true,
		ActionDelay:   map[string]time.Duration{"get-items": 150 * time.Millisecond},
	})
	ch := newClient(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ch.WaitForAuthorization(ctx))

	type done struct {
		action string
		err    error
	}
	order := make(chan done, 2)
	go func() {
		_, err := ch.SendRequest(ctx, domain.GetItems{URL: "https://example.com"}, 5*time.Second)
		order <- done{"get-items", err}
	}()
	time.Sleep(20 * time.Millisecond) // let the slow request go out first
	go func() {
		_, err := ch.SendRequest(ctx, domain.Ping{}, 5*time.Second)
		order <- done{"ping", err}
	}()

	first := <-order
	second := <-order
	require.NoError(t, first.err)
	require.NoError(t, second.err)
	require.Equal(t, "ping", first.action, "the fast request must not wait behind the slow one")
	require.Equal(t, "get-items", second.action)
}

func TestPairingRateLimit(t *testing.T) {
	_, url := startVault(t, vaultsim.Config{
		AutoAuthorize: true,
		PairRate:      rate.Every(time.Hour),
	})

	first := newClient(t, url)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, first.WaitForAuthorization(ctx))

	second := newClient(t, url)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var se *domain.ServerError
		if err := second.State().Err; err != nil {
			require.ErrorAs(t, err, &se)
			require.Equal(t, "rate_limited", se.Code)
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("second client was never rate limited")
}
