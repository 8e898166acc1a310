package handshake_test

import (
	"encoding/json"
	"testing"

	"vaultbridge/internal/crypto"
	"vaultbridge/internal/domain"
	"vaultbridge/internal/protocol/handshake"
)

func TestHello_CarriesIdentity(t *testing.T) {
	priv, err := crypto.GenerateP256()
	if err != nil {
		t.Fatalf("GenerateP256: %v", err)
	}
	id := domain.Identity{
		PrivateKey: priv.Bytes(),
		PublicKey:  priv.PublicKey().Bytes(),
	}

	hello := handshake.Hello(id, "acceptance-test")
	if hello.Type != domain.TypeHandshake {
		t.Fatalf("type = %q, want %q", hello.Type, domain.TypeHandshake)
	}
	if hello.Version != handshake.Version {
		t.Fatalf("version = %q, want %q", hello.Version, handshake.Version)
	}
	if hello.Client.ClientName != "acceptance-test" {
		t.Fatalf("clientName = %q", hello.Client.ClientName)
	}
	if hello.Client.ClientID != crypto.DeriveClientID(id.PublicKey) {
		t.Fatal("clientId does not match the public key derivation")
	}
	pub, err := crypto.B64Decode(hello.Client.PublicKey)
	if err != nil {
		t.Fatalf("publicKey is not base64: %v", err)
	}
	if _, err := crypto.ParsePublicKey(pub); err != nil {
		t.Fatalf("publicKey is not a valid P-256 point: %v", err)
	}

	// The hello must stay a plain JSON object with the wire field names.
	raw, err := json.Marshal(hello)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != "handshake" {
		t.Fatalf("wire type = %v", decoded["type"])
	}
	if _, ok := decoded["client"].(map[string]any); !ok {
		t.Fatal("wire hello is missing the client object")
	}
}

func TestVerdict_DecisionRule(t *testing.T) {
	cases := []struct {
		name            string
		authorized      bool
		pendingApproval bool
		want            domain.State
	}{
		{"authorized", true, false, domain.StatePaired},
		{"authorized wins over pending", true, true, domain.StatePaired},
		{"pending approval", false, true, domain.StatePendingApproval},
		{"neither", false, false, domain.StateConnected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := domain.HandshakeResponse{
				Type:            domain.TypeHandshakeResponse,
				Authorized:      tc.authorized,
				PendingApproval: tc.pendingApproval,
			}
			if got := handshake.Verdict(resp); got != tc.want {
				t.Fatalf("Verdict = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUpdateVerdict(t *testing.T) {
	approve := domain.AuthorizationUpdate{Type: domain.TypeAuthorizationUpdate, Authorized: true}
	if got := handshake.UpdateVerdict(approve); got != domain.StatePaired {
		t.Fatalf("approval verdict = %q, want %q", got, domain.StatePaired)
	}
	deny := domain.AuthorizationUpdate{Type: domain.TypeAuthorizationUpdate, Authorized: false}
	if got := handshake.UpdateVerdict(deny); got != domain.StateConnected {
		t.Fatalf("denial verdict = %q, want %q (denial is not disconnection)", got, domain.StateConnected)
	}
}
