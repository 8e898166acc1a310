package handshake

import (
	"vaultbridge/internal/crypto"
	"vaultbridge/internal/domain"
)

// Version is the pairing protocol version announced in the hello.
const Version = "1.0"

// Hello builds the plaintext handshake announcing the client identity.
func Hello(id domain.Identity, clientName string) domain.Handshake {
	return domain.Handshake{
		Type:    domain.TypeHandshake,
		Version: Version,
		Client: domain.ClientInfo{
			ClientID:   crypto.DeriveClientID(id.PublicKey),
			ClientName: clientName,
			PublicKey:  crypto.B64(id.PublicKey),
		},
	}
}

// Verdict maps a handshake response to the resulting channel state. The
// branches are evaluated in order: authorized wins over pending approval,
// and a client that is neither ends up connected — reachable but not
// authorized and not currently pending.
func Verdict(resp domain.HandshakeResponse) domain.State {
	switch {
	case resp.Authorized:
		return domain.StatePaired
	case resp.PendingApproval:
		return domain.StatePendingApproval
	default:
		return domain.StateConnected
	}
}

// UpdateVerdict maps an authorization update received while approval is
// pending. A denial moves the channel to connected, not disconnected: the
// transport stays up.
func UpdateVerdict(u domain.AuthorizationUpdate) domain.State {
	if u.Authorized {
		return domain.StatePaired
	}
	return domain.StateConnected
}
