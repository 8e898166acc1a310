// Package domain defines the core data models and contracts of the
// pairing channel: wire messages, connection states, the typed request
// set, error values and the transport/store interfaces.
// It contains plain types and contracts only.
package domain
