// Package transport provides the WebSocket connection to the vault
// bridge endpoint.
package transport
