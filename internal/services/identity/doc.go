// Package identity manages the long-term client key pair and the client
// id derived from it.
package identity
