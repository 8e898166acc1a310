// Package seal implements per-message envelope encryption for the
// channel: a fresh ephemeral P-256 pair per payload, ECDH against the
// receiver's long-term key, and AES-256-GCM over the JSON body. The
// ephemeral key rides in the envelope; its private half never leaves this
// package, which is what gives the channel forward secrecy.
package seal
