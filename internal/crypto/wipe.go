package crypto

import "runtime"

// Wipe zeroes b in place to shorten the window a derived symmetric key
// stays readable in memory. Best-effort: noinline discourages the
// compiler from eliding the writes.
//
//go:noinline
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}
