// Package memwipe implements deliberate destruction of secret key material.
// Wiping is an explicit step on the resource retirement path, not something
// left to the garbage collector. Platform-specific page locking helpers live
// in the build-tagged files.
package memwipe

import "math/big"

// Wipe overwrites b with zeros in place.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// WipeWords zeros a big.Int limb slice obtained via Bits().
func WipeWords(w []big.Word) {
	for i := range w {
		w[i] = 0
	}
}
