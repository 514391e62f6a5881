//go:build linux

package memwipe

import "golang.org/x/sys/unix"

// Lock pins the pages backing b so key material cannot be written to swap.
// Best effort: callers ignore the error when the mlock rlimit is exhausted.
func Lock(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Mlock(b)
}

// Unlock releases pages pinned by Lock. Call only after the material has
// been wiped.
func Unlock(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Munlock(b)
}
