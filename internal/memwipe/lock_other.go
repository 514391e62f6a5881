//go:build !linux

package memwipe

// Lock is a no-op on platforms without mlock support.
func Lock(b []byte) error { return nil }

// Unlock is a no-op on platforms without mlock support.
func Unlock(b []byte) error { return nil }
