package crypto

import "runtime"

// Wipe zeroes b. This is best-effort and aims to reduce the chance of the
// compiler eliding the write.
//
//go:noinline
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}

// WipeKey zeroes a fixed-size key in place.
func WipeKey(k *[KeySize]byte) {
	if k == nil {
		return
	}
	Wipe(k[:])
}
