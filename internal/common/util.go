package common

// WipeByteArray zeroes b. Used for plaintext passwords read from a terminal.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
