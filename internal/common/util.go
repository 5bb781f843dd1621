package common

// WipeByteArray overwrites b with zeros. Password buffers read from the
// terminal go through it once the login call returns.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
