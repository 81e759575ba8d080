package common

// WipeByteArray overwrites b with zeros. It is used for access tokens read
// from the terminal once they are no longer needed. A nil slice is ignored.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
