package crypto

// Zero overwrites key material in place. Callers zero derived, personal,
// and team keys the moment they are done with them.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
