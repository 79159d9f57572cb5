package module

// Verifier checks signatures over blocks and votes.
type Verifier interface {
	// Verify reports whether signature is a valid signature of msg under
	// publicKey. It returns false for malformed keys or signatures and never
	// panics.
	Verify(msg []byte, publicKey []byte, signature []byte) bool
}
