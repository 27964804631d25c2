package jwtx

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// Key signs and verifies with the same secret material.
type Key interface {
	Signer
	Verifier
}
