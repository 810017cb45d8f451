package models

import "time"

const (
	PrivateKeyName = "Private-PEM"
	PublicKeyName  = "Public-PEM"
)

// SealedSecret is a private key PEM encrypted at rest (see cryptox.Seal).
type SealedSecret struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// PrivateKey is the singleton signing key record. Exactly one of Secret
// and Sealed is set.
type PrivateKey struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Secret     string        `json:"secret,omitempty"`
	Sealed     *SealedSecret `json:"sealed,omitempty"`
	EntityType EntityType    `json:"entityType"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// PublicKey is one entry of the append-only verification key set.
type PublicKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Secret     string     `json:"secret"`
	EntityType EntityType `json:"entityType"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
