package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"golang.org/x/crypto/argon2"
)

var ErrEmptyPassphrase = errors.New("empty passphrase")

// Sealed is AES-256-GCM ciphertext together with the argon2id salt and the
// nonce needed to open it again.
type Sealed struct {
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
}

// DeriveMasterKey stretches a passphrase into a 32-byte AES key (argon2id).
func DeriveMasterKey(passphrase []byte, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, 32)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext under a key derived from passphrase with a fresh
// salt and nonce.
func Seal(plaintext, passphrase []byte) (*Sealed, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}

	salt := common.GenerateRandByteArray(16)
	key := DeriveMasterKey(passphrase, salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())
	return &Sealed{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aesgcm.Seal(nil, nonce, plaintext, nil),
	}, nil
}

// Open reverses Seal. A wrong passphrase or tampered ciphertext fails
// authentication and returns an error.
func Open(s *Sealed, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	if s == nil {
		return nil, errors.New("nothing to open")
	}

	key := DeriveMasterKey(passphrase, s.Salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return aesgcm.Open(nil, s.Nonce, s.Ciphertext, nil)
}
