// Package cryptox holds the server's cryptographic primitives: salted
// password credentials and passphrase-sealed key material.
package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
)

const (
	// CredentialSeparator joins salt and digest in a stored credential.
	CredentialSeparator = "$"

	saltSize = 16
)

// HashPassword returns hex(HMAC-SHA256(key=salt, msg=password)).
// The salt is used as text, exactly as it is stored in the credential.
func HashPassword(password, salt string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil))
}

// NewCredential generates a fresh random salt and returns "salt$hash".
func NewCredential(password string) (string, error) {
	salt, err := common.MakeRandHexString(saltSize)
	if err != nil {
		return "", err
	}
	return salt + CredentialSeparator + HashPassword(password, salt), nil
}

// SplitCredential splits a stored credential into salt and digest.
// ok is false for anything that is not exactly two non-empty parts.
func SplitCredential(stored string) (salt, hash string, ok bool) {
	parts := strings.Split(stored, CredentialSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// VerifyCredential reports whether password matches the stored credential.
// A malformed credential never verifies.
func VerifyCredential(password, stored string) bool {
	salt, hash, ok := SplitCredential(stored)
	if !ok {
		return false
	}
	candidate := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hash)) == 1
}
