package auth

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenValidity is the fixed lifetime of an issued token.
const TokenValidity = 24 * time.Hour

// Identity is the verified caller as forwarded to downstream handlers.
type Identity struct {
	Username   string `json:"username"`
	FamilyID   string `json:"familyId"`
	FamilyName string `json:"familyName"`
}

// Claims is the signed token payload.
type Claims struct {
	jwt.RegisteredClaims
	Username   string `json:"username"`
	FamilyID   string `json:"familyId"`
	FamilyName string `json:"familyName"`
}

// VerificationKey is a public key together with the id it was published under.
type VerificationKey struct {
	ID  string
	Key *ecdsa.PublicKey
}

// GenerateToken signs an ES256 token for id. A non-empty kid is put in the
// header so verifiers can pick the matching key first.
func GenerateToken(id Identity, key *ecdsa.PrivateKey, kid string, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Username:   id.Username,
		FamilyID:   id.FamilyID,
		FamilyName: id.FamilyName,
	})
	if kid != "" {
		token.Header["kid"] = kid
	}

	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// orderKeys puts the key named by kid in front; the rest keep their order.
func orderKeys(keys []VerificationKey, kid string) []jwt.VerificationKey {
	out := make([]jwt.VerificationKey, 0, len(keys))
	for _, k := range keys {
		if kid != "" && k.ID == kid {
			out = append(out, k.Key)
		}
	}
	for _, k := range keys {
		if kid == "" || k.ID != kid {
			out = append(out, k.Key)
		}
	}
	return out
}

// ParseToken verifies tokenString against every key in keys and returns the
// identity it carries. It succeeds on the first key that verifies.
func ParseToken(tokenString string, keys []VerificationKey) (*Identity, error) {
	claims, err := verify(tokenString, keys)
	if err != nil {
		return nil, err
	}
	return claims.Identity(), nil
}

func (c *Claims) Identity() *Identity {
	return &Identity{Username: c.Username, FamilyID: c.FamilyID, FamilyName: c.FamilyName}
}

func verify(tokenString string, keys []VerificationKey) (*Claims, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no verification keys", common.ErrSigningKeyUnavailable)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return jwt.VerificationKeySet{Keys: orderKeys(keys, kid)}, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	switch {
	case claims.Username == "":
		return nil, fmt.Errorf("%w: username", common.ErrMissingClaim)
	case claims.FamilyID == "":
		return nil, fmt.Errorf("%w: familyId", common.ErrMissingClaim)
	case claims.FamilyName == "":
		return nil, fmt.Errorf("%w: familyName", common.ErrMissingClaim)
	}

	return claims, nil
}
