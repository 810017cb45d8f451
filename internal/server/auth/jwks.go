package auth

import (
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// BuildJWKS publishes keys as a JWK set for external verifiers.
func BuildJWKS(keys []VerificationKey) (jwk.Set, error) {
	set := jwk.NewSet()
	for _, k := range keys {
		key, err := jwk.FromRaw(k.Key)
		if err != nil {
			return nil, fmt.Errorf("jwk from key %s: %w", k.ID, err)
		}
		for name, v := range map[string]any{
			jwk.KeyIDKey:     k.ID,
			jwk.AlgorithmKey: jwa.ES256,
			jwk.KeyUsageKey:  jwk.ForSignature,
		} {
			if err := key.Set(name, v); err != nil {
				return nil, fmt.Errorf("jwk set %s: %w", name, err)
			}
		}
		if err := set.AddKey(key); err != nil {
			return nil, fmt.Errorf("jwk add %s: %w", k.ID, err)
		}
	}
	return set, nil
}
