package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/dmitrijs2005/familyrecipe/internal/logging"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const decisionCacheSize = 4096

// KeySource supplies the currently published verification keys.
type KeySource interface {
	VerificationKeys(ctx context.Context) ([]VerificationKey, error)
}

// DecisionRecorder counts authorizer outcomes ("allow", "deny", "cached").
type DecisionRecorder interface {
	AuthorizerDecision(outcome string)
}

type cachedDecision struct {
	decision  *AccessDecision
	expiresAt time.Time
}

// Authorizer verifies bearer tokens and turns them into access decisions.
// Every failure is reported to the caller as common.ErrorUnauthorized; the
// cause is only logged.
type Authorizer struct {
	keys    KeySource
	routes  map[string]struct{}
	cache   *lru.LRU[string, cachedDecision]
	log     logging.Logger
	metrics DecisionRecorder
	now     func() time.Time
}

// NewAuthorizer builds an Authorizer for the given route families. A zero
// cacheTTL disables decision caching.
func NewAuthorizer(keys KeySource, routes []string, cacheTTL time.Duration, log logging.Logger, metrics DecisionRecorder) *Authorizer {
	a := &Authorizer{
		keys:    keys,
		routes:  make(map[string]struct{}, len(routes)),
		log:     log.With("module", "authorizer"),
		metrics: metrics,
		now:     time.Now,
	}
	for _, r := range routes {
		a.routes[r] = struct{}{}
	}
	if cacheTTL > 0 {
		a.cache = lru.NewLRU[string, cachedDecision](decisionCacheSize, nil, cacheTTL)
	}
	return a
}

func cacheKey(token, pattern string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:]) + "|" + pattern
}

func (a *Authorizer) record(outcome string) {
	if a.metrics != nil {
		a.metrics.AuthorizerDecision(outcome)
	}
}

// Authorize checks the Authorization header value for a request to methodArn.
func (a *Authorizer) Authorize(ctx context.Context, header, methodArn string) (*AccessDecision, error) {
	d, err := a.authorize(ctx, header, methodArn)
	if err != nil {
		a.log.Warn(ctx, "authorization failed", "resource", methodArn, "error", err)
		a.record("deny")
		return nil, common.ErrorUnauthorized
	}
	return d, nil
}

func (a *Authorizer) authorize(ctx context.Context, header, methodArn string) (*AccessDecision, error) {
	token, err := ExtractBearerToken(header)
	if err != nil {
		return nil, err
	}

	res, err := ParseMethodARN(methodArn)
	if err != nil {
		return nil, err
	}
	if _, ok := a.routes[res.RouteFamily()]; !ok {
		return nil, fmt.Errorf("route family %q is not authorized", res.RouteFamily())
	}
	pattern := res.ScopedPattern()

	var key string
	if a.cache != nil {
		key = cacheKey(token, pattern)
		if c, ok := a.cache.Get(key); ok && a.now().Before(c.expiresAt) {
			a.record("cached")
			return c.decision, nil
		}
	}

	keys, err := a.keys.VerificationKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load verification keys: %w", err)
	}

	claims, err := verify(token, keys)
	if err != nil {
		return nil, err
	}

	d := NewDecision(*claims.Identity(), EffectAllow, pattern)
	if a.cache != nil {
		// a cached decision never outlives its token
		a.cache.Add(key, cachedDecision{decision: d, expiresAt: claims.ExpiresAt.Time})
	}

	a.log.Debug(ctx, "authorized", "principal", d.PrincipalID, "resource", pattern)
	a.record("allow")
	return d, nil
}
