package auth

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
)

// MethodResource is a parsed method ARN:
//
//	arn:aws:execute-api:<region>:<account>:<apiId>/<stage>/<METHOD>/<path...>
type MethodResource struct {
	API    string
	Stage  string
	Method string
	Path   string
}

func ParseMethodARN(arn string) (*MethodResource, error) {
	if !strings.HasPrefix(arn, "arn:") {
		return nil, fmt.Errorf("%w: bad method arn %q", common.ErrValidation, arn)
	}
	parts := strings.SplitN(arn, "/", 4)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, fmt.Errorf("%w: bad method arn %q", common.ErrValidation, arn)
	}
	r := &MethodResource{API: parts[0], Stage: parts[1], Method: parts[2]}
	if len(parts) == 4 {
		r.Path = parts[3]
	}
	return r, nil
}

// BuildMethodARN is the inverse of ParseMethodARN for a "<arn>:<apiId>/<stage>"
// prefix and a request path.
func BuildMethodARN(prefix, method, path string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + method + "/" + strings.TrimPrefix(path, "/")
}

// RouteFamily is the first path segment ("recipes" for /recipes/list-recipes).
func (r *MethodResource) RouteFamily() string {
	family, _, _ := strings.Cut(r.Path, "/")
	return family
}

// ScopedPattern widens the resource to every method and path of its route
// family, so one decision covers sibling endpoints.
func (r *MethodResource) ScopedPattern() string {
	return r.API + "/" + r.Stage + "/*/" + r.RouteFamily() + "/*"
}
