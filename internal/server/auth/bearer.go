package auth

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
)

// ExtractBearerToken returns the token of a "Bearer <token>" header value.
func ExtractBearerToken(header string) (string, error) {
	if !strings.HasPrefix(header, common.BearerPrefix) {
		return "", fmt.Errorf("%w: not a bearer credential", common.ErrInvalidToken)
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, common.BearerPrefix))
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", fmt.Errorf("%w: malformed bearer credential", common.ErrInvalidToken)
	}
	return token, nil
}
