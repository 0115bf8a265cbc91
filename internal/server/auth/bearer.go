package auth

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/intelligence/internal/common"
)

var (
	ErrNoCredential    = errors.New("no credential")
	ErrMalformedHeader = errors.New("malformed authorization header")
)

// ExtractBearer returns the token from "Bearer <token>". The scheme is
// matched case-insensitively and must be followed by exactly one space.
func ExtractBearer(header string) (string, error) {
	if header == "" {
		return "", ErrNoCredential
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", ErrMalformedHeader
	}
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrMalformedHeader
	}
	return token, nil
}
