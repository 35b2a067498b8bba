package utils

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofrs/uuid"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrMalformedBearer   = errors.New("authorization header must be 'Bearer <token>'")
)

// ExtractBearerToken returns the token from an "Authorization: Bearer x"
// header value. The scheme is case-insensitive.
func ExtractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingAuthHeader
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMalformedBearer
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMalformedBearer
	}
	return token, nil
}

// ParseID parses a positive decimal row id from a path segment.
func ParseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return uint(id), nil
}

// ParseIntDefault parses a query value, falling back to def when the value
// is absent or not an integer.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func IsValidUUID(s string) bool {
	_, err := uuid.FromString(s)
	return err == nil
}

// NewRequestID returns a random v4 UUID string.
func NewRequestID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return id.String()
}
