package common

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID returns a random UUID string.
func GenerateUUID() string {
	return uuid.New().String()
}

// CacheKey builds a namespaced key from a free-text name, e.g. "recipe:masala dosa".
func CacheKey(namespace, name string) string {
	key := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	return namespace + ":" + key
}
