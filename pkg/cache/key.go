package cache

import (
	"sort"
	"strings"
)

// KeyPrefix namespaces every key this package writes.
const KeyPrefix = "warera"

// CacheKey identifies one cached procedure call.
type CacheKey struct {
	// Procedure is the tRPC procedure name (e.g. "country.getCountryById").
	Procedure string

	// Input holds the scalar input fields of the call.
	Input map[string]string
}

// String generates a deterministic key.
// Format: warera:procedure:field1=val1:field2=val2
//
// Example:
//
//	warera:user.getUserLite:userId=6813b6d5
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	if p := strings.TrimSpace(k.Procedure); p != "" {
		parts = append(parts, p)
	}

	fields := make([]string, 0, len(k.Input))
	for field := range k.Input {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		parts = append(parts, field+"="+k.Input[field])
	}

	return strings.Join(parts, ":")
}
