package server

import (
	"fmt"
	"strings"

	"github.com/preston-bernstein/footy-live-service/internal/providers"
)

// normalizeProviderName returns a lower-cased provider name, deriving it from
// the instance type when not configured. Used as the provider label in
// metrics and logs.
func normalizeProviderName(raw string, provider providers.LiveScoreProvider) string {
	if raw != "" {
		return strings.ToLower(raw)
	}
	if provider != nil {
		return strings.ToLower(fmt.Sprintf("%T", provider))
	}
	return "provider"
}
