package validate

import (
	"fmt"
	"regexp"
	"time"
)

// Tenant and user identifiers: lowercase letters, digits, underscore,
// hyphen, 1-64 chars. Tenants are bot namespaces, users are chat user ids.
var idRx = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

const maxContentBytes = 16_000

// TenantID validates a tenant (bot namespace) identifier.
func TenantID(v string) error {
	if v == "" {
		return fmt.Errorf("tenantId is required")
	}
	if !idRx.MatchString(v) {
		return fmt.Errorf("tenantId must match %s", idRx.String())
	}
	return nil
}

// UserID validates a chat user identifier.
func UserID(v string) error {
	if v == "" {
		return fmt.Errorf("userId is required")
	}
	if !idRx.MatchString(v) {
		return fmt.Errorf("userId must match %s", idRx.String())
	}
	return nil
}

// Content bounds turn content.
func Content(v string) error {
	if v == "" {
		return fmt.Errorf("content is required")
	}
	if len(v) > maxContentBytes {
		return fmt.Errorf("content exceeds %d bytes", maxContentBytes)
	}
	return nil
}

// Role checks the turn author.
func Role(v string) error {
	if v != "user" && v != "assistant" {
		return fmt.Errorf("role must be \"user\" or \"assistant\"")
	}
	return nil
}

// Window parses a history window like "24h" or "90m", bounded to 30 days.
func Window(v string) (time.Duration, error) {
	if v == "" {
		return 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid window %q", v)
	}
	if d <= 0 || d > 30*24*time.Hour {
		return 0, fmt.Errorf("window must be positive and at most 720h")
	}
	return d, nil
}

// Limit bounds result cardinality, substituting def when absent.
func Limit(v int, def int) (int, error) {
	if v == 0 {
		return def, nil
	}
	if v < 0 || v > 500 {
		return 0, fmt.Errorf("limit must be between 1 and 500")
	}
	return v, nil
}
