// Package normalize centralizes the canonical forms CasaLink stores and
// compares: emails are lowercased, names keep their case, roles and
// statuses are lowercased tokens.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases and trims a role token (tenant, landlord, admin).
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status lowercases and trims a status token, defaulting to "active"
// when empty.
func Status(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "active"
	}
	return s
}
