// Package timeouts centralizes the context deadlines put on Mongo and
// identity operations so handlers and workers stay consistent.
//
// Picking a tier:
//   - Ping: health-check connectivity probes
//   - Short: single-document reads and writes (property lookups,
//     bill payment, unit assignment)
//   - Medium: list queries and login, which re-verifies credentials
//     with bcrypt
//   - Long: tenant provisioning, which creates an identity, writes the
//     user record, and restores the landlord session
//   - Sweep: the periodic pass that flips due pending bills to overdue
package timeouts

import "time"

const (
	ping   = 2 * time.Second
	short  = 5 * time.Second
	medium = 10 * time.Second
	long   = 30 * time.Second
	sweep  = 60 * time.Second
)

// Ping returns the deadline for connectivity probes.
func Ping() time.Duration { return ping }

// Short returns the deadline for simple single-document operations.
func Short() time.Duration { return short }

// Medium returns the deadline for list queries and credential checks.
func Medium() time.Duration { return medium }

// Long returns the deadline for multi-step flows such as tenant
// provisioning, where several identity and store calls share one
// context.
func Long() time.Duration { return long }

// Sweep returns the deadline for the overdue-bill sweep, whose
// UpdateMany can touch every pending bill in the collection.
func Sweep() time.Duration { return sweep }
