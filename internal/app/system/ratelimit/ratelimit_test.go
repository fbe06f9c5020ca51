package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowUpToLimit(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("attempt %d blocked, want allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("attempt 4 allowed, want blocked")
	}

	// Other keys are unaffected.
	if !l.Allow("other") {
		t.Error("different key blocked")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)

	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("second attempt allowed before reset")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("attempt blocked after reset")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"remote addr with port", "203.0.113.9:4521", "", "", "203.0.113.9"},
		{"x-forwarded-for wins", "10.0.0.1:80", "198.51.100.7, 10.0.0.2", "", "198.51.100.7"},
		{"x-real-ip fallback", "10.0.0.1:80", "", "198.51.100.8", "198.51.100.8"},
		{"remote addr without port", "203.0.113.9", "", "", "203.0.113.9"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/login", nil)
			r.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				r.Header.Set("X-Real-IP", tc.xri)
			}
			if got := ClientIP(r); got != tc.want {
				t.Errorf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLoginLimiter_BlocksTargetedEmail(t *testing.T) {
	ll := &LoginLimiter{
		ipLimiter:    New(100, time.Minute),
		emailLimiter: New(2, time.Minute),
	}

	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "203.0.113.9:4521"

	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Target@Example.com"); !ok {
			t.Fatalf("attempt %d blocked, want allowed", i+1)
		}
	}
	// Case and whitespace variants hit the same counter.
	if ok, reason := ll.Check(r, "  target@example.com "); ok {
		t.Error("third attempt allowed, want blocked")
	} else if reason == "" {
		t.Error("blocked attempt returned empty reason")
	}

	ll.ResetEmail("TARGET@example.com")
	if ok, _ := ll.Check(r, "target@example.com"); !ok {
		t.Error("attempt blocked after ResetEmail")
	}
}

func TestLoginLimiter_BlocksByIP(t *testing.T) {
	ll := &LoginLimiter{
		ipLimiter:    New(1, time.Minute),
		emailLimiter: New(100, time.Minute),
	}

	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "203.0.113.9:4521"

	if ok, _ := ll.Check(r, "a@example.com"); !ok {
		t.Fatal("first attempt blocked")
	}
	// Different email, same IP.
	if ok, _ := ll.Check(r, "b@example.com"); ok {
		t.Error("second attempt from same IP allowed, want blocked")
	}
}
