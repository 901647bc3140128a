package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestLimiterSetBurst(t *testing.T) {
	ls := newLimiterSet(rate.Limit(1), 2, time.Minute)
	if !ls.allow("a") || !ls.allow("a") {
		t.Fatal("burst should admit the first two calls")
	}
	if ls.allow("a") {
		t.Fatal("third immediate call should be limited")
	}
	// Independent keys do not share buckets.
	if !ls.allow("b") {
		t.Fatal("fresh key should be admitted")
	}
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/login", nil)
	r.RemoteAddr = "10.1.2.3:5511"
	if got := getClientIP(r); got != "10.1.2.3" {
		t.Fatalf("remote addr ip = %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.1.2.3")
	if got := getClientIP(r); got != "203.0.113.9" {
		t.Fatalf("forwarded ip = %q", got)
	}
}
