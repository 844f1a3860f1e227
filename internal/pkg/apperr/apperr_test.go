package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorUnwrapsToKind(t *testing.T) {
	err := New(ErrNotFound, "Order not found")

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected error to match its kind")
	}
	if err.Error() != "Order not found" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !IsNotFound(err) {
		t.Fatalf("IsNotFound should match")
	}
	if IsNotFound(New(ErrUnauthorized, "nope")) {
		t.Fatalf("IsNotFound must not match other kinds")
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(New(ErrTooSoon, "wait a day")); got != "wait a day" {
		t.Fatalf("MessageOf = %q", got)
	}

	// wrapped sentinel still surfaces its message
	wrapped := fmt.Errorf("store: %w", ErrAlreadyUsed)
	if got := MessageOf(wrapped); got != wrapped.Error() {
		t.Fatalf("MessageOf(wrapped) = %q", got)
	}

	// unknown errors never leak internals
	if got := MessageOf(errors.New("dial tcp: connection refused")); got != "Something went wrong" {
		t.Fatalf("MessageOf(unknown) = %q", got)
	}
}

func TestRedirectOf(t *testing.T) {
	err := New(ErrUnauthorized, "subscribe first").WithRedirect("/page/subscriptions")
	if got := RedirectOf(err); got != "/page/subscriptions" {
		t.Fatalf("RedirectOf = %q", got)
	}
	if got := RedirectOf(errors.New("plain")); got != "" {
		t.Fatalf("RedirectOf(plain) = %q, want empty", got)
	}
}
