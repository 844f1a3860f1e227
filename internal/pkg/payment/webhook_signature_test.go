package payment

import (
	"testing"
	"time"
)

func TestVerifyWebhookSignature_Valid(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	now := time.Unix(1700000000, 0)
	header := SignPayload(payload, "whsec_test", now)

	if !VerifyWebhookSignature(payload, header, "whsec_test", now) {
		t.Fatalf("expected valid signature to verify")
	}
}

func TestVerifyWebhookSignature_WrongSecret(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_1"}`)
	now := time.Unix(1700000000, 0)
	header := SignPayload(payload, "whsec_test", now)

	if VerifyWebhookSignature(payload, header, "whsec_other", now) {
		t.Fatalf("expected signature with wrong secret to fail")
	}
}

func TestVerifyWebhookSignature_TamperedPayload(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_1"}`)
	now := time.Unix(1700000000, 0)
	header := SignPayload(payload, "whsec_test", now)

	if VerifyWebhookSignature([]byte(`{"id":"evt_2"}`), header, "whsec_test", now) {
		t.Fatalf("expected tampered payload to fail verification")
	}
}

func TestVerifyWebhookSignature_ExpiredTimestamp(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_1"}`)
	signedAt := time.Unix(1700000000, 0)
	header := SignPayload(payload, "whsec_test", signedAt)

	now := signedAt.Add(DefaultSignatureTolerance + time.Second)
	if VerifyWebhookSignature(payload, header, "whsec_test", now) {
		t.Fatalf("expected stale signature to be rejected as a replay")
	}
}

func TestVerifyWebhookSignature_FutureTimestamp(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_1"}`)
	signedAt := time.Unix(1700000000, 0)
	header := SignPayload(payload, "whsec_test", signedAt)

	now := signedAt.Add(-DefaultSignatureTolerance - time.Second)
	if VerifyWebhookSignature(payload, header, "whsec_test", now) {
		t.Fatalf("expected far-future signature to be rejected")
	}
}

func TestVerifyWebhookSignature_MalformedHeader(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_1"}`)
	now := time.Unix(1700000000, 0)

	for _, header := range []string{
		"",
		"garbage",
		"t=abc,v1=00",
		"v1=deadbeef",
		"t=1700000000",
	} {
		if VerifyWebhookSignature(payload, header, "whsec_test", now) {
			t.Fatalf("expected malformed header %q to fail", header)
		}
	}
}

func TestVerifyWebhookSignature_MultipleCandidates(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_1"}`)
	now := time.Unix(1700000000, 0)
	header := SignPayload(payload, "whsec_test", now) + ",v1=deadbeef"

	if !VerifyWebhookSignature(payload, header, "whsec_test", now) {
		t.Fatalf("expected verification to accept any matching candidate")
	}
}
