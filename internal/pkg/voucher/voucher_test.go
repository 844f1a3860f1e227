package voucher

import (
	"strings"
	"testing"
)

func TestGenerate_InvalidLength(t *testing.T) {
	t.Parallel()

	if _, err := Generate(0); err == nil {
		t.Fatalf("expected error for invalid length")
	}
	if _, err := Generate(-4); err == nil {
		t.Fatalf("expected error for negative length")
	}
}

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	t.Parallel()

	code, err := Generate(CodeLength)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(code) != CodeLength {
		t.Fatalf("expected code length %d, got %d", CodeLength, len(code))
	}

	for i := 0; i < len(code); i++ {
		if strings.IndexByte(alphabet, code[i]) == -1 {
			t.Fatalf("code contains invalid character %q", code[i])
		}
	}
}

func TestGenerate_NoAmbiguousCharacters(t *testing.T) {
	t.Parallel()

	if strings.ContainsAny(alphabet, "IO") {
		t.Fatalf("alphabet must not contain ambiguous I or O")
	}
}

func TestGenerate_UniqueWithinSmallBatch(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		code, err := Generate(CodeLength)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, exists := seen[code]; exists {
			t.Fatalf("duplicate code generated in small batch: %s", code)
		}
		seen[code] = struct{}{}
	}
}
