package voucher

import (
	"crypto/rand"
	"fmt"
)

const alphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// CodeLength is the length of generated gift redemption codes.
const CodeLength = 16

// Generate creates a cryptographically secure random voucher code. The
// alphabet drops the ambiguous I and O characters so codes survive being
// read aloud or retyped.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length: %d", length)
	}

	// Rejection sampling to avoid modulo bias.
	// 238 is the largest multiple of 34 below 256.
	const maxRandomByte = 238

	code := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			code[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(code), nil
}
