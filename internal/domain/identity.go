package domain

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultCodeLength matches what people can read off a screen and
	// type on a phone without a typo.
	DefaultCodeLength = 5

	// DefaultCodeAlphabet drops 0/O/1/I to avoid ambiguous glyphs.
	DefaultCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// NewIdentity returns an opaque user identifier. Generation cannot fail;
// uniqueness against existing rooms is the registry's job, not ours.
func NewIdentity() string {
	return uuid.NewString()
}

// CodePolicy controls how room codes are generated. The alphabet and
// length are deployment policy, not a contract.
type CodePolicy struct {
	Alphabet string
	Length   int
}

func DefaultCodePolicy() CodePolicy {
	return CodePolicy{
		Alphabet: DefaultCodeAlphabet,
		Length:   DefaultCodeLength,
	}
}

// Generate draws a room code from the policy's alphabet using crypto/rand.
func (p CodePolicy) Generate() (string, error) {
	alphabet := p.Alphabet
	if alphabet == "" {
		alphabet = DefaultCodeAlphabet
	}
	length := p.Length
	if length <= 0 {
		length = DefaultCodeLength
	}

	charsetLen := big.NewInt(int64(len(alphabet)))

	var sb strings.Builder
	sb.Grow(length)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[n.Int64()])
	}

	return sb.String(), nil
}

// NormalizeCode makes lookups case-insensitive. Codes are stored uppercase.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
