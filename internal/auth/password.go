// Package auth — password hashing utilities.
//
// bcrypt is deliberately slow, generates a per-password salt, and embeds the
// salt and cost in its output, so the hash string is all that needs storing.
// Never store passwords with fast hashes (MD5, SHA-256) — those fall to
// GPU-accelerated cracking in minutes.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly ~250ms on a
// modern server — negligible for login, brutal for attackers.
const defaultCost = 12

// dummyHash is a bcrypt hash of a throwaway string. Login compares against
// it when the username does not exist, so the unknown-user path costs the
// same as a real comparison and an attacker cannot probe for usernames via
// response timing.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// PasswordService provides bcrypt hashing and verification. The cost is a
// struct field so tests can inject the minimum cost and skip the ~250ms per
// operation.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom (low)
// cost. Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt. The output is a
// self-contained string that includes the salt and cost — store it directly.
//
// Returns an error if the plaintext is too long (>72 bytes — a bcrypt limit;
// bcrypt silently truncates longer inputs, so we reject them explicitly).
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil if they match. bcrypt.CompareHashAndPassword is constant-time
// internally, so this is safe against timing attacks on the hash itself.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// VerifyDummy burns one bcrypt comparison against a fixed hash. Callers use
// it on the unknown-user login path to keep timing uniform with the
// known-user path. It always reports failure.
func (p *PasswordService) VerifyDummy(plaintext string) error {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(plaintext))
	return fmt.Errorf("auth: invalid password")
}
