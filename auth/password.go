package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"social-media-restful/config"
)

// ErrPasswordMismatch is returned by Verify when the password does not match.
var ErrPasswordMismatch = errors.New("password mismatch")

// PasswordHasher turns a password into its stored form and checks a
// candidate against a stored value.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(stored, password string) error
}

// NewPasswordHasher returns the hasher for a configured password scheme.
func NewPasswordHasher(scheme string) (PasswordHasher, error) {
	switch scheme {
	case config.PasswordSchemePlain:
		return PlainHasher{}, nil
	case config.PasswordSchemeBcrypt:
		return NewBcryptHasher(bcrypt.DefaultCost), nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
}

// PlainHasher keeps the legacy behaviour: the password is stored as given
// and compared byte for byte.
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) {
	return password, nil
}

func (PlainHasher) Verify(stored, password string) error {
	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// BcryptHasher stores bcrypt hashes of the base64 SHA-256 digest of the
// password, so passwords longer than bcrypt's 72-byte input limit are
// accepted and fully significant.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(prehash(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(stored, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(stored), prehash(password))
	if err == nil {
		return nil
	}
	// a stored value that is not a bcrypt hash cannot match either
	var prefixErr bcrypt.InvalidHashPrefixError
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrHashTooShort) || errors.As(err, &prefixErr) {
		return ErrPasswordMismatch
	}
	return fmt.Errorf("comparing password hash: %w", err)
}

// prehash maps any password to 44 bytes of bcrypt input.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}
