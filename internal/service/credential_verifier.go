package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier checks the privileged admin password. A nil error means
// the password is valid; any error denies the request.
type CredentialVerifier interface {
	Verify(ctx context.Context, password string) error
}

type bcryptVerifier struct {
	hash    []byte
	timeout time.Duration
	compare func(hash, password []byte) error
}

// NewAdminVerifier compares passwords against a bcrypt hash. An empty hash
// rejects every password.
func NewAdminVerifier(passwordHash string, timeout time.Duration) CredentialVerifier {
	return &bcryptVerifier{
		hash:    []byte(passwordHash),
		timeout: timeout,
		compare: bcrypt.CompareHashAndPassword,
	}
}

func (v *bcryptVerifier) Verify(ctx context.Context, password string) error {
	if len(v.hash) == 0 {
		return fmt.Errorf("%w: no admin password configured", ErrCredentialCheckFailed)
	}
	if password == "" {
		return ErrInvalidCredential
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	result := make(chan error, 1)
	go func() {
		result <- v.compare(v.hash, []byte(password))
	}()

	select {
	case err := <-result:
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return ErrInvalidCredential
		default:
			return fmt.Errorf("%w: %v", ErrCredentialCheckFailed, err)
		}
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrCredentialCheckFailed, ctx.Err())
	}
}

// HashPassword returns the bcrypt hash stored as admin.password_hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(hash), nil
}
