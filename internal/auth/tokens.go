package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrUnauthorized = errors.New("unauthorized")

// StaffTokens maps a staff id to the bcrypt hash of its API secret.
type StaffTokens map[string]string

// Verify checks a bearer credential of the form "<staffID>:<secret>" and
// returns the staff id.
func (st StaffTokens) Verify(credential string) (string, error) {
	staffID, secret, ok := strings.Cut(credential, ":")
	if !ok || staffID == "" || secret == "" {
		return "", ErrUnauthorized
	}
	hash, ok := st[staffID]
	if !ok {
		// Compare anyway so unknown ids cost the same as wrong secrets.
		bcrypt.CompareHashAndPassword(dummyHash, []byte(secret))
		return "", ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return "", ErrUnauthorized
	}
	return staffID, nil
}

// HashSecret produces the value stored in StaffTokens.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

var dummyHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOHiA0AOUOmRQRUu6rDvQ8dCdcA9P5fJO")
