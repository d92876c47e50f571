package auth

import (
	"errors"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the bcrypt work factor for stored hashes.
const PasswordHashCost = 10

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. A mismatch is not an
// error; a malformed hash is.
func CheckPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// PrepareDummyHash builds the throwaway hash used by DummyCheckPassword.
// Call it at startup so the first lookup miss does not pay for hashing.
func PrepareDummyHash() {
	dummyOnce.Do(func() {
		secret, err := common.MakeRandHexString(16)
		if err != nil {
			secret = "authkeeper-dummy-password"
		}
		dummyHash, _ = HashPassword(secret)
	})
}

// DummyCheckPassword runs a bcrypt comparison against a throwaway hash so a
// lookup miss costs about as much as a wrong password.
func DummyCheckPassword(password string) {
	PrepareDummyHash()
	_, _ = CheckPassword(dummyHash, password)
}
