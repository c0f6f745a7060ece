// Package passwd produces crypt(3) hashes accepted by kickstart's rootpw --iscrypted.
package passwd

import (
	"fmt"
	"strings"

	"github.com/GehirnInc/crypt"
	_ "github.com/GehirnInc/crypt/md5_crypt"
	_ "github.com/GehirnInc/crypt/sha512_crypt"
)

const (
	SchemeSHA512 = "sha512"
	SchemeMD5    = "md5"
)

func crypterFor(scheme string) (crypt.Crypter, error) {
	switch strings.ToLower(scheme) {
	case SchemeSHA512:
		return crypt.SHA512.New(), nil
	case SchemeMD5:
		return crypt.MD5.New(), nil
	default:
		return nil, fmt.Errorf("unsupported password scheme: %s (valid: sha512, md5)", scheme)
	}
}

// Hash trims surrounding whitespace from plaintext and hashes it with a random salt.
func Hash(scheme, plaintext string) (string, error) {
	return HashWithSalt(scheme, plaintext, "")
}

// HashWithSalt hashes with an explicit salt such as "$1$redhat$". An empty salt is
// replaced by a random one.
func HashWithSalt(scheme, plaintext, salt string) (string, error) {
	crypter, err := crypterFor(scheme)
	if err != nil {
		return "", err
	}

	var saltBytes []byte
	if salt != "" {
		saltBytes = []byte(salt)
	}

	hashed, err := crypter.Generate([]byte(strings.TrimSpace(plaintext)), saltBytes)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hashed, nil
}

// Verify reports whether hashed matches plaintext.
func Verify(hashed, plaintext string) bool {
	var crypter crypt.Crypter
	switch {
	case strings.HasPrefix(hashed, "$6$"):
		crypter = crypt.SHA512.New()
	case strings.HasPrefix(hashed, "$1$"):
		crypter = crypt.MD5.New()
	default:
		return false
	}
	return crypter.Verify(hashed, []byte(plaintext)) == nil
}

// ValidScheme reports whether scheme is supported.
func ValidScheme(scheme string) bool {
	_, err := crypterFor(scheme)
	return err == nil
}
