package game

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/pixil98/go-errors"
	"golang.org/x/text/unicode/norm"
)

var namePattern = regexp.MustCompile(`^[\p{L}][\p{L}\p{N}]{2,19}$`)

// Account is the persistent record for a login identity. Characters are
// referenced by key so the account row stays small.
type Account struct {
	Name         string   `json:"name"`
	PasswordHash string   `json:"password_hash"`
	Permission   int      `json:"permission,omitempty"`
	Characters   []string `json:"characters,omitempty"`
}

func (a *Account) Validate() error {
	el := errors.NewErrorList()

	if a.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if a.PasswordHash == "" {
		el.Add(fmt.Errorf("password_hash is required"))
	}

	return el.Err()
}

// HasCharacter reports whether key is one of the account's characters.
func (a *Account) HasCharacter(key string) bool {
	for _, c := range a.Characters {
		if c == key {
			return true
		}
	}
	return false
}

// RemoveCharacter drops key from the account's character list.
func (a *Account) RemoveCharacter(key string) {
	for i, c := range a.Characters {
		if c == key {
			a.Characters = append(a.Characters[:i], a.Characters[i+1:]...)
			return
		}
	}
}

// HashPassword produces the stored credential form: hex SHA-256 of the
// client-supplied password hash.
func HashPassword(clientHash string) string {
	sum := sha256.Sum256([]byte(clientHash))
	return hex.EncodeToString(sum[:])
}

// NormalizeName canonicalizes a character or account name for use as a
// storage key: NFC-normalized and lowercased.
func NormalizeName(name string) string {
	return strings.ToLower(norm.NFC.String(name))
}

// ValidName reports whether a display name is acceptable: letters and
// digits, starting with a letter, 3 to 20 runes.
func ValidName(name string) bool {
	return namePattern.MatchString(norm.NFC.String(name))
}
