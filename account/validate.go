package account

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/deemkeen/anancus/domain"
	"golang.org/x/net/idna"
)

const (
	maxUsernameLen    = 30
	maxDisplayNameLen = 30
	maxNoteLen        = 160
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateLocalUsername enforces the registration character set and length.
// Remote usernames are mirrors of foreign state and skip this.
func ValidateLocalUsername(username string) error {
	if username == "" {
		return domain.Validationf("username is empty")
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return domain.Validationf("username longer than %d characters", maxUsernameLen)
	}
	if !usernameRe.MatchString(username) {
		return domain.Validationf("username may only contain letters, digits and underscore")
	}
	return nil
}

// ValidateLocalProfile bounds display name and note lengths for local
// accounts.
func ValidateLocalProfile(displayName, note string) error {
	if utf8.RuneCountInString(displayName) > maxDisplayNameLen {
		return domain.Validationf("display name longer than %d characters", maxDisplayNameLen)
	}
	if utf8.RuneCountInString(note) > maxNoteLen {
		return domain.Validationf("note longer than %d characters", maxNoteLen)
	}
	return nil
}

// NormalizeDomain lowercases, strips a trailing dot and applies punycode
// normalization. This must match the federation layer byte for byte,
// otherwise the same remote account gets mirrored twice.
func NormalizeDomain(domainName string) (string, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(domainName), ".")
	if trimmed == "" {
		return "", domain.Validationf("domain is empty")
	}
	normalized, err := idna.Lookup.ToASCII(strings.ToLower(trimmed))
	if err != nil {
		return "", domain.Validationf("invalid domain %q: %v", domainName, err)
	}
	return normalized, nil
}
