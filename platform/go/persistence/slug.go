package persistence

import (
	"regexp"
	"strings"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const maxSlugLength = 63

// NormalizeSlug lowercases and trims a tenant slug and checks it is kebab-case.
func NormalizeSlug(input string) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(input))
	switch {
	case slug == "":
		return "", apperr.InvalidField("slug", "is required")
	case len(slug) > maxSlugLength:
		return "", apperr.InvalidField("slug", "must be at most 63 characters")
	case !slugPattern.MatchString(slug):
		return "", apperr.InvalidField("slug", "must be kebab-case")
	}
	return slug, nil
}
