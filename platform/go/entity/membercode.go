package entity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/tenant"
)

const maxMemberSequence = 99999

// MemberCodePrefix derives "MBR-<PFX>-" from the first four hex characters of the tenant id.
func MemberCodePrefix(tenantID uuid.UUID) string {
	return "MBR-" + strings.ToUpper(tenant.ShortID(tenantID, 4)) + "-"
}

// FormatMemberCode renders prefix plus a zero-padded five digit sequence.
func FormatMemberCode(prefix string, seq int) string {
	return fmt.Sprintf("%s%05d", prefix, seq)
}

// ParseMemberSequence extracts the trailing sequence of a code carrying prefix.
// Anything other than exactly five digits after the prefix is rejected.
func ParseMemberSequence(prefix, code string) (int, error) {
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `(\d{5})$`)
	m := re.FindStringSubmatch(code)
	if m == nil {
		return 0, apperr.InvalidField("code", "unparseable member code sequence")
	}
	seq, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, apperr.InvalidField("code", "unparseable member code sequence")
	}
	return seq, nil
}

// NextMemberCode returns the code following latest. An empty or unparseable
// latest code restarts the sequence at 1.
func NextMemberCode(prefix, latest string) (string, error) {
	next := 1
	if latest != "" {
		if seq, err := ParseMemberSequence(prefix, latest); err == nil {
			next = seq + 1
		}
	}
	if next > maxMemberSequence {
		return "", apperr.Conflict(Member.Name, "member code sequence exhausted")
	}
	return FormatMemberCode(prefix, next), nil
}
