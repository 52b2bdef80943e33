package persistence

import (
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"

	"github.com/zenGate-Global/palmyra-gym/platform/go/entity"
)

var tableNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// kindTable returns the quoted table of a registered kind. Kinds built outside
// the entity registry are refused so arbitrary names never reach SQL.
func kindTable(kind entity.Kind) (string, error) {
	registered, ok := entity.Lookup(kind.Name)
	if !ok || registered.Table != kind.Table {
		return "", fmt.Errorf("unknown entity kind %q", kind.Name)
	}
	if !tableNamePattern.MatchString(kind.Table) {
		return "", fmt.Errorf("invalid table name %q for kind %s", kind.Table, kind.Name)
	}
	return pgx.Identifier{kind.Table}.Sanitize(), nil
}
