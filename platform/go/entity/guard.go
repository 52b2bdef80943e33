package entity

import "github.com/zenGate-Global/palmyra-gym/platform/go/apperr"

// GuardDelete vetoes deletion of financial records. There is no override.
func GuardDelete(kind Kind) error {
	if kind.Financial {
		return apperr.Invariant(kind.Name, kind.Name+" deletion is not allowed")
	}
	return nil
}

// GuardRestore vetoes restoration of financial records.
func GuardRestore(kind Kind) error {
	if kind.Financial {
		return apperr.Invariant(kind.Name, kind.Name+" restoration is not allowed")
	}
	return nil
}
