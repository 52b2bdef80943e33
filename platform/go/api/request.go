package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
)

const maxBodyBytes = 1 << 20

// Decode reads a JSON body into dst. Field validation belongs to the services.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.Invalid("request body is required", nil)
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("request body is required", nil)
		}
		return apperr.Invalid("malformed JSON body: "+err.Error(), nil)
	}
	return nil
}

// PathUUID parses the chi URL parameter name as a UUID.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.InvalidField(name, "must be a UUID")
	}
	return id, nil
}
