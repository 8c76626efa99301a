package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/storefront/internal/apperrors"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON document from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &apperrors.Error{Kind: apperrors.KindValidation, Message: "Request body is required", Cause: err}
		}
		return &apperrors.Error{Kind: apperrors.KindValidation, Message: "Invalid request body", Cause: err}
	}
	if dec.More() {
		return apperrors.Validation("Invalid request body")
	}
	return nil
}

// productIDParam parses the {id} URL parameter.
func productIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &apperrors.Error{
			Kind:    apperrors.KindValidation,
			Message: "Invalid ID supplied",
			Cause:   fmt.Errorf("product id %q", raw),
		}
	}
	return id, nil
}
