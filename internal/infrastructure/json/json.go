// Package json wraps request decoding and response encoding so every
// handler speaks the same envelope.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxRequestBody = 1 << 20 // 1 MiB

// Read decodes the request body into dst, rejecting unknown fields,
// trailing data and oversized payloads.
func Read(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}

	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}

	return nil
}

// ReadOptional decodes like Read but treats an absent body as dst's
// zero value, for endpoints whose body exists only to carry optional
// fields. Truncated or malformed JSON still errors.
func ReadOptional(r *http.Request, dst any) error {
	err := Read(r, dst)
	if err != nil && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
