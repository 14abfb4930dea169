// Package reqjson decodes JSON request bodies with a hard size cap.
//
// Every mutating handler reads its body through Decode so an oversized or
// malformed payload becomes a uniform 400 instead of ad hoc handling in
// each feature.
package reqjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/quorum/internal/app/system/apierr"
	"github.com/dalemusser/quorum/internal/app/system/limits"
)

// Decode reads r's body into dst, rejecting bodies over
// limits.MaxJSONBodySize and trailing garbage after the JSON value.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apierr.Validation("request body too large")
		case errors.Is(err, io.EOF):
			return apierr.Validation("request body is empty")
		default:
			return apierr.Wrap(apierr.KindValidation, "malformed JSON body", err)
		}
	}
	if dec.More() {
		return apierr.Validation("unexpected data after JSON body")
	}
	return nil
}
