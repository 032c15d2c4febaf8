package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodySize caps request bodies. Backup restores carry the whole ledger,
// so the limit is generous.
const maxBodySize = 16 << 20

var errEmptyBody = errors.New("empty request body")

// decodeBody reads a JSON request body into dst, enforcing the size cap and
// rejecting trailing garbage after the document.
func decodeBody(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodySize)
	dec := json.NewDecoder(body)

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("decode request body: %w", err)
	}
	if dec.More() {
		return errors.New("unexpected data after JSON document")
	}
	return nil
}

// propertyFilter reads the optional propertyId query parameter used by the
// revenue, expense and invoice list endpoints.
func propertyFilter(r *http.Request) string {
	return r.URL.Query().Get("propertyId")
}
