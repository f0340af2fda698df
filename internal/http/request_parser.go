// This file implements parsing and validation of request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads one JSON object from the request body into v. Unknown
// fields and trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// requireQuery returns the named query values, failing on the first one that
// is absent or blank.
func requireQuery(query url.Values, names ...string) ([]string, error) {
	values := make([]string, len(names))
	for i, name := range names {
		v := strings.TrimSpace(query.Get(name))
		if v == "" {
			return nil, fmt.Errorf("missing required query parameter %q", name)
		}
		values[i] = v
	}
	return values, nil
}

// parseID reads the {id} path segment.
func parseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid expense id %q", raw)
	}
	return id, nil
}

// addRequest is the body of POST /expenses. Pointers distinguish a missing
// required field from a zero value.
type addRequest struct {
	Date        *string  `json:"date"`
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	Subcategory string   `json:"subcategory"`
	Note        string   `json:"note"`
}

func (a addRequest) validate() error {
	var missing []string
	if a.Date == nil {
		missing = append(missing, "date")
	}
	if a.Amount == nil {
		missing = append(missing, "amount")
	}
	if a.Category == nil {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
