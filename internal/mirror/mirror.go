// Package mirror imports pre-built package indexes hosted elsewhere. Entries
// are passed through to the output verbatim: no per-package validation, and a
// malformed mirror is a fatal error.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Fetch downloads a package index from url and returns its entries as raw
// JSON. The document may be a bare array of packages or an object exposing
// the array under a "packages" or "data" key.
func Fetch(ctx context.Context, client *http.Client, url string) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching mirror %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching mirror %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading mirror %s: %w", url, err)
	}

	return Parse(body)
}

// Parse extracts the package list from an index document.
func Parse(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Packages json.RawMessage `json:"packages"`
			Data     json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("parsing mirror index: %w", err)
		}
		switch {
		case len(envelope.Packages) > 0 && !bytes.Equal(envelope.Packages, []byte("null")):
			body = envelope.Packages
		case len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")):
			body = envelope.Data
		default:
			return []json.RawMessage{}, nil
		}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("parsing mirror package list: %w", err)
	}
	return entries, nil
}
