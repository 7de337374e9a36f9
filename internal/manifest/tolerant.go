package manifest

import (
	"encoding/json"
	"fmt"
	"regexp"
)

var (
	commentRe       = regexp.MustCompile(`(?m)(//[^\n]*$)|(/\*(?s:.*?)\*/)`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// ParseError reports a manifest body that failed both the strict parse and
// the relaxed retry.
type ParseError struct {
	Strict  error
	Relaxed error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("manifest is not valid JSON even after stripping comments and trailing commas: %v", e.Relaxed)
}

// Unwrap returns the error from the relaxed parse attempt.
func (e *ParseError) Unwrap() error {
	return e.Relaxed
}

// Parse decodes a manifest body. Strict JSON is tried first; on failure,
// //-style and /* */-style comments and trailing commas are stripped and the
// parse is retried exactly once. The strip is textual, so a strictly invalid
// document containing "//" inside a string value will come out mangled and
// fail the retry.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	strictErr := json.Unmarshal(data, &m)
	if strictErr == nil {
		return &m, nil
	}

	cleaned := commentRe.ReplaceAll(data, nil)
	cleaned = trailingCommaRe.ReplaceAll(cleaned, []byte("$1"))

	var relaxed Manifest
	if err := json.Unmarshal(cleaned, &relaxed); err != nil {
		return nil, &ParseError{Strict: strictErr, Relaxed: err}
	}
	return &relaxed, nil
}
