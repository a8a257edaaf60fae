package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidAnchor is returned when an anchor field is missing, not an
	// integer, or not positive.
	ErrInvalidAnchor = errors.New("invalid anchor")

	// ErrEmptyOutline is returned when the outline has no leaves.
	ErrEmptyOutline = errors.New("empty outline")

	// ErrMalformedTree is returned when a node is reachable more than once.
	ErrMalformedTree = errors.New("malformed outline tree")

	// ErrNoPages is returned when the page store holds no pages.
	ErrNoPages = errors.New("no physical pages")
)

// Anchor ties the first leaf's printed page to the physical page file where
// its content actually begins.
type Anchor struct {
	FirstLeafPrintedPage    int `json:"first_leaf_printed_page"`
	FirstLeafActualFilePage int `json:"first_leaf_actual_file_page"`
}

// ResolveOffset returns the shift from printed to physical page numbers.
// The offset may be negative.
func ResolveOffset(a Anchor) (int, error) {
	if a.FirstLeafPrintedPage <= 0 {
		return 0, fmt.Errorf("%w: first_leaf_printed_page must be positive, got %d", ErrInvalidAnchor, a.FirstLeafPrintedPage)
	}
	if a.FirstLeafActualFilePage <= 0 {
		return 0, fmt.Errorf("%w: first_leaf_actual_file_page must be positive, got %d", ErrInvalidAnchor, a.FirstLeafActualFilePage)
	}
	return a.FirstLeafActualFilePage - a.FirstLeafPrintedPage, nil
}

// ParseAnchor decodes an anchor from JSON, rejecting missing fields and
// non-integer values.
func ParseAnchor(data []byte) (Anchor, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return Anchor{}, fmt.Errorf("%w: %v", ErrInvalidAnchor, err)
	}

	printed, err := anchorField(raw, "first_leaf_printed_page")
	if err != nil {
		return Anchor{}, err
	}
	actual, err := anchorField(raw, "first_leaf_actual_file_page")
	if err != nil {
		return Anchor{}, err
	}

	a := Anchor{FirstLeafPrintedPage: printed, FirstLeafActualFilePage: actual}
	if _, err := ResolveOffset(a); err != nil {
		return Anchor{}, err
	}
	return a, nil
}

func anchorField(raw map[string]any, name string) (int, error) {
	v, ok := raw[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s is missing", ErrInvalidAnchor, name)
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a number", ErrInvalidAnchor, name)
	}
	i, err := num.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer: %s", ErrInvalidAnchor, name, num)
	}
	return int(i), nil
}
