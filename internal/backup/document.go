package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"rentledger/internal/core"
)

// FormatVersion is stamped into every backup document.
const FormatVersion = "1.0.0"

var (
	ErrVersionMismatch = errors.New("unsupported backup version")
	ErrTotalsMismatch  = errors.New("backup totals do not match record counts")
)

type Metadata struct {
	Version         string    `json:"version"`
	CreatedAt       time.Time `json:"createdAt"`
	TotalProperties int       `json:"totalProperties"`
	TotalRevenues   int       `json:"totalRevenues"`
	TotalExpenses   int       `json:"totalExpenses"`
}

// Document is the portable backup of the three ledger collections.
type Document struct {
	Properties []core.Property `json:"properties"`
	Revenues   []core.Revenue  `json:"revenues"`
	Expenses   []core.Expense  `json:"expenses"`
	Metadata   Metadata        `json:"metadata"`
}

// NewDocument wraps a snapshot with versioned metadata.
func NewDocument(snap core.Snapshot, now time.Time) Document {
	return Document{
		Properties: snap.Properties,
		Revenues:   snap.Revenues,
		Expenses:   snap.Expenses,
		Metadata: Metadata{
			Version:         FormatVersion,
			CreatedAt:       now,
			TotalProperties: len(snap.Properties),
			TotalRevenues:   len(snap.Revenues),
			TotalExpenses:   len(snap.Expenses),
		},
	}
}

// Validate checks the document end to end before any restore touches the
// store: version, totals, record validity and referential integrity.
func (d Document) Validate() error {
	if d.Metadata.Version != FormatVersion {
		return fmt.Errorf("%w: %q", ErrVersionMismatch, d.Metadata.Version)
	}
	if d.Metadata.TotalProperties != len(d.Properties) ||
		d.Metadata.TotalRevenues != len(d.Revenues) ||
		d.Metadata.TotalExpenses != len(d.Expenses) {
		return ErrTotalsMismatch
	}

	known := make(map[string]bool, len(d.Properties))
	for i, p := range d.Properties {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("property %d (%s): %w", i, p.ID, err)
		}
		known[p.ID] = true
	}
	for i, r := range d.Revenues {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("revenue %d (%s): %w", i, r.ID, err)
		}
		if !known[r.PropertyID] {
			return fmt.Errorf("revenue %d (%s): %w", i, r.ID, core.ErrPropertyNotFound)
		}
	}
	for i, e := range d.Expenses {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("expense %d (%s): %w", i, e.ID, err)
		}
		if !known[e.PropertyID] {
			return fmt.Errorf("expense %d (%s): %w", i, e.ID, core.ErrPropertyNotFound)
		}
	}
	return nil
}

// Snapshot returns the ledger collections carried by the document.
func (d Document) Snapshot() core.Snapshot {
	return core.Snapshot{
		Properties: d.Properties,
		Revenues:   d.Revenues,
		Expenses:   d.Expenses,
	}
}

// Encode writes the document as indented JSON.
func (d Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// Decode parses a backup document without validating it.
func Decode(r io.Reader) (Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Document{}, fmt.Errorf("decode backup: %w", err)
	}
	return d, nil
}
