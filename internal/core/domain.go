package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefinitionDateLayout is the date-only layout accepted for definition bounds.
const DefinitionDateLayout = "2006-01-02"

type (
	// Transaction is one typed bank record. SourceRow is the generic row it was
	// mapped from and is kept read-only for re-export.
	Transaction struct {
		ID          string
		From        string
		RoutingCode string
		Reason      string
		Amount      float64 // NaN when the literal did not parse
		BalanceText string
		DateText    string // verbatim, never normalized
		SourceRow   map[string]string
	}

	// CustomSummaryDefinition is a user-defined, persisted filter.
	CustomSummaryDefinition struct {
		ID                string   `json:"id" yaml:"id"`
		Name              string   `json:"name" yaml:"name"`
		ReasonMatches     []string `json:"reasonMatches" yaml:"reason_matches"`
		FromMatches       []string `json:"fromMatches,omitempty" yaml:"from_matches,omitempty"`
		DateStart         string   `json:"dateStart,omitempty" yaml:"date_start,omitempty"`
		DateEnd           string   `json:"dateEnd,omitempty" yaml:"date_end,omitempty"`
		TrackTime         bool     `json:"trackTime" yaml:"track_time"`
		TimeReasonMatches []string `json:"timeReasonMatches,omitempty" yaml:"time_reason_matches,omitempty"`
	}

	// Profile is a source and sink of raw CSV text plus its filter definitions.
	Profile struct {
		ID              string
		Name            string
		CSVData         string
		CustomSummaries []CustomSummaryDefinition
		UpdatedAt       time.Time
	}
)

var (
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidDateBound   = errors.New("invalid date bound")
	ErrDateBoundsOrder    = errors.New("date start must not be after date end")
	ErrDefinitionNotFound = errors.New("custom summary definition not found")
)

// Time parses DateText. See ParseDate.
func (t Transaction) Time() (time.Time, bool) {
	return ParseDate(t.DateText)
}

// NewDefinition returns a definition with a fresh id.
func NewDefinition(name string) CustomSummaryDefinition {
	return CustomSummaryDefinition{
		ID:   uuid.NewString(),
		Name: name,
	}
}

// EnsureID assigns a fresh id when the definition has none.
func (d *CustomSummaryDefinition) EnsureID() {
	if strings.TrimSpace(d.ID) == "" {
		d.ID = uuid.NewString()
	}
}

// TimeMatches returns the reason substrings used for session clustering.
func (d CustomSummaryDefinition) TimeMatches() []string {
	if len(d.TimeReasonMatches) > 0 {
		return d.TimeReasonMatches
	}
	return d.ReasonMatches
}

// Bounds returns the parsed inclusive date bounds. A zero time means the bound
// is open.
func (d CustomSummaryDefinition) Bounds() (start, end time.Time, err error) {
	if start, err = ParseDateBound(d.DateStart, false); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("date start %q: %w", d.DateStart, err)
	}
	if end, err = ParseDateBound(d.DateEnd, true); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("date end %q: %w", d.DateEnd, err)
	}
	return start, end, nil
}

// ParseDateBound parses an inclusive filter bound. Blank input is an open
// bound and yields the zero time. A date-only end bound covers the whole day.
func ParseDateBound(s string, end bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, dateOnly, err := parseBound(s)
	if err != nil {
		return time.Time{}, err
	}
	if end && dateOnly {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func (d CustomSummaryDefinition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if len(d.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	start, end, err := d.Bounds()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return ErrDateBoundsOrder
	}
	return nil
}

func parseBound(s string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(DefinitionDateLayout, s); err == nil {
		return t, true, nil
	}
	if t, ok := ParseDate(s); ok {
		return t, false, nil
	}
	return time.Time{}, false, ErrInvalidDateBound
}

// FindDefinition returns the index of the definition with the given id, or -1.
func FindDefinition(defs []CustomSummaryDefinition, id string) int {
	for i, d := range defs {
		if d.ID == id {
			return i
		}
	}
	return -1
}
