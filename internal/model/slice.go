package model

import (
	"fmt"
	"time"
)

// Day is a calendar date in ISO form (YYYY-MM-DD).
//
// Cohorts are keyed by the day entities reached the edge's from-state, so all
// temporal arithmetic in the engine is in whole days.
type Day string

// dayLayout is the only accepted date layout.
const dayLayout = "2006-01-02"

// ParseDay validates and returns a Day.
func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(dayLayout, s); err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Day(s), nil
}

// DayOf truncates a time to its calendar day (UTC).
func DayOf(t time.Time) Day {
	return Day(t.UTC().Format(dayLayout))
}

// Time returns the day as a UTC midnight timestamp. Invalid days return the
// zero time; construction via ParseDay rules that out.
func (d Day) Time() time.Time {
	t, err := time.Parse(dayLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsZero reports whether the day is unset.
func (d Day) IsZero() bool { return d == "" }

// Before reports whether d is strictly earlier than other.
func (d Day) Before(other Day) bool { return string(d) < string(other) }

// After reports whether d is strictly later than other.
func (d Day) After(other Day) bool { return string(d) > string(other) }

// DaysBetween returns the signed number of days from 'from' to 'to'.
func DaysBetween(from, to Day) float64 {
	return to.Time().Sub(from.Time()).Hours() / 24
}

// ScopeMode distinguishes the two slice shapes.
type ScopeMode string

const (
	// ScopeWindow is an observation-window slice: header totals plus the
	// forecast scalar from mature cohorts.
	ScopeWindow ScopeMode = "window"

	// ScopeCohort is a cohort slice: per-day arrays anchored at an upstream node.
	ScopeCohort ScopeMode = "cohort"
)

// SliceScope describes what a parameter slice covers.
type SliceScope struct {
	Mode   ScopeMode `json:"mode" yaml:"mode"`
	Anchor string    `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Start  Day       `json:"start" yaml:"start"`
	End    Day       `json:"end" yaml:"end"`

	// Signature is the canonical dimension signature (context/case/visited
	// narrowing) this slice was retrieved under. Empty means unnarrowed.
	Signature string `json:"signature,omitempty" yaml:"signature,omitempty"`
}

// ParameterValue is one retrieved slice of a probability parameter.
//
// Slice values are append-only source data owned by the external file store;
// the engine reads them and never writes back. A slice carries either per-day
// arrays (cohort slices) or header totals (window slices), never both halves
// authoritative at once: daily arrays win when present.
type ParameterValue struct {
	Scope SliceScope `json:"scope" yaml:"scope"`

	Dates  []Day     `json:"dates,omitempty" yaml:"dates,omitempty"`
	NDaily []float64 `json:"n_daily,omitempty" yaml:"n_daily,omitempty"`
	KDaily []float64 `json:"k_daily,omitempty" yaml:"k_daily,omitempty"`

	MedianLagDaily []float64 `json:"median_lag_daily,omitempty" yaml:"median_lag_daily,omitempty"`
	MeanLagDaily   []float64 `json:"mean_lag_daily,omitempty" yaml:"mean_lag_daily,omitempty"`

	N *float64 `json:"n,omitempty" yaml:"n,omitempty"`
	K *float64 `json:"k,omitempty" yaml:"k,omitempty"`

	// Forecast is the p-infinity scalar. Stored on window slices only.
	Forecast *float64 `json:"forecast,omitempty" yaml:"forecast,omitempty"`

	RetrievedAt time.Time `json:"retrieved_at,omitempty" yaml:"retrieved_at,omitempty"`
}

// HasDaily reports whether the slice carries usable per-day arrays.
func (v *ParameterValue) HasDaily() bool {
	return len(v.Dates) > 0 && len(v.NDaily) == len(v.Dates) && len(v.KDaily) == len(v.Dates)
}

// CohortSample is one cohort's derived observation.
type CohortSample struct {
	Date Day     `json:"date"`
	N    float64 `json:"n"`
	K    float64 `json:"k"`

	// RawAge is queryDate minus cohortDate, in days.
	RawAge float64 `json:"raw_age"`

	// AdjustedAge subtracts the anchor path's typical propagation delay,
	// floored at zero.
	AdjustedAge float64 `json:"adjusted_age"`

	// Completeness is the fitted CDF evaluated at AdjustedAge.
	Completeness float64 `json:"completeness"`
}
