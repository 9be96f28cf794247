package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Defaults applied to a new weak signal when the caller leaves a field unset.
const (
	DefaultSignalConfidence = 50
	DefaultSignalTimeline   = "6 months"
)

// SignalTimelines are the suggested timeline labels. Timeline is free text,
// these are only offered as choices.
var SignalTimelines = []string{"Now", "3 months", "6 months", "12 months", "18+ months"}

// WeakSignal is a manually logged market observation.
// VendorTag is a display-only association and is never checked against vendors.
type WeakSignal struct {
	ID          uuid.UUID    `json:"id"`
	Observation string       `json:"observation"`
	Source      string       `json:"source,omitempty"`
	VendorTag   string       `json:"vendor_tag,omitempty"`
	Confidence  int          `json:"confidence"`
	Timeline    string       `json:"timeline"`
	Impact      Impact       `json:"impact"`
	Notes       string       `json:"notes,omitempty"`
	Status      SignalStatus `json:"status"`
	SpottedAt   time.Time    `json:"spotted_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ApplyDefaults fills unset fields with the values a new signal starts with.
func (s *WeakSignal) ApplyDefaults() {
	if s.Timeline == "" {
		s.Timeline = DefaultSignalTimeline
	}
	if s.Impact == "" {
		s.Impact = ImpactMedium
	}
	if s.Status == "" {
		s.Status = SignalMonitoring
	}
}

// ConfidenceOrDefault returns *c, or DefaultSignalConfidence when c is nil.
// An explicit zero is a valid confidence and is kept.
func ConfidenceOrDefault(c *int) int {
	if c == nil {
		return DefaultSignalConfidence
	}
	return *c
}

// Validate checks the invariants the store also enforces.
func (s *WeakSignal) Validate() error {
	if strings.TrimSpace(s.Observation) == "" {
		return fmt.Errorf("observation is required")
	}
	if s.Confidence < 0 || s.Confidence > 100 {
		return fmt.Errorf("confidence must be between 0 and 100")
	}
	if !s.Impact.Valid() {
		return fmt.Errorf("impact must be one of %v", Impacts)
	}
	if !s.Status.Valid() {
		return fmt.Errorf("status must be one of %v", SignalStatuses)
	}
	return nil
}

// SignalPatch is a partial update of a weak signal. Nil fields are left untouched.
type SignalPatch struct {
	Observation *string       `json:"observation,omitempty"`
	Source      *string       `json:"source,omitempty"`
	VendorTag   *string       `json:"vendor_tag,omitempty"`
	Confidence  *int          `json:"confidence,omitempty"`
	Timeline    *string       `json:"timeline,omitempty"`
	Impact      *Impact       `json:"impact,omitempty"`
	Notes       *string       `json:"notes,omitempty"`
	Status      *SignalStatus `json:"status,omitempty"`
}

// IsEmpty reports whether the patch sets no fields.
func (p *SignalPatch) IsEmpty() bool {
	return p.Observation == nil && p.Source == nil && p.VendorTag == nil && p.Confidence == nil &&
		p.Timeline == nil && p.Impact == nil && p.Notes == nil && p.Status == nil
}

// Validate checks the fields the patch sets.
func (p *SignalPatch) Validate() error {
	if p.Observation != nil && strings.TrimSpace(*p.Observation) == "" {
		return fmt.Errorf("observation cannot be empty")
	}
	if p.Confidence != nil && (*p.Confidence < 0 || *p.Confidence > 100) {
		return fmt.Errorf("confidence must be between 0 and 100")
	}
	if p.Impact != nil && !p.Impact.Valid() {
		return fmt.Errorf("impact must be one of %v", Impacts)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("status must be one of %v", SignalStatuses)
	}
	return nil
}

// SignalFilter narrows a signal listing. Nil fields match everything.
type SignalFilter struct {
	Status *SignalStatus
	Impact *Impact
}

// FilterAll is the filter value that matches every signal.
const FilterAll = "All"

// ParseSignalFilter builds a filter from user-facing values. Empty strings and
// FilterAll leave the dimension unfiltered.
func ParseSignalFilter(status, impact string) (SignalFilter, error) {
	var filter SignalFilter
	if status != "" && !strings.EqualFold(status, FilterAll) {
		st, err := ParseSignalStatus(status)
		if err != nil {
			return SignalFilter{}, err
		}
		filter.Status = &st
	}
	if impact != "" && !strings.EqualFold(impact, FilterAll) {
		im, err := ParseImpact(impact)
		if err != nil {
			return SignalFilter{}, err
		}
		filter.Impact = &im
	}
	return filter, nil
}
