package models

import (
	"fmt"
	"strings"
)

// AIMaturity rates how far a vendor's AI capabilities have progressed.
type AIMaturity string

const (
	MaturityLimited    AIMaturity = "Limited"    // Minimal AI, basic automation or early experimentation
	MaturityDeveloping AIMaturity = "Developing" // Limited features in production, roadmap in progress
	MaturityAmbitious  AIMaturity = "Ambitious"  // Strong strategy, deployment still catching up
	MaturityAdvanced   AIMaturity = "Advanced"   // Deployed at scale, proven in production
)

// AIMaturities lists every maturity value, highest score first.
var AIMaturities = []AIMaturity{MaturityAdvanced, MaturityAmbitious, MaturityDeveloping, MaturityLimited}

// Valid reports whether m is one of the recognized maturity values.
func (m AIMaturity) Valid() bool {
	return m.Score() > 0
}

// Score ranks maturity for ordering. Unknown values score 0.
func (m AIMaturity) Score() int {
	switch m {
	case MaturityAdvanced:
		return 4
	case MaturityAmbitious:
		return 3
	case MaturityDeveloping:
		return 2
	case MaturityLimited:
		return 1
	}
	return 0
}

// Impact is the expected effect of a weak signal.
type Impact string

const (
	ImpactHigh   Impact = "High"
	ImpactMedium Impact = "Medium"
	ImpactLow    Impact = "Low"
)

// Impacts lists every impact value in priority order.
var Impacts = []Impact{ImpactHigh, ImpactMedium, ImpactLow}

// Valid reports whether i is one of the recognized impact values.
func (i Impact) Valid() bool {
	return i == ImpactHigh || i == ImpactMedium || i == ImpactLow
}

// Priority orders signals for display, 1 first. Unknown values sort with Low.
func (i Impact) Priority() int {
	switch i {
	case ImpactHigh:
		return 1
	case ImpactMedium:
		return 2
	}
	return 3
}

// SignalStatus is the review state of a weak signal.
// Any status may move to any other; there is no enforced workflow.
type SignalStatus string

const (
	SignalMonitoring  SignalStatus = "Monitoring"
	SignalValidated   SignalStatus = "Validated"
	SignalInvalidated SignalStatus = "Invalidated"
)

// SignalStatuses lists every status value.
var SignalStatuses = []SignalStatus{SignalMonitoring, SignalValidated, SignalInvalidated}

// Valid reports whether s is one of the recognized status values.
func (s SignalStatus) Valid() bool {
	return s == SignalMonitoring || s == SignalValidated || s == SignalInvalidated
}

// DeploymentStatus describes how available a vendor's AI features are.
type DeploymentStatus string

const (
	DeploymentGenerallyAvailable DeploymentStatus = "Generally Available"
	DeploymentLimitedRelease     DeploymentStatus = "Limited Release"
	DeploymentPreview            DeploymentStatus = "Preview"
	DeploymentAnnounced          DeploymentStatus = "Announced"
)

// Valid reports whether d is one of the recognized deployment values.
func (d DeploymentStatus) Valid() bool {
	switch d {
	case DeploymentGenerallyAvailable, DeploymentLimitedRelease, DeploymentPreview, DeploymentAnnounced:
		return true
	}
	return false
}

// Complexity is the effort a buyer should expect to implement a vendor's AI features.
type Complexity string

const (
	ComplexityLow    Complexity = "Low"
	ComplexityMedium Complexity = "Medium"
	ComplexityHigh   Complexity = "High"
)

// Valid reports whether c is one of the recognized complexity values.
func (c Complexity) Valid() bool {
	return c == ComplexityLow || c == ComplexityMedium || c == ComplexityHigh
}

// ParseAIMaturity matches s against the maturity values, ignoring case and surrounding space.
func ParseAIMaturity(s string) (AIMaturity, error) {
	for _, m := range AIMaturities {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown ai_maturity %q", s)
}

// ParseImpact matches s against the impact values, ignoring case and surrounding space.
func ParseImpact(s string) (Impact, error) {
	for _, i := range Impacts {
		if strings.EqualFold(strings.TrimSpace(s), string(i)) {
			return i, nil
		}
	}
	return "", fmt.Errorf("unknown impact %q", s)
}

// ParseSignalStatus matches s against the status values, ignoring case and surrounding space.
func ParseSignalStatus(s string) (SignalStatus, error) {
	for _, st := range SignalStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}
