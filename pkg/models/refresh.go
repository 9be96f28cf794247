package models

import (
	"encoding/json"
	"fmt"

	"github.com/ekaya-inc/ekaya-tracker/pkg/jsonutil"
)

// VendorAssessment is one entry of the JSON array the oracle returns.
type VendorAssessment struct {
	Name                 string     `json:"name"`
	AIMaturity           AIMaturity `json:"ai_maturity"`
	Capabilities         []string   `json:"capabilities"`
	ImplementationClaims string     `json:"implementation_claims"`
	Notes                string     `json:"notes"`
	Sources              []string   `json:"sources"`
}

// UnmarshalJSON decodes one oracle entry. Name and ai_maturity must be
// strings. Free-text fields and list items may come back as numbers or
// booleans and are converted to text.
func (a *VendorAssessment) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name                 json.RawMessage `json:"name"`
		AIMaturity           json.RawMessage `json:"ai_maturity"`
		Capabilities         json.RawMessage `json:"capabilities"`
		ImplementationClaims json.RawMessage `json:"implementation_claims"`
		Notes                json.RawMessage `json:"notes"`
		Sources              json.RawMessage `json:"sources"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	name, err := jsonutil.StrictString(raw.Name)
	if err != nil {
		return fmt.Errorf("name: %w", err)
	}
	maturity, err := jsonutil.StrictString(raw.AIMaturity)
	if err != nil {
		return fmt.Errorf("ai_maturity: %w", err)
	}
	capabilities, err := jsonutil.FlexibleStringSlice(raw.Capabilities)
	if err != nil {
		return fmt.Errorf("capabilities: %w", err)
	}
	sources, err := jsonutil.FlexibleStringSlice(raw.Sources)
	if err != nil {
		return fmt.Errorf("sources: %w", err)
	}

	*a = VendorAssessment{
		Name:                 name,
		AIMaturity:           AIMaturity(maturity),
		Capabilities:         capabilities,
		ImplementationClaims: jsonutil.FlexibleStringValue(raw.ImplementationClaims),
		Notes:                jsonutil.FlexibleStringValue(raw.Notes),
		Sources:              sources,
	}
	return nil
}

// RefreshAction says how a vendor entry was reconciled.
type RefreshAction string

const (
	RefreshActionUpdated  RefreshAction = "updated"
	RefreshActionInserted RefreshAction = "inserted"
)

// RefreshRecord is one line of the per-vendor action log.
type RefreshRecord struct {
	Vendor string        `json:"vendor"`
	Action RefreshAction `json:"action"`
}

// RefreshFailure reports a vendor whose reconciliation was rolled back.
type RefreshFailure struct {
	Vendor string `json:"vendor"`
	Error  string `json:"error"`
}

// RefreshResult is the outcome of one successful refresh pass.
// VendorCount always equals len(Results).
type RefreshResult struct {
	Success     bool             `json:"success"`
	Results     []RefreshRecord  `json:"results"`
	VendorCount int              `json:"vendorCount"`
	Failed      []RefreshFailure `json:"failed,omitempty"`
}
