package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Vendor is a tracked ERP vendor. Name is unique across the table.
// Stored in the vendors table; capabilities and sources are owned child rows.
type Vendor struct {
	ID                       uuid.UUID        `json:"id"`
	Name                     string           `json:"name"`
	AIMaturity               AIMaturity       `json:"ai_maturity"`
	ImplementationClaims     string           `json:"implementation_claims"`
	Notes                    string           `json:"notes"`
	DeploymentStatus         DeploymentStatus `json:"deployment_status,omitempty"`
	PricingModel             string           `json:"pricing_model,omitempty"`
	ImplementationComplexity Complexity       `json:"implementation_complexity,omitempty"`
	AcumaticaGap             string           `json:"acumatica_gap,omitempty"`
	BuyerPersona             string           `json:"buyer_persona,omitempty"`
	AdoptionSignal           string           `json:"adoption_signal,omitempty"`
	CreatedAt                time.Time        `json:"created_at"`
	UpdatedAt                time.Time        `json:"updated_at"`

	Capabilities []Capability `json:"capabilities"`
	Sources      []Source     `json:"sources"`
}

// Capability is one AI capability claimed by a vendor.
type Capability struct {
	ID         uuid.UUID `json:"id"`
	VendorID   uuid.UUID `json:"vendor_id"`
	Capability string    `json:"capability"`
	CreatedAt  time.Time `json:"created_at"`
}

// Source is one citation (URL or title) backing a vendor assessment.
type Source struct {
	ID        uuid.UUID `json:"id"`
	VendorID  uuid.UUID `json:"vendor_id"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// VendorPatch is a partial update of a vendor row. Nil fields are left untouched.
type VendorPatch struct {
	AIMaturity               *AIMaturity       `json:"ai_maturity,omitempty"`
	ImplementationClaims     *string           `json:"implementation_claims,omitempty"`
	Notes                    *string           `json:"notes,omitempty"`
	DeploymentStatus         *DeploymentStatus `json:"deployment_status,omitempty"`
	PricingModel             *string           `json:"pricing_model,omitempty"`
	ImplementationComplexity *Complexity       `json:"implementation_complexity,omitempty"`
	AcumaticaGap             *string           `json:"acumatica_gap,omitempty"`
	BuyerPersona             *string           `json:"buyer_persona,omitempty"`
	AdoptionSignal           *string           `json:"adoption_signal,omitempty"`
}

// IsEmpty reports whether the patch sets no fields.
func (p *VendorPatch) IsEmpty() bool {
	return p.AIMaturity == nil && p.ImplementationClaims == nil && p.Notes == nil &&
		p.DeploymentStatus == nil && p.PricingModel == nil && p.ImplementationComplexity == nil &&
		p.AcumaticaGap == nil && p.BuyerPersona == nil && p.AdoptionSignal == nil
}

// Validate checks enum fields. Empty enum strings clear the column and are allowed
// for the optional classifications, but not for ai_maturity.
func (p *VendorPatch) Validate() error {
	if p.AIMaturity != nil && !p.AIMaturity.Valid() {
		return fmt.Errorf("ai_maturity must be one of %v", AIMaturities)
	}
	if p.DeploymentStatus != nil && *p.DeploymentStatus != "" && !p.DeploymentStatus.Valid() {
		return fmt.Errorf("unknown deployment_status %q", *p.DeploymentStatus)
	}
	if p.ImplementationComplexity != nil && *p.ImplementationComplexity != "" && !p.ImplementationComplexity.Valid() {
		return fmt.Errorf("unknown implementation_complexity %q", *p.ImplementationComplexity)
	}
	return nil
}

// FreeText returns the free-text values the patch sets, keyed by column.
func (p *VendorPatch) FreeText() map[string]string {
	fields := map[string]*string{
		"implementation_claims": p.ImplementationClaims,
		"notes":                 p.Notes,
		"pricing_model":         p.PricingModel,
		"acumatica_gap":         p.AcumaticaGap,
		"buyer_persona":         p.BuyerPersona,
		"adoption_signal":       p.AdoptionSignal,
	}
	out := make(map[string]string, len(fields))
	for column, v := range fields {
		if v != nil {
			out[column] = *v
		}
	}
	return out
}

// CleanEntries trims entries and drops blanks.
func CleanEntries(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}
