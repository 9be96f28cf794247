package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-tracker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tracker/pkg/database"
	"github.com/ekaya-inc/ekaya-tracker/pkg/models"
)

// VendorRepository provides data access for vendor rows.
// Children (capabilities, sources) are loaded through their own repositories.
type VendorRepository interface {
	List(ctx context.Context) ([]*models.Vendor, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	GetByName(ctx context.Context, name string) (*models.Vendor, error)
	// LockByName is GetByName with a row lock held until the surrounding transaction ends.
	LockByName(ctx context.Context, name string) (*models.Vendor, error)
	Create(ctx context.Context, vendor *models.Vendor) error
	Update(ctx context.Context, id uuid.UUID, patch *models.VendorPatch) error
}

type vendorRepository struct{}

// NewVendorRepository creates a new VendorRepository.
func NewVendorRepository() VendorRepository {
	return &vendorRepository{}
}

var _ VendorRepository = (*vendorRepository)(nil)

const vendorColumns = `id, name, ai_maturity, implementation_claims, notes,
	deployment_status, pricing_model, implementation_complexity,
	acumatica_gap, buyer_persona, adoption_signal, created_at, updated_at`

func (r *vendorRepository) List(ctx context.Context) ([]*models.Vendor, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `SELECT `+vendorColumns+` FROM vendors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer rows.Close()

	var vendors []*models.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vendors: %w", err)
	}

	return vendors, nil
}

func (r *vendorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	return r.getOne(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id)
}

func (r *vendorRepository) GetByName(ctx context.Context, name string) (*models.Vendor, error) {
	return r.getOne(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE name = $1`, name)
}

func (r *vendorRepository) LockByName(ctx context.Context, name string) (*models.Vendor, error) {
	scope, ok := database.GetScope(ctx)
	if !ok || !scope.InTx() {
		return nil, fmt.Errorf("LockByName requires a transaction scope")
	}
	return r.getOne(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE name = $1 FOR UPDATE`, name)
}

func (r *vendorRepository) getOne(ctx context.Context, query string, arg any) (*models.Vendor, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	v, err := scanVendor(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Vendor not found
		}
		return nil, err
	}
	return v, nil
}

func (r *vendorRepository) Create(ctx context.Context, vendor *models.Vendor) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	if vendor.AIMaturity == "" {
		vendor.AIMaturity = models.MaturityLimited
	}

	now := time.Now()
	query := `
		INSERT INTO vendors (
			name, ai_maturity, implementation_claims, notes,
			deployment_status, pricing_model, implementation_complexity,
			acumatica_gap, buyer_persona, adoption_signal, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id, created_at, updated_at`

	err = q.QueryRow(ctx, query,
		vendor.Name,
		string(vendor.AIMaturity),
		vendor.ImplementationClaims,
		vendor.Notes,
		nullString(string(vendor.DeploymentStatus)),
		nullString(vendor.PricingModel),
		nullString(string(vendor.ImplementationComplexity)),
		nullString(vendor.AcumaticaGap),
		nullString(vendor.BuyerPersona),
		nullString(vendor.AdoptionSignal),
		now,
	).Scan(&vendor.ID, &vendor.CreatedAt, &vendor.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("vendor %q already exists: %w", vendor.Name, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create vendor: %w", err)
	}

	return nil
}

// Update writes only the fields the patch sets, plus updated_at.
func (r *vendorRepository) Update(ctx context.Context, id uuid.UUID, patch *models.VendorPatch) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("vendors")

	assignments := []string{sb.Assign("updated_at", time.Now())}
	if patch.AIMaturity != nil {
		assignments = append(assignments, sb.Assign("ai_maturity", string(*patch.AIMaturity)))
	}
	if patch.DeploymentStatus != nil {
		assignments = append(assignments, sb.Assign("deployment_status", nullString(string(*patch.DeploymentStatus))))
	}
	if patch.ImplementationComplexity != nil {
		assignments = append(assignments, sb.Assign("implementation_complexity", nullString(string(*patch.ImplementationComplexity))))
	}
	for _, column := range []string{"implementation_claims", "notes"} {
		if v, ok := patch.FreeText()[column]; ok {
			assignments = append(assignments, sb.Assign(column, v))
		}
	}
	for _, column := range []string{"pricing_model", "acumatica_gap", "buyer_persona", "adoption_signal"} {
		if v, ok := patch.FreeText()[column]; ok {
			assignments = append(assignments, sb.Assign(column, nullString(v)))
		}
	}

	sb.Set(assignments...)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update vendor: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanVendor(row pgx.Row) (*models.Vendor, error) {
	var v models.Vendor
	var maturity string
	var deployment, pricing, complexity, gap, persona, adoption *string

	err := row.Scan(
		&v.ID,
		&v.Name,
		&maturity,
		&v.ImplementationClaims,
		&v.Notes,
		&deployment,
		&pricing,
		&complexity,
		&gap,
		&persona,
		&adoption,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan vendor: %w", err)
	}

	v.AIMaturity = models.AIMaturity(maturity)
	v.DeploymentStatus = models.DeploymentStatus(derefString(deployment))
	v.PricingModel = derefString(pricing)
	v.ImplementationComplexity = models.Complexity(derefString(complexity))
	v.AcumaticaGap = derefString(gap)
	v.BuyerPersona = derefString(persona)
	v.AdoptionSignal = derefString(adoption)
	v.Capabilities = []models.Capability{}
	v.Sources = []models.Source{}

	return &v, nil
}
