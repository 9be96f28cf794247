package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-tracker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tracker/pkg/models"
)

// CapabilityRepository provides data access for a vendor's capability rows.
type CapabilityRepository interface {
	ListByVendors(ctx context.Context, vendorIDs []uuid.UUID) (map[uuid.UUID][]models.Capability, error)
	Add(ctx context.Context, vendorID uuid.UUID, capability string) (*models.Capability, error)
	InsertMany(ctx context.Context, vendorID uuid.UUID, capabilities []string) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByVendor(ctx context.Context, vendorID uuid.UUID) (int64, error)
}

// SourceRepository provides data access for a vendor's source rows.
type SourceRepository interface {
	ListByVendors(ctx context.Context, vendorIDs []uuid.UUID) (map[uuid.UUID][]models.Source, error)
	Add(ctx context.Context, vendorID uuid.UUID, source string) (*models.Source, error)
	InsertMany(ctx context.Context, vendorID uuid.UUID, sources []string) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByVendor(ctx context.Context, vendorID uuid.UUID) (int64, error)
}

// childRow is the shape shared by capabilities and sources: one text column owned by a vendor.
type childRow struct {
	ID        uuid.UUID
	VendorID  uuid.UUID
	Text      string
	CreatedAt time.Time
}

// childTable runs the queries common to both child tables.
type childTable struct {
	table  string
	column string
}

func (t childTable) listByVendors(ctx context.Context, vendorIDs []uuid.UUID) ([]childRow, error) {
	if len(vendorIDs) == 0 {
		return nil, nil
	}
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, vendor_id, %s, created_at
		FROM %s
		WHERE vendor_id = ANY($1)
		ORDER BY created_at, id`, t.column, t.table)

	rows, err := q.Query(ctx, query, vendorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.table, err)
	}
	defer rows.Close()

	var out []childRow
	for rows.Next() {
		var c childRow
		if err := rows.Scan(&c.ID, &c.VendorID, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", t.table, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", t.table, err)
	}
	return out, nil
}

func (t childTable) add(ctx context.Context, vendorID uuid.UUID, text string) (*childRow, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	row := &childRow{VendorID: vendorID, Text: text}
	query := fmt.Sprintf(`INSERT INTO %s (vendor_id, %s) VALUES ($1, $2) RETURNING id, created_at`, t.table, t.column)
	if err := q.QueryRow(ctx, query, vendorID, text).Scan(&row.ID, &row.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", t.table, err)
	}
	return row, nil
}

// insertMany writes all entries in one statement, preserving their order in created_at.
func (t childTable) insertMany(ctx context.Context, vendorID uuid.UUID, entries []string) error {
	if len(entries) == 0 {
		return nil
	}
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (vendor_id, %s, created_at)
		SELECT $1, entry, now() + (ord * interval '1 microsecond')
		FROM unnest($2::text[]) WITH ORDINALITY AS e(entry, ord)`, t.table, t.column)

	if _, err := q.Exec(ctx, query, vendorID, entries); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", t.table, err)
	}
	return nil
}

func (t childTable) delete(ctx context.Context, id uuid.UUID) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	result, err := q.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, t.table), id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", t.table, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (t childTable) deleteByVendor(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	q, err := querier(ctx)
	if err != nil {
		return 0, err
	}

	result, err := q.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE vendor_id = $1`, t.table), vendorID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s for vendor: %w", t.table, err)
	}
	return result.RowsAffected(), nil
}

// ============================================================================
// Capabilities
// ============================================================================

type capabilityRepository struct {
	t childTable
}

// NewCapabilityRepository creates a new CapabilityRepository.
func NewCapabilityRepository() CapabilityRepository {
	return &capabilityRepository{t: childTable{table: "capabilities", column: "capability"}}
}

var _ CapabilityRepository = (*capabilityRepository)(nil)

func (r *capabilityRepository) ListByVendors(ctx context.Context, vendorIDs []uuid.UUID) (map[uuid.UUID][]models.Capability, error) {
	rows, err := r.t.listByVendors(ctx, vendorIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]models.Capability, len(vendorIDs))
	for _, c := range rows {
		out[c.VendorID] = append(out[c.VendorID], toCapability(c))
	}
	return out, nil
}

func (r *capabilityRepository) Add(ctx context.Context, vendorID uuid.UUID, capability string) (*models.Capability, error) {
	row, err := r.t.add(ctx, vendorID, capability)
	if err != nil {
		return nil, err
	}
	c := toCapability(*row)
	return &c, nil
}

func (r *capabilityRepository) InsertMany(ctx context.Context, vendorID uuid.UUID, capabilities []string) error {
	return r.t.insertMany(ctx, vendorID, capabilities)
}

func (r *capabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.t.delete(ctx, id)
}

func (r *capabilityRepository) DeleteByVendor(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	return r.t.deleteByVendor(ctx, vendorID)
}

func toCapability(c childRow) models.Capability {
	return models.Capability{ID: c.ID, VendorID: c.VendorID, Capability: c.Text, CreatedAt: c.CreatedAt}
}

// ============================================================================
// Sources
// ============================================================================

type sourceRepository struct {
	t childTable
}

// NewSourceRepository creates a new SourceRepository.
func NewSourceRepository() SourceRepository {
	return &sourceRepository{t: childTable{table: "sources", column: "source"}}
}

var _ SourceRepository = (*sourceRepository)(nil)

func (r *sourceRepository) ListByVendors(ctx context.Context, vendorIDs []uuid.UUID) (map[uuid.UUID][]models.Source, error) {
	rows, err := r.t.listByVendors(ctx, vendorIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]models.Source, len(vendorIDs))
	for _, s := range rows {
		out[s.VendorID] = append(out[s.VendorID], toSource(s))
	}
	return out, nil
}

func (r *sourceRepository) Add(ctx context.Context, vendorID uuid.UUID, source string) (*models.Source, error) {
	row, err := r.t.add(ctx, vendorID, source)
	if err != nil {
		return nil, err
	}
	s := toSource(*row)
	return &s, nil
}

func (r *sourceRepository) InsertMany(ctx context.Context, vendorID uuid.UUID, sources []string) error {
	return r.t.insertMany(ctx, vendorID, sources)
}

func (r *sourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.t.delete(ctx, id)
}

func (r *sourceRepository) DeleteByVendor(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	return r.t.deleteByVendor(ctx, vendorID)
}

func toSource(s childRow) models.Source {
	return models.Source{ID: s.ID, VendorID: s.VendorID, Source: s.Text, CreatedAt: s.CreatedAt}
}
