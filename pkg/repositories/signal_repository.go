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
	"github.com/ekaya-inc/ekaya-tracker/pkg/models"
)

// SignalRepository provides data access for weak signals.
type SignalRepository interface {
	// List returns signals matching the filter, newest first.
	List(ctx context.Context, filter models.SignalFilter) ([]*models.WeakSignal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.WeakSignal, error)
	Create(ctx context.Context, signal *models.WeakSignal) error
	// Update applies the patch and returns the stored row.
	Update(ctx context.Context, id uuid.UUID, patch *models.SignalPatch) (*models.WeakSignal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type signalRepository struct{}

// NewSignalRepository creates a new SignalRepository.
func NewSignalRepository() SignalRepository {
	return &signalRepository{}
}

var _ SignalRepository = (*signalRepository)(nil)

var signalColumns = []string{
	"id", "observation", "source", "vendor_tag", "confidence", "timeline",
	"impact", "notes", "status", "spotted_at", "updated_at",
}

func (r *signalRepository) List(ctx context.Context, filter models.SignalFilter) ([]*models.WeakSignal, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(signalColumns...).From("weak_signals")
	if filter.Status != nil {
		sb.Where(sb.Equal("status", string(*filter.Status)))
	}
	if filter.Impact != nil {
		sb.Where(sb.Equal("impact", string(*filter.Impact)))
	}
	sb.OrderBy("spotted_at DESC", "id")

	query, args := sb.Build()
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query weak signals: %w", err)
	}
	defer rows.Close()

	var signals []*models.WeakSignal
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		signals = append(signals, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weak signals: %w", err)
	}

	return signals, nil
}

func (r *signalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WeakSignal, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(signalColumns...).From("weak_signals").Where(sb.Equal("id", id))
	query, args := sb.Build()

	s, err := scanSignal(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Signal not found
		}
		return nil, err
	}
	return s, nil
}

func (r *signalRepository) Create(ctx context.Context, signal *models.WeakSignal) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	if signal.SpottedAt.IsZero() {
		signal.SpottedAt = now
	}
	signal.UpdatedAt = now

	query := `
		INSERT INTO weak_signals (
			observation, source, vendor_tag, confidence, timeline,
			impact, notes, status, spotted_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	err = q.QueryRow(ctx, query,
		signal.Observation,
		nullString(signal.Source),
		nullString(signal.VendorTag),
		signal.Confidence,
		signal.Timeline,
		string(signal.Impact),
		nullString(signal.Notes),
		string(signal.Status),
		signal.SpottedAt,
		signal.UpdatedAt,
	).Scan(&signal.ID)
	if err != nil {
		return fmt.Errorf("failed to create weak signal: %w", err)
	}

	return nil
}

func (r *signalRepository) Update(ctx context.Context, id uuid.UUID, patch *models.SignalPatch) (*models.WeakSignal, error) {
	q, err := querier(ctx)
	if err != nil {
		return nil, err
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("weak_signals")

	assignments := []string{sb.Assign("updated_at", time.Now())}
	if patch.Observation != nil {
		assignments = append(assignments, sb.Assign("observation", *patch.Observation))
	}
	if patch.Source != nil {
		assignments = append(assignments, sb.Assign("source", nullString(*patch.Source)))
	}
	if patch.VendorTag != nil {
		assignments = append(assignments, sb.Assign("vendor_tag", nullString(*patch.VendorTag)))
	}
	if patch.Confidence != nil {
		assignments = append(assignments, sb.Assign("confidence", *patch.Confidence))
	}
	if patch.Timeline != nil {
		assignments = append(assignments, sb.Assign("timeline", *patch.Timeline))
	}
	if patch.Impact != nil {
		assignments = append(assignments, sb.Assign("impact", string(*patch.Impact)))
	}
	if patch.Notes != nil {
		assignments = append(assignments, sb.Assign("notes", nullString(*patch.Notes)))
	}
	if patch.Status != nil {
		assignments = append(assignments, sb.Assign("status", string(*patch.Status)))
	}

	sb.Set(assignments...)
	sb.Where(sb.Equal("id", id))
	sb.SQL("RETURNING " + joinColumns(signalColumns))

	query, args := sb.Build()
	s, err := scanSignal(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update weak signal: %w", err)
	}

	return s, nil
}

func (r *signalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q, err := querier(ctx)
	if err != nil {
		return err
	}

	result, err := q.Exec(ctx, `DELETE FROM weak_signals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete weak signal: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanSignal(row pgx.Row) (*models.WeakSignal, error) {
	var s models.WeakSignal
	var source, vendorTag, notes *string
	var impact, status string

	err := row.Scan(
		&s.ID,
		&s.Observation,
		&source,
		&vendorTag,
		&s.Confidence,
		&s.Timeline,
		&impact,
		&notes,
		&status,
		&s.SpottedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan weak signal: %w", err)
	}

	s.Source = derefString(source)
	s.VendorTag = derefString(vendorTag)
	s.Notes = derefString(notes)
	s.Impact = models.Impact(impact)
	s.Status = models.SignalStatus(status)

	return &s, nil
}
