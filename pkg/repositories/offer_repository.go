package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-content/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-content/pkg/database"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
)

// OfferRepository provides read access to the offer inventory.
type OfferRepository interface {
	// ListEligible returns non-archived offers that include siteID, most recently updated first.
	ListEligible(ctx context.Context, siteID string, limit int) ([]*models.Offer, error)
	// Get returns a single offer by ID, archived or not.
	Get(ctx context.Context, id string) (*models.Offer, error)
}

type offerRepository struct {
	db database.Querier
}

func NewOfferRepository(db database.Querier) OfferRepository {
	return &offerRepository{db: db}
}

var _ OfferRepository = (*offerRepository)(nil)

var offerColumns = []string{"id", "name", "site_ids", "tags", "archived", "updated_at"}

func scanOffer(row pgx.Row) (*models.Offer, error) {
	var o models.Offer
	if err := row.Scan(&o.ID, &o.Name, &o.SiteIDs, &o.Tags, &o.Archived, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *offerRepository) Get(ctx context.Context, id string) (*models.Offer, error) {
	query, args, err := psql.Select(offerColumns...).
		From("offers").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build offer query: %w", err)
	}

	offer, err := scanOffer(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return offer, nil
}

func (r *offerRepository) ListEligible(ctx context.Context, siteID string, limit int) ([]*models.Offer, error) {
	builder := psql.Select(offerColumns...).
		From("offers").
		Where(sq.Expr("? = ANY(site_ids)", siteID)).
		Where(sq.Eq{"archived": false}).
		OrderBy("updated_at DESC", "id ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build offer query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	var offers []*models.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return offers, nil
}
