package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ekaya-inc/ekaya-content/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-content/pkg/database"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
)

// ArticleRepository provides data access for articles.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	Get(ctx context.Context, siteID, slug string) (*models.Article, error)

	// ListByOfferAndSite returns up to limit articles written about offerID for siteID, newest first.
	ListByOfferAndSite(ctx context.Context, offerID, siteID string, limit int) ([]*models.Article, error)

	// ListCreatedSince returns every article created at or after since, oldest first.
	ListCreatedSince(ctx context.Context, since time.Time) ([]*models.Article, error)

	// ListCreatedBetween returns up to limit articles with from <= created_at <= to, oldest first.
	ListCreatedBetween(ctx context.Context, from, to time.Time, limit int) ([]*models.Article, error)

	UpdateAnalysis(ctx context.Context, siteID, slug string, update models.AnalysisUpdate) error
	ApplyRewrite(ctx context.Context, siteID, slug string, update models.RewriteUpdate) error
}

type articleRepository struct {
	db database.Querier
}

func NewArticleRepository(db database.Querier) ArticleRepository {
	return &articleRepository{db: db}
}

var _ ArticleRepository = (*articleRepository)(nil)

// psql builds Postgres-style ($1, $2, ...) statements.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var articleColumns = []string{
	"site_id", "slug", "title", "body", "excerpt", "tags", "offer_id", "published",
	"latest_score", "analysis_history", "views", "outbound_clicks", "avg_read_time_sec",
	"created_at", "updated_at", "last_analyzed_at",
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	historyJSON, err := marshalHistory(article.AnalysisHistory)
	if err != nil {
		return err
	}

	now := time.Now()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	if article.UpdatedAt.IsZero() {
		article.UpdatedAt = article.CreatedAt
	}
	if article.Tags == nil {
		article.Tags = []string{}
	}

	query, args, err := psql.Insert("articles").
		Columns(articleColumns...).
		Values(
			article.SiteID, article.Slug, article.Title, article.Body, article.Excerpt,
			article.Tags, article.OfferID, article.Published,
			article.LatestScore, historyJSON,
			article.Metrics.Views, article.Metrics.OutboundClicks, article.Metrics.AvgReadTimeSec,
			article.CreatedAt, article.UpdatedAt, article.LastAnalyzedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build article insert: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("article %s/%s: %w", article.SiteID, article.Slug, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create article: %w", err)
	}

	return nil
}

func (r *articleRepository) Get(ctx context.Context, siteID, slug string) (*models.Article, error) {
	query, args, err := psql.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"site_id": siteID, "slug": slug}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build article select: %w", err)
	}

	article, err := scanArticle(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("article %s/%s: %w", siteID, slug, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return article, nil
}

func (r *articleRepository) ListByOfferAndSite(ctx context.Context, offerID, siteID string, limit int) ([]*models.Article, error) {
	builder := psql.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"offer_id": offerID, "site_id": siteID}).
		OrderBy("created_at DESC", "slug ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	return r.list(ctx, builder)
}

func (r *articleRepository) ListCreatedSince(ctx context.Context, since time.Time) ([]*models.Article, error) {
	builder := psql.Select(articleColumns...).
		From("articles").
		Where(sq.GtOrEq{"created_at": since}).
		OrderBy("created_at ASC", "site_id ASC", "slug ASC")
	return r.list(ctx, builder)
}

func (r *articleRepository) ListCreatedBetween(ctx context.Context, from, to time.Time, limit int) ([]*models.Article, error) {
	builder := psql.Select(articleColumns...).
		From("articles").
		Where(sq.And{
			sq.GtOrEq{"created_at": from},
			sq.LtOrEq{"created_at": to},
		}).
		OrderBy("created_at ASC", "site_id ASC", "slug ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	return r.list(ctx, builder)
}

func (r *articleRepository) UpdateAnalysis(ctx context.Context, siteID, slug string, update models.AnalysisUpdate) error {
	historyJSON, err := marshalHistory(update.AnalysisHistory)
	if err != nil {
		return err
	}

	query, args, err := psql.Update("articles").
		SetMap(map[string]any{
			"analysis_history": historyJSON,
			"latest_score":     update.LatestScore,
			"last_analyzed_at": update.AnalyzedAt,
			"updated_at":       update.AnalyzedAt,
		}).
		Where(sq.Eq{"site_id": siteID, "slug": slug}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build analysis update: %w", err)
	}

	return r.execOne(ctx, query, args, siteID, slug)
}

func (r *articleRepository) ApplyRewrite(ctx context.Context, siteID, slug string, update models.RewriteUpdate) error {
	historyJSON, err := marshalHistory(update.AnalysisHistory)
	if err != nil {
		return err
	}
	tags := update.Tags
	if tags == nil {
		tags = []string{}
	}

	query, args, err := psql.Update("articles").
		SetMap(map[string]any{
			"title":            update.Title,
			"body":             update.Body,
			"excerpt":          update.Excerpt,
			"tags":             tags,
			"analysis_history": historyJSON,
			"latest_score":     update.LatestScore,
			"last_analyzed_at": update.RewrittenAt,
			"updated_at":       update.RewrittenAt,
		}).
		Where(sq.Eq{"site_id": siteID, "slug": slug}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build rewrite update: %w", err)
	}

	return r.execOne(ctx, query, args, siteID, slug)
}

func (r *articleRepository) execOne(ctx context.Context, query string, args []any, siteID, slug string) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %s/%s: %w", siteID, slug, apperrors.ErrNotFound)
	}
	return nil
}

func (r *articleRepository) list(ctx context.Context, builder sq.SelectBuilder) ([]*models.Article, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build article query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating articles: %w", err)
	}

	return articles, nil
}

func scanArticle(row pgx.Row) (*models.Article, error) {
	var a models.Article
	var historyJSON []byte

	err := row.Scan(
		&a.SiteID,
		&a.Slug,
		&a.Title,
		&a.Body,
		&a.Excerpt,
		&a.Tags,
		&a.OfferID,
		&a.Published,
		&a.LatestScore,
		&historyJSON,
		&a.Metrics.Views,
		&a.Metrics.OutboundClicks,
		&a.Metrics.AvgReadTimeSec,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.LastAnalyzedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(historyJSON) > 0 && string(historyJSON) != "null" {
		if err := json.Unmarshal(historyJSON, &a.AnalysisHistory); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis_history for %s/%s: %w", a.SiteID, a.Slug, err)
		}
	}

	return &a, nil
}

func marshalHistory(history []models.ScoreEvent) ([]byte, error) {
	if history == nil {
		history = []models.ScoreEvent{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis_history: %w", err)
	}
	return data, nil
}
