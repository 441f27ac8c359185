// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/copyintel/shrike/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// classificationDetail bundles the optional per-result payloads into one
// serialized column.
type classificationDetail struct {
	CleanText       string                           `json:"cleanText,omitempty"`
	Typologies      map[string]domain.TypologyDetail `json:"typologies,omitempty"`
	MatchedPatterns map[string][]string              `json:"matchedPatterns,omitempty"`
	Features        *domain.TextFeatures             `json:"textFeatures,omitempty"`
	Buzzwords       []string                         `json:"buzzwords,omitempty"`
	CTAPhrases      []string                         `json:"ctaPhrases,omitempty"`
	Sentiment       *domain.SentimentIndicators      `json:"sentimentIndicators,omitempty"`
	Enrichment      *domain.Enrichment               `json:"enrichment,omitempty"`
}

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveClassification stores a classification result with tenant isolation.
func (r *SQLRepository) SaveClassification(ctx context.Context, tenantID string, c *domain.Classification) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	labels, _ := json.Marshal(c.Labels)
	scores, _ := json.Marshal(c.Scores)

	var normalized []byte
	if c.NormalizedScores != nil {
		normalized, _ = json.Marshal(c.NormalizedScores)
	}

	detail, _ := json.Marshal(classificationDetail{
		CleanText:       c.CleanText,
		Typologies:      c.Typologies,
		MatchedPatterns: c.MatchedPatterns,
		Features:        c.Features,
		Buzzwords:       c.Buzzwords,
		CTAPhrases:      c.CTAPhrases,
		Sentiment:       c.Sentiment,
		Enrichment:      c.Enrichment,
	})

	query := `
		INSERT INTO classifications (
			id, tenant_id, original_text, labels, label_count,
			scores, normalized_scores, detail, error, classified_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id) DO UPDATE SET
			original_text = excluded.original_text,
			labels = excluded.labels,
			label_count = excluded.label_count,
			scores = excluded.scores,
			normalized_scores = excluded.normalized_scores,
			detail = excluded.detail,
			error = excluded.error,
			classified_at = excluded.classified_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		c.ID, tenantID, c.OriginalText,
		string(labels), c.LabelCount,
		string(scores), string(normalized), string(detail),
		c.Error, c.ClassifiedAt,
	)
	return err
}

// GetClassification retrieves a classification by ID with tenant isolation.
func (r *SQLRepository) GetClassification(ctx context.Context, tenantID string, id string) (*domain.Classification, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, original_text, labels, label_count,
			   scores, normalized_scores, detail, error, classified_at
		FROM classifications
		WHERE tenant_id = ? AND id = ?
	`

	row := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, id)
	c, err := scanClassification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListClassifications retrieves the most recent classifications for a
// tenant, newest first.
func (r *SQLRepository) ListClassifications(ctx context.Context, tenantID string, limit int) ([]*domain.Classification, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, original_text, labels, label_count,
			   scores, normalized_scores, detail, error, classified_at
		FROM classifications
		WHERE tenant_id = ?
		ORDER BY classified_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.Classification
	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}

	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClassification(row scanner) (*domain.Classification, error) {
	var c domain.Classification
	var labels, scores string
	var normalized, detail, errMarker sql.NullString

	if err := row.Scan(
		&c.ID, &c.OriginalText, &labels, &c.LabelCount,
		&scores, &normalized, &detail, &errMarker, &c.ClassifiedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(labels), &c.Labels); err != nil {
		return nil, fmt.Errorf("failed to parse labels for %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(scores), &c.Scores); err != nil {
		return nil, fmt.Errorf("failed to parse scores for %s: %w", c.ID, err)
	}
	if normalized.Valid && normalized.String != "" {
		json.Unmarshal([]byte(normalized.String), &c.NormalizedScores)
	}
	if errMarker.Valid {
		c.Error = errMarker.String
	}

	if detail.Valid && detail.String != "" {
		var d classificationDetail
		if err := json.Unmarshal([]byte(detail.String), &d); err == nil {
			c.CleanText = d.CleanText
			c.Typologies = d.Typologies
			c.MatchedPatterns = d.MatchedPatterns
			c.Features = d.Features
			c.Buzzwords = d.Buzzwords
			c.CTAPhrases = d.CTAPhrases
			c.Sentiment = d.Sentiment
			c.Enrichment = d.Enrichment
		}
	}

	return &c, nil
}

// SaveCampaignReport stores a campaign report with tenant isolation.
func (r *SQLRepository) SaveCampaignReport(ctx context.Context, tenantID string, report *domain.CampaignReport) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	distribution, _ := json.Marshal(report.Distribution)
	insights, _ := json.Marshal(report.Insights)
	recommendations, _ := json.Marshal(report.Recommendations)

	query := `
		INSERT INTO campaign_reports (
			id, tenant_id, campaign_name, total_items,
			distribution, insights, recommendations, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		report.ID, tenantID, report.CampaignName, report.TotalItems,
		string(distribution), string(insights), string(recommendations),
		report.CreatedAt,
	)
	return err
}

// GetCampaignReport retrieves a campaign report by ID with tenant isolation.
func (r *SQLRepository) GetCampaignReport(ctx context.Context, tenantID string, reportID string) (*domain.CampaignReport, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, campaign_name, total_items,
			   distribution, insights, recommendations, created_at
		FROM campaign_reports
		WHERE tenant_id = ? AND id = ?
	`

	var report domain.CampaignReport
	var distribution string
	var insights, recommendations sql.NullString

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, reportID).Scan(
		&report.ID, &report.CampaignName, &report.TotalItems,
		&distribution, &insights, &recommendations, &report.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(distribution), &report.Distribution); err != nil {
		return nil, fmt.Errorf("failed to parse distribution for %s: %w", reportID, err)
	}
	if insights.Valid && insights.String != "" {
		json.Unmarshal([]byte(insights.String), &report.Insights)
	}
	if recommendations.Valid && recommendations.String != "" {
		json.Unmarshal([]byte(recommendations.String), &report.Recommendations)
	}

	return &report, nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
