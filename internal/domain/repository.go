package domain

import "context"

// Repository defines the interface for data persistence.
// All methods require tenantID for strict multi-tenancy isolation.
type Repository interface {
	// Classification results
	SaveClassification(ctx context.Context, tenantID string, c *Classification) error
	GetClassification(ctx context.Context, tenantID string, id string) (*Classification, error)
	ListClassifications(ctx context.Context, tenantID string, limit int) ([]*Classification, error)

	// Campaign reports
	SaveCampaignReport(ctx context.Context, tenantID string, report *CampaignReport) error
	GetCampaignReport(ctx context.Context, tenantID string, reportID string) (*CampaignReport, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns int
	MaxIdleConns int
}
