package repository

// Schema definitions for the Shrike database.
// Compatible with both SQLite and PostgreSQL.

const schemaClassifications = `
CREATE TABLE IF NOT EXISTS classifications (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    original_text TEXT NOT NULL,
    labels TEXT NOT NULL,
    label_count INTEGER NOT NULL,
    scores TEXT NOT NULL,
    normalized_scores TEXT,
    detail TEXT,
    error TEXT,
    classified_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_classifications_tenant ON classifications(tenant_id);
CREATE INDEX IF NOT EXISTS idx_classifications_time ON classifications(tenant_id, classified_at);
`

const schemaCampaignReports = `
CREATE TABLE IF NOT EXISTS campaign_reports (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    campaign_name TEXT NOT NULL,
    total_items INTEGER NOT NULL,
    distribution TEXT NOT NULL,
    insights TEXT,
    recommendations TEXT,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_campaign_reports_tenant ON campaign_reports(tenant_id);
CREATE INDEX IF NOT EXISTS idx_campaign_reports_name ON campaign_reports(tenant_id, campaign_name);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaClassifications,
		schemaCampaignReports,
	}
}
