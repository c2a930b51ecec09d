package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/lockin/internal/models"
	"github.com/google/uuid"
)

const oidcColumns = `id, provider, issuer, domain, client_id, client_secret, redirect_uri, jwks_url, created_at, updated_at`

// OIDCConfigRepository stores identity provider settings, one row per provider.
type OIDCConfigRepository struct {
	db *DB
}

// NewOIDCConfigRepository creates a new OIDC config repository
func NewOIDCConfigRepository(db *DB) *OIDCConfigRepository {
	return &OIDCConfigRepository{db: db}
}

func scanOIDCConfig(row rowScanner) (*models.OIDCConfig, error) {
	c := &models.OIDCConfig{}
	err := row.Scan(&c.ID, &c.Provider, &c.Issuer, &c.Domain, &c.ClientID, &c.ClientSecret,
		&c.RedirectURI, &c.JWKSUrl, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("OIDC config %w", ErrNotFound)
	}
	return c, err
}

// Upsert creates or replaces the configuration for config.Provider.
func (r *OIDCConfigRepository) Upsert(ctx context.Context, config *models.OIDCConfig) error {
	if config.ID == uuid.Nil {
		config.ID = uuid.New()
	}
	now := time.Now()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO oidc_config (`+oidcColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (provider) DO UPDATE SET
			issuer = EXCLUDED.issuer,
			domain = EXCLUDED.domain,
			client_id = EXCLUDED.client_id,
			client_secret = EXCLUDED.client_secret,
			redirect_uri = EXCLUDED.redirect_uri,
			jwks_url = EXCLUDED.jwks_url,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`, config.ID, config.Provider, config.Issuer, config.Domain, config.ClientID, config.ClientSecret,
		config.RedirectURI, config.JWKSUrl, now).Scan(&config.ID, &config.CreatedAt, &config.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save OIDC config: %w", err)
	}
	return nil
}

// GetByProvider retrieves an OIDC configuration by provider name
func (r *OIDCConfigRepository) GetByProvider(ctx context.Context, provider string) (*models.OIDCConfig, error) {
	c, err := scanOIDCConfig(r.db.QueryRowContext(ctx,
		`SELECT `+oidcColumns+` FROM oidc_config WHERE provider = $1`, provider))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get OIDC config: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", provider, err)
	}
	return c, nil
}

// GetAll retrieves all OIDC configurations ordered by provider
func (r *OIDCConfigRepository) GetAll(ctx context.Context) ([]*models.OIDCConfig, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+oidcColumns+` FROM oidc_config ORDER BY provider`)
	if err != nil {
		return nil, fmt.Errorf("failed to query OIDC configs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var configs []*models.OIDCConfig
	for rows.Next() {
		c, err := scanOIDCConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan OIDC config: %w", err)
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating OIDC configs: %w", err)
	}
	return configs, nil
}

// Delete deletes an OIDC configuration by provider
func (r *OIDCConfigRepository) Delete(ctx context.Context, provider string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM oidc_config WHERE provider = $1`, provider)
	if err != nil {
		return fmt.Errorf("failed to delete OIDC config: %w", err)
	}
	return expectAffected(result, "OIDC config")
}
