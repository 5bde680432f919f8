package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fleet-backoffice-api/internal/models"
	"github.com/noah-isme/fleet-backoffice-api/pkg/workflow"
)

// SettingsRepository persists status transitions and colors per entity type.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// ListTransitions returns the transition rules of an entity type.
func (r *SettingsRepository) ListTransitions(ctx context.Context, entityType string) ([]workflow.Rule, error) {
	const query = `SELECT status_from, status_to FROM status_transitions
WHERE entity_type = $1 ORDER BY status_from ASC, status_to ASC`
	rules := make([]workflow.Rule, 0)
	if err := r.db.SelectContext(ctx, &rules, query, entityType); err != nil {
		return nil, fmt.Errorf("list status transitions: %w", err)
	}
	return rules, nil
}

// ListColors returns the status colors of an entity type.
func (r *SettingsRepository) ListColors(ctx context.Context, entityType string) ([]models.StatusColor, error) {
	const query = `SELECT entity_type, status, color FROM status_colors
WHERE entity_type = $1 ORDER BY status ASC`
	colors := make([]models.StatusColor, 0)
	if err := r.db.SelectContext(ctx, &colors, query, entityType); err != nil {
		return nil, fmt.Errorf("list status colors: %w", err)
	}
	return colors, nil
}

// Replace swaps the whole status configuration of an entity type in one transaction.
func (r *SettingsRepository) Replace(ctx context.Context, entityType string, rules []workflow.Rule, colors []models.StatusColor) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM status_transitions WHERE entity_type = $1`, entityType); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear status transitions: %w", err)
	}
	for _, rule := range rules {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO status_transitions (entity_type, status_from, status_to) VALUES ($1, $2, $3)`,
			entityType, rule.From, rule.To,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert status transition %s->%s: %w", rule.From, rule.To, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM status_colors WHERE entity_type = $1`, entityType); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear status colors: %w", err)
	}
	for _, color := range colors {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO status_colors (entity_type, status, color) VALUES ($1, $2, $3)`,
			entityType, color.Status, color.Color,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert status color %s: %w", color.Status, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings tx: %w", err)
	}
	return nil
}
