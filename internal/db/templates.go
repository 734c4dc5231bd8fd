package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dgrieve/ironlance/internal/engine"
)

// ─── Unit template store (Postgres) ─────────────────────────────────────────
// The batch simulator reads unit templates from Postgres and writes combat
// ratings back. Weapons are stored as a JSON array per template.

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Template is one stored unit template plus its database id.
type Template struct {
	ID   int
	Spec engine.UnitSpec
}

// LoadTemplates reads every unit template, optionally filtered by a
// comma-separated list of name substrings.
func LoadTemplates(ctx context.Context, pool *pgxpool.Pool, filter string) ([]Template, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, name, tonnage, armor, heat_capacity, walk_mp, jump_mp,
		       gunnery, piloting, weapons
		FROM unit_templates
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		var t Template
		var weaponsJSON []byte
		err := rows.Scan(&t.ID, &t.Spec.Name, &t.Spec.Tonnage, &t.Spec.Armor,
			&t.Spec.HeatCap, &t.Spec.WalkMP, &t.Spec.JumpMP,
			&t.Spec.Gunnery, &t.Spec.Piloting, &weaponsJSON)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		if err := json.Unmarshal(weaponsJSON, &t.Spec.Weapons); err != nil {
			return nil, fmt.Errorf("template %d weapons: %w", t.ID, err)
		}
		t.Spec.ID = fmt.Sprintf("tpl-%d", t.ID)
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}

	if filter == "" {
		return templates, nil
	}
	var filtered []Template
	for _, t := range templates {
		for _, f := range strings.Split(filter, ",") {
			if strings.Contains(strings.ToLower(t.Spec.Name), strings.ToLower(strings.TrimSpace(f))) {
				filtered = append(filtered, t)
				break
			}
		}
	}
	return filtered, nil
}

// UpdateRating writes a template's batch-sim rating back.
func UpdateRating(ctx context.Context, pool *pgxpool.Pool, id int, rating, offense, defense float64) error {
	_, err := pool.Exec(ctx, `
		UPDATE unit_templates
		SET combat_rating = $2, offense_rounds = $3, defense_rounds = $4
		WHERE id = $1`, id, rating, offense, defense)
	if err != nil {
		return fmt.Errorf("update rating %d: %w", id, err)
	}
	return nil
}
