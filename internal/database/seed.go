package database

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"ghostlounge_backend/pkg/utils"
)

// SeedOptions controls the default admin account.
type SeedOptions struct {
	AdminUsername string
	AdminPassword string
}

type seedRank struct {
	name     string
	min      int64
	discount int
	color    string
	order    int
}

var defaultRanks = []seedRank{
	{"Newcomer", 0, 0, "#808080", 1},
	{"Bronze", 100, 2, "#cd7f32", 2},
	{"Silver", 300, 5, "#c0c0c0", 3},
	{"Gold", 600, 8, "#ffd700", 4},
	{"Platinum", 1000, 12, "#e5e4e2", 5},
	{"Diamond", 2000, 15, "#b9f2ff", 6},
	{"Ghost", 5000, 20, "#00ff41", 7},
}

var defaultCategories = []string{"Bundles", "Snacks", "Drinks", "Other"}

type seedPC struct {
	name, description string
}

var defaultPCs = []seedPC{
	{"PC-1", "Standard Gaming PC"},
	{"PC-2", "Standard Gaming PC"},
	{"PC-3", "Standard Gaming PC"},
	{"PC-4", "Standard Gaming PC"},
	{"PC-5", "Standard Gaming PC"},
	{"VIP-1", "VIP Gaming Station"},
	{"VIP-2", "VIP Gaming Station"},
}

// Seed inserts the default admin, categories, PCs and ranks. Each table is
// only seeded while it is empty, so running it on every start is safe.
func Seed(ctx context.Context, db *sql.DB, opts SeedOptions) error {
	return WithTx(ctx, db, func(tx *sql.Tx) error {
		now := Now()

		empty, err := tableEmpty(ctx, tx, "users")
		if err != nil {
			return err
		}
		if empty && opts.AdminUsername != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash admin password: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO users (username, password_hash, full_name, role, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
				opts.AdminUsername, string(hash), "Administrator", "admin", now, now); err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			utils.LogInfo("Seeded default admin user", map[string]interface{}{"username": opts.AdminUsername})
		}

		if empty, err = tableEmpty(ctx, tx, "categories"); err != nil {
			return err
		}
		if empty {
			for _, name := range defaultCategories {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO categories (name, created_at, updated_at) VALUES ($1, $2, $3)`, name, now, now); err != nil {
					return fmt.Errorf("seed category %s: %w", name, err)
				}
			}
		}

		if empty, err = tableEmpty(ctx, tx, "pcs"); err != nil {
			return err
		}
		if empty {
			for _, pc := range defaultPCs {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO pcs (name, description, is_active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
					pc.name, pc.description, true, now, now); err != nil {
					return fmt.Errorf("seed pc %s: %w", pc.name, err)
				}
			}
		}

		if empty, err = tableEmpty(ctx, tx, "ranks"); err != nil {
			return err
		}
		if empty {
			for _, r := range defaultRanks {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO ranks (name, min_points, discount_percent, color, sort_order, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
					r.name, r.min, r.discount, r.color, r.order, now, now); err != nil {
					return fmt.Errorf("seed rank %s: %w", r.name, err)
				}
			}
		}
		return nil
	})
}

func tableEmpty(ctx context.Context, tx *sql.Tx, table string) (bool, error) {
	var n int64
	// table names are package constants, never user input
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return false, fmt.Errorf("count %s: %w", table, err)
	}
	return n == 0, nil
}
