package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ghostlounge_backend/internal/models"
)

// RankRepository persists loyalty tiers and answers threshold lookups.
type RankRepository interface {
	CreateRank(ctx context.Context, executor SQLExecutor, rank *models.Rank) (int64, error)
	GetRankByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Rank, error)
	GetRankByMinPoints(ctx context.Context, executor SQLExecutor, minPoints int64) (*models.Rank, error)
	GetRanks(ctx context.Context) ([]models.Rank, error)
	UpdateRank(ctx context.Context, executor SQLExecutor, rank *models.Rank) error
	DeleteRank(ctx context.Context, executor SQLExecutor, id int64) error
	// FindCurrent returns the rank with the greatest min_points <= points, or nil.
	FindCurrent(ctx context.Context, executor SQLExecutor, points int64) (*models.Rank, error)
	// FindNext returns the rank with the smallest min_points > points, or nil.
	FindNext(ctx context.Context, executor SQLExecutor, points int64) (*models.Rank, error)
}

type rankRepository struct {
	db *sql.DB
}

// NewRankRepository creates a new instance of RankRepository.
func NewRankRepository(db *sql.DB) RankRepository {
	return &rankRepository{db: db}
}

const selectRankFields = `id, name, min_points, discount_percent, color, sort_order, created_at, updated_at FROM ranks`

func scanRank(row scanner) (*models.Rank, error) {
	var rk models.Rank
	if err := row.Scan(&rk.ID, &rk.Name, &rk.MinPoints, &rk.DiscountPercent, &rk.Color, &rk.SortOrder, &rk.CreatedAt, &rk.UpdatedAt); err != nil {
		return nil, err
	}
	return &rk, nil
}

func (r *rankRepository) CreateRank(ctx context.Context, executor SQLExecutor, rank *models.Rank) (int64, error) {
	query := `INSERT INTO ranks (name, min_points, discount_percent, color, sort_order, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		rank.Name, rank.MinPoints, rank.DiscountPercent, rank.Color, rank.SortOrder, rank.CreatedAt, rank.UpdatedAt,
	).Scan(&rank.ID)
	if err != nil {
		return 0, classifyError(err, "creating rank")
	}
	return rank.ID, nil
}

func (r *rankRepository) GetRankByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Rank, error) {
	rk, err := scanRank(executor.QueryRowContext(ctx, `SELECT `+selectRankFields+` WHERE id = $1`, id))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting rank ID %d", id))
	}
	return rk, nil
}

func (r *rankRepository) GetRankByMinPoints(ctx context.Context, executor SQLExecutor, minPoints int64) (*models.Rank, error) {
	rk, err := scanRank(executor.QueryRowContext(ctx, `SELECT `+selectRankFields+` WHERE min_points = $1`, minPoints))
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("getting rank at %d points", minPoints))
	}
	return rk, nil
}

func (r *rankRepository) GetRanks(ctx context.Context) ([]models.Rank, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectRankFields+` ORDER BY min_points ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying ranks: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	ranks := []models.Rank{}
	for rows.Next() {
		rk, err := scanRank(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning rank: %v", ErrDatabaseError, err)
		}
		ranks = append(ranks, *rk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating rank rows: %v", ErrDatabaseError, err)
	}
	return ranks, nil
}

func (r *rankRepository) UpdateRank(ctx context.Context, executor SQLExecutor, rank *models.Rank) error {
	op := fmt.Sprintf("updating rank ID %d", rank.ID)
	query := `UPDATE ranks SET name = $1, min_points = $2, discount_percent = $3, color = $4, sort_order = $5, updated_at = $6
	          WHERE id = $7`
	result, err := executor.ExecContext(ctx, query,
		rank.Name, rank.MinPoints, rank.DiscountPercent, rank.Color, rank.SortOrder, rank.UpdatedAt, rank.ID)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}

func (r *rankRepository) DeleteRank(ctx context.Context, executor SQLExecutor, id int64) error {
	op := fmt.Sprintf("deleting rank ID %d", id)
	result, err := executor.ExecContext(ctx, `DELETE FROM ranks WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, op)
	}
	return affectedOne(result, op)
}

func (r *rankRepository) FindCurrent(ctx context.Context, executor SQLExecutor, points int64) (*models.Rank, error) {
	return r.findOptional(ctx, executor, `SELECT `+selectRankFields+` WHERE min_points <= $1 ORDER BY min_points DESC LIMIT 1`, points)
}

func (r *rankRepository) FindNext(ctx context.Context, executor SQLExecutor, points int64) (*models.Rank, error) {
	return r.findOptional(ctx, executor, `SELECT `+selectRankFields+` WHERE min_points > $1 ORDER BY min_points ASC LIMIT 1`, points)
}

func (r *rankRepository) findOptional(ctx context.Context, executor SQLExecutor, query string, points int64) (*models.Rank, error) {
	rk, err := scanRank(executor.QueryRowContext(ctx, query, points))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: looking up rank for %d points: %v", ErrDatabaseError, points, err)
	}
	return rk, nil
}
