package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"ghostlounge_backend/internal/database"
	"ghostlounge_backend/internal/models"
	"ghostlounge_backend/internal/repositories"
	"ghostlounge_backend/pkg/utils"
)

// RankRequest is used for both create and update; update replaces every field.
type RankRequest struct {
	Name            string `json:"name" binding:"required"`
	MinPoints       int64  `json:"min_points"`
	DiscountPercent int    `json:"discount_percent"`
	Color           string `json:"color"`
	SortOrder       int    `json:"sort_order"`
}

type RankService interface {
	CreateRank(ctx context.Context, req RankRequest) (*models.Rank, error)
	GetRank(ctx context.Context, id int64) (*models.Rank, error)
	GetRanks(ctx context.Context) ([]models.Rank, error)
	UpdateRank(ctx context.Context, id int64, req RankRequest) (*models.Rank, error)
	DeleteRank(ctx context.Context, id int64) error
}

type rankService struct {
	rankRepo repositories.RankRepository
	db       *sql.DB
}

func NewRankService(repo repositories.RankRepository, db *sql.DB) RankService {
	return &rankService{rankRepo: repo, db: db}
}

func validateRank(req RankRequest) error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return validationf("rank name cannot be empty")
	case req.MinPoints < 0:
		return validationf("min_points cannot be negative")
	case req.DiscountPercent < 0 || req.DiscountPercent > 100:
		return validationf("discount_percent must be between 0 and 100")
	case req.Color != "" && !utils.IsValidColor(req.Color):
		return validationf("color must look like #RRGGBB")
	case req.SortOrder < 0:
		return validationf("sort_order cannot be negative")
	}
	return nil
}

// ensureThresholdFree rejects min_points already used by a rank other than selfID.
func (s *rankService) ensureThresholdFree(ctx context.Context, exec repositories.SQLExecutor, minPoints int64, selfID int64) error {
	existing, err := s.rankRepo.GetRankByMinPoints(ctx, exec, minPoints)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storeErr(err, nil, "checking rank threshold")
	}
	if existing.ID != selfID {
		return ErrRankThresholdTaken
	}
	return nil
}

func thresholdConflict(err error, notFound error, op string) error {
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return ErrRankThresholdTaken
	}
	return storeErr(err, notFound, op)
}

func (s *rankService) CreateRank(ctx context.Context, req RankRequest) (*models.Rank, error) {
	if err := validateRank(req); err != nil {
		return nil, err
	}
	now := database.Now()
	rank := &models.Rank{
		Name:            strings.TrimSpace(req.Name),
		MinPoints:       req.MinPoints,
		DiscountPercent: req.DiscountPercent,
		Color:           req.Color,
		SortOrder:       req.SortOrder,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.ensureThresholdFree(ctx, tx, rank.MinPoints, 0); err != nil {
			return err
		}
		_, err := s.rankRepo.CreateRank(ctx, tx, rank)
		return thresholdConflict(err, nil, "creating rank")
	})
	if err != nil {
		return nil, storeErr(err, nil, "creating rank")
	}
	return s.GetRank(ctx, rank.ID)
}

func (s *rankService) GetRank(ctx context.Context, id int64) (*models.Rank, error) {
	rank, err := s.rankRepo.GetRankByID(ctx, s.db, id)
	if err != nil {
		return nil, storeErr(err, ErrRankNotFound, "getting rank")
	}
	return rank, nil
}

func (s *rankService) GetRanks(ctx context.Context) ([]models.Rank, error) {
	ranks, err := s.rankRepo.GetRanks(ctx)
	return ranks, storeErr(err, nil, "listing ranks")
}

func (s *rankService) UpdateRank(ctx context.Context, id int64, req RankRequest) (*models.Rank, error) {
	if err := validateRank(req); err != nil {
		return nil, err
	}
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		rank, err := s.rankRepo.GetRankByID(ctx, tx, id)
		if err != nil {
			return storeErr(err, ErrRankNotFound, "loading rank")
		}
		if err := s.ensureThresholdFree(ctx, tx, req.MinPoints, id); err != nil {
			return err
		}
		rank.Name = strings.TrimSpace(req.Name)
		rank.MinPoints = req.MinPoints
		rank.DiscountPercent = req.DiscountPercent
		rank.Color = req.Color
		rank.SortOrder = req.SortOrder
		rank.UpdatedAt = database.Now()
		return thresholdConflict(s.rankRepo.UpdateRank(ctx, tx, rank), ErrRankNotFound, "updating rank")
	})
	if err != nil {
		return nil, storeErr(err, nil, "updating rank")
	}
	return s.GetRank(ctx, id)
}

func (s *rankService) DeleteRank(ctx context.Context, id int64) error {
	return storeErr(s.rankRepo.DeleteRank(ctx, s.db, id), ErrRankNotFound, "deleting rank")
}
