package models

import "time"

// Rank is a loyalty tier. A client holds the rank with the greatest
// MinPoints not exceeding their total points.
type Rank struct {
	ID              int64     `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	MinPoints       int64     `json:"min_points" db:"min_points"`
	DiscountPercent int       `json:"discount_percent" db:"discount_percent"`
	Color           string    `json:"color" db:"color"`
	SortOrder       int       `json:"sort_order" db:"sort_order"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// RankInfo is the rank lookup result for a points total. Either side may be nil.
type RankInfo struct {
	CurrentRank *Rank `json:"current_rank"`
	NextRank    *Rank `json:"next_rank"`
}

// DiscountPercent is the current rank's discount, or zero without a rank.
func (ri RankInfo) DiscountPercent() int {
	if ri.CurrentRank == nil {
		return 0
	}
	return ri.CurrentRank.DiscountPercent
}

// ClientRankInfo adds progress towards the next rank.
type ClientRankInfo struct {
	ClientID        int64  `json:"client_id"`
	TotalPoints     int64  `json:"total_points"`
	CurrentRank     *Rank  `json:"current_rank"`
	NextRank        *Rank  `json:"next_rank"`
	PointsToNext    *int64 `json:"points_to_next,omitempty"`
	ProgressPercent int    `json:"progress_percent"`
}
