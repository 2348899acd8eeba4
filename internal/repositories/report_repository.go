package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"dealdesk/internal/models"
)

type ReportRepository interface {
	Funnel(ctx context.Context) ([]models.FunnelRow, error)
	WinRate(ctx context.Context) (*models.WinRate, error)
	Forecast(ctx context.Context) ([]models.ForecastRow, error)
	ActivityCounts(ctx context.Context) ([]models.ActivityCount, error)
}

type reportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Funnel counts open deals and sums their value per stage.
func (r *reportRepository) Funnel(ctx context.Context) ([]models.FunnelRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT stage_id, COUNT(*), COALESCE(SUM(value_amount), 0)
		FROM deals
		WHERE status = 'open'
		GROUP BY stage_id
		ORDER BY stage_id`)
	if err != nil {
		return nil, fmt.Errorf("funnel report: %w", err)
	}
	defer rows.Close()

	res := []models.FunnelRow{}
	for rows.Next() {
		var row models.FunnelRow
		if err := rows.Scan(&row.StageID, &row.Count, &row.TotalValue); err != nil {
			return nil, fmt.Errorf("scan funnel row: %w", err)
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

func (r *reportRepository) WinRate(ctx context.Context) (*models.WinRate, error) {
	wr := &models.WinRate{}
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN status = 'won' THEN 1 ELSE 0 END), 0), COUNT(*)
		FROM deals`).Scan(&wr.Won, &wr.Total)
	if err != nil {
		return nil, fmt.Errorf("win rate report: %w", err)
	}
	if wr.Total > 0 {
		wr.WinRate = float64(wr.Won) / float64(wr.Total)
	}
	return wr, nil
}

// Forecast sums open deal value per expected-close month. Dates are stored
// as YYYY-MM-DD text, so grouping happens here rather than in SQL.
func (r *reportRepository) Forecast(ctx context.Context) ([]models.ForecastRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT expected_close_date, value_amount
		FROM deals
		WHERE status = 'open' AND expected_close_date IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("forecast report: %w", err)
	}
	defer rows.Close()

	byMonth := map[string]float64{}
	for rows.Next() {
		var (
			date  string
			value float64
		)
		if err := rows.Scan(&date, &value); err != nil {
			return nil, fmt.Errorf("scan forecast row: %w", err)
		}
		if len(date) < 7 {
			continue
		}
		byMonth[date[:7]] += value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res := make([]models.ForecastRow, 0, len(byMonth))
	for month, value := range byMonth {
		res = append(res, models.ForecastRow{Month: month, ForecastValue: value})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Month < res[j].Month })
	return res, nil
}

func (r *reportRepository) ActivityCounts(ctx context.Context) ([]models.ActivityCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT owner_id, COUNT(*)
		FROM activities
		GROUP BY owner_id
		ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("activity counts report: %w", err)
	}
	defer rows.Close()

	res := []models.ActivityCount{}
	for rows.Next() {
		var row models.ActivityCount
		if err := rows.Scan(&row.OwnerID, &row.Count); err != nil {
			return nil, fmt.Errorf("scan activity count: %w", err)
		}
		res = append(res, row)
	}
	return res, rows.Err()
}
