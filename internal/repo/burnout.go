package repo

import (
	"context"
	"database/sql"

	"ataa/internal/domain"
)

func (r Repo) InsertBurnoutSnapshot(ctx context.Context, record domain.BurnoutRecord) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO burnout_snapshots(employee_id,taken_at,burnout_score,fatigue_level,stress_level,record_json) VALUES (?,?,?,?,?,?)`,
		record.EmployeeID, ts(record.LastUpdated), record.BurnoutScore, record.FatigueLevel, record.StressLevel, jsonEnc(record, "{}"))
	return err
}

// BurnoutTrend returns snapshot points for an employee oldest first, capped
// at limit.
func (r Repo) BurnoutTrend(ctx context.Context, employeeID string, limit int) ([]domain.TrendPoint, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT taken_at,burnout_score,fatigue_level,stress_level FROM (
		SELECT taken_at,burnout_score,fatigue_level,stress_level FROM burnout_snapshots WHERE employee_id=? ORDER BY taken_at DESC LIMIT ?
	) ORDER BY taken_at`, employeeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var points []domain.TrendPoint
	for rows.Next() {
		var p domain.TrendPoint
		var takenAt string
		if err := rows.Scan(&takenAt, &p.BurnoutScore, &p.FatigueLevel, &p.StressLevel); err != nil {
			return nil, err
		}
		p.Date = parseTS(takenAt)
		points = append(points, p)
	}
	return points, rows.Err()
}

// LatestBurnoutRecord returns the most recent full analysis for an employee.
func (r Repo) LatestBurnoutRecord(ctx context.Context, employeeID string) (domain.BurnoutRecord, error) {
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT record_json FROM burnout_snapshots WHERE employee_id=? ORDER BY taken_at DESC LIMIT 1`, employeeID).Scan(&payload)
	if err == sql.ErrNoRows {
		return domain.BurnoutRecord{}, ErrNotFound
	}
	if err != nil {
		return domain.BurnoutRecord{}, err
	}
	var record domain.BurnoutRecord
	jsonDec(payload, &record)
	return record, nil
}
