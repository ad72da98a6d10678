package repo

import (
	"context"
	"database/sql"
	"time"

	"ataa/internal/domain"
)

const employeeColumns = `id,name,position,skills_json,current_workload,availability,performance_score,burnout_score,stress_level,recent_success,recent_failures,preferred_task_types_json,working_hours_start,working_hours_end,timezone`

func (r Repo) InsertEmployee(ctx context.Context, e domain.EmployeeProfile, now time.Time) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO employees(`+employeeColumns+`,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.Name, e.Position, jsonEnc(e.Skills, "[]"), e.CurrentWorkload, e.Availability, e.PerformanceScore,
		e.BurnoutScore, e.StressLevel, e.RecentSuccess, e.RecentFailures, jsonEnc(e.PreferredTaskTypes, "[]"),
		e.WorkingHours.Start, e.WorkingHours.End, e.Timezone, ts(now), ts(now))
	return err
}

func (r Repo) UpdateEmployee(ctx context.Context, e domain.EmployeeProfile, now time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE employees SET name=?,position=?,skills_json=?,current_workload=?,availability=?,performance_score=?,burnout_score=?,stress_level=?,recent_success=?,recent_failures=?,preferred_task_types_json=?,working_hours_start=?,working_hours_end=?,timezone=?,updated_at=? WHERE id=?`,
		e.Name, e.Position, jsonEnc(e.Skills, "[]"), e.CurrentWorkload, e.Availability, e.PerformanceScore,
		e.BurnoutScore, e.StressLevel, e.RecentSuccess, e.RecentFailures, jsonEnc(e.PreferredTaskTypes, "[]"),
		e.WorkingHours.Start, e.WorkingHours.End, e.Timezone, ts(now), e.ID)
	return notFoundOnZero(res, err)
}

func scanEmployee(scan func(dest ...any) error) (domain.EmployeeProfile, error) {
	var e domain.EmployeeProfile
	var skills, preferred string
	err := scan(&e.ID, &e.Name, &e.Position, &skills, &e.CurrentWorkload, &e.Availability, &e.PerformanceScore,
		&e.BurnoutScore, &e.StressLevel, &e.RecentSuccess, &e.RecentFailures, &preferred,
		&e.WorkingHours.Start, &e.WorkingHours.End, &e.Timezone)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	if err != nil {
		return e, err
	}
	jsonDec(skills, &e.Skills)
	jsonDec(preferred, &e.PreferredTaskTypes)
	return e, nil
}

func (r Repo) GetEmployee(ctx context.Context, id string) (domain.EmployeeProfile, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id=?`, id)
	return scanEmployee(row.Scan)
}

func (r Repo) ListEmployees(ctx context.Context) ([]domain.EmployeeProfile, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.EmployeeProfile
	for rows.Next() {
		e, err := scanEmployee(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (r Repo) DeleteEmployee(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM employees WHERE id=?`, id)
	return notFoundOnZero(res, err)
}
