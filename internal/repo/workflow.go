package repo

import (
	"context"
	"database/sql"

	"ataa/internal/domain"
)

const stepColumns = `id,project_id,step_number,title,description,required,status,assigned_to,files_json,dependencies_json,deadline,completed_at,completed_by,estimated_hours,actual_hours,notes`

func (r Repo) InsertSteps(ctx context.Context, steps []domain.ProjectStep) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, s := range steps {
		if _, err := tx.ExecContext(ctx, `INSERT INTO workflow_steps(`+stepColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			s.ID, s.ProjectID, s.StepNumber, s.Title, s.Description, s.Required, s.Status, s.AssignedTo,
			jsonEnc(s.Files, "[]"), jsonEnc(s.Dependencies, "[]"), tsPtr(s.Deadline), tsPtr(s.CompletedAt),
			s.CompletedBy, s.EstimatedHours, s.ActualHours, s.Notes); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r Repo) UpdateStep(ctx context.Context, s domain.ProjectStep) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE workflow_steps SET status=?,assigned_to=?,files_json=?,completed_at=?,completed_by=?,actual_hours=?,notes=? WHERE id=?`,
		s.Status, s.AssignedTo, jsonEnc(s.Files, "[]"), tsPtr(s.CompletedAt), s.CompletedBy, s.ActualHours, s.Notes, s.ID)
	return notFoundOnZero(res, err)
}

func scanStep(scan func(dest ...any) error) (domain.ProjectStep, error) {
	var s domain.ProjectStep
	var files, deps string
	var deadline, completedAt sql.NullString
	err := scan(&s.ID, &s.ProjectID, &s.StepNumber, &s.Title, &s.Description, &s.Required, &s.Status, &s.AssignedTo,
		&files, &deps, &deadline, &completedAt, &s.CompletedBy, &s.EstimatedHours, &s.ActualHours, &s.Notes)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	jsonDec(files, &s.Files)
	jsonDec(deps, &s.Dependencies)
	s.Deadline = parseTSPtr(deadline)
	s.CompletedAt = parseTSPtr(completedAt)
	return s, nil
}

func (r Repo) GetStep(ctx context.Context, id string) (domain.ProjectStep, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+stepColumns+` FROM workflow_steps WHERE id=?`, id)
	return scanStep(row.Scan)
}

func (r Repo) ListProjectSteps(ctx context.Context, projectID string) ([]domain.ProjectStep, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+stepColumns+` FROM workflow_steps WHERE project_id=? ORDER BY step_number`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ProjectStep
	for rows.Next() {
		s, err := scanStep(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
