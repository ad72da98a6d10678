package repo

import (
	"context"
	"database/sql"

	"ataa/internal/domain"
)

const taskColumns = `id,title,description,category,priority,estimated_hours,difficulty,required_skills_json,deadline,tags_json,assignee_id,created_at`

func (r Repo) InsertTask(ctx context.Context, t domain.TaskToDistribute) error {
	var assignee any
	if t.AssigneeID != nil {
		assignee = *t.AssigneeID
	}
	_, err := r.DB.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Title, t.Description, t.Category, t.Priority, t.EstimatedHours, t.Difficulty,
		jsonEnc(t.RequiredSkills, "[]"), ts(t.Deadline), jsonEnc(t.Tags, "[]"), assignee, ts(t.CreatedAt))
	return err
}

func (r Repo) SetTaskAssignee(ctx context.Context, taskID, employeeID string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE tasks SET assignee_id=? WHERE id=?`, employeeID, taskID)
	return notFoundOnZero(res, err)
}

func scanTask(scan func(dest ...any) error) (domain.TaskToDistribute, error) {
	var t domain.TaskToDistribute
	var skills, tags, deadline, createdAt string
	var assignee sql.NullString
	err := scan(&t.ID, &t.Title, &t.Description, &t.Category, &t.Priority, &t.EstimatedHours, &t.Difficulty,
		&skills, &deadline, &tags, &assignee, &createdAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	jsonDec(skills, &t.RequiredSkills)
	jsonDec(tags, &t.Tags)
	t.Deadline = parseTS(deadline)
	t.CreatedAt = parseTS(createdAt)
	if assignee.Valid {
		t.AssigneeID = &assignee.String
	}
	return t, nil
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.TaskToDistribute, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	return scanTask(row.Scan)
}

// ListUnassignedTasks returns the backlog: tasks with no assignee yet.
func (r Repo) ListUnassignedTasks(ctx context.Context) ([]domain.TaskToDistribute, error) {
	return r.listTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE assignee_id IS NULL ORDER BY created_at`)
}

func (r Repo) ListTasks(ctx context.Context) ([]domain.TaskToDistribute, error) {
	return r.listTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at`)
}

func (r Repo) listTasks(ctx context.Context, query string) ([]domain.TaskToDistribute, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.TaskToDistribute
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r Repo) InsertAssignment(ctx context.Context, a domain.Assignment, result domain.DistributionResult) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO assignments(id,task_id,employee_id,score,result_json,assigned_at,assigned_by) VALUES (?,?,?,?,?,?,?)`,
		a.ID, a.TaskID, a.EmployeeID, a.Score, jsonEnc(result, "{}"), ts(a.AssignedAt), a.AssignedBy)
	return err
}

func (r Repo) ListAssignmentsForEmployee(ctx context.Context, employeeID string) ([]domain.Assignment, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,task_id,employee_id,score,assigned_at,assigned_by FROM assignments WHERE employee_id=? ORDER BY assigned_at DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		var assignedAt string
		if err := rows.Scan(&a.ID, &a.TaskID, &a.EmployeeID, &a.Score, &assignedAt, &a.AssignedBy); err != nil {
			return nil, err
		}
		a.AssignedAt = parseTS(assignedAt)
		res = append(res, a)
	}
	return res, rows.Err()
}
