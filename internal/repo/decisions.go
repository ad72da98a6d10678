package repo

import (
	"context"
	"database/sql"

	"ataa/internal/domain"
)

const decisionColumns = `id,type,title,description,context_json,options_json,recommended_option,reasoning_json,confidence,urgency,impact,created_at,expires_at,status,decided_by,decided_at,actual_outcome,outcome_notes`

func (r Repo) InsertDecision(ctx context.Context, d domain.Decision) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO decisions(`+decisionColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		d.ID, d.Type, d.Title, d.Description, jsonEnc(d.Context, "{}"), jsonEnc(d.Options, "[]"),
		d.RecommendedOption, jsonEnc(d.Reasoning, "[]"), d.Confidence, d.Urgency, d.Impact,
		ts(d.CreatedAt), ts(d.ExpiresAt), d.Status, d.DecidedBy, tsPtr(d.DecidedAt), d.ActualOutcome, d.OutcomeNotes)
	return err
}

func (r Repo) UpdateDecision(ctx context.Context, d domain.Decision) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE decisions SET status=?,decided_by=?,decided_at=?,actual_outcome=?,outcome_notes=? WHERE id=?`,
		d.Status, d.DecidedBy, tsPtr(d.DecidedAt), d.ActualOutcome, d.OutcomeNotes, d.ID)
	return notFoundOnZero(res, err)
}

func scanDecision(scan func(dest ...any) error) (domain.Decision, error) {
	var d domain.Decision
	var contextJSON, optionsJSON, reasoningJSON, createdAt, expiresAt string
	var decidedAt sql.NullString
	err := scan(&d.ID, &d.Type, &d.Title, &d.Description, &contextJSON, &optionsJSON, &d.RecommendedOption,
		&reasoningJSON, &d.Confidence, &d.Urgency, &d.Impact, &createdAt, &expiresAt, &d.Status,
		&d.DecidedBy, &decidedAt, &d.ActualOutcome, &d.OutcomeNotes)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	if err != nil {
		return d, err
	}
	jsonDec(contextJSON, &d.Context)
	jsonDec(optionsJSON, &d.Options)
	jsonDec(reasoningJSON, &d.Reasoning)
	d.CreatedAt = parseTS(createdAt)
	d.ExpiresAt = parseTS(expiresAt)
	d.DecidedAt = parseTSPtr(decidedAt)
	return d, nil
}

func (r Repo) GetDecision(ctx context.Context, id string) (domain.Decision, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+decisionColumns+` FROM decisions WHERE id=?`, id)
	return scanDecision(row.Scan)
}

// ListDecisions filters by status when status is non-empty.
func (r Repo) ListDecisions(ctx context.Context, status string) ([]domain.Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions ORDER BY created_at DESC`
	args := []any{}
	if status != "" {
		query = `SELECT ` + decisionColumns + ` FROM decisions WHERE status=? ORDER BY created_at DESC`
		args = append(args, status)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Decision
	for rows.Next() {
		d, err := scanDecision(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// ExpirePendingDecisions marks pending decisions past their expiry. Returns
// the number of rows flipped.
func (r Repo) ExpirePendingDecisions(ctx context.Context, now string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE decisions SET status='expired' WHERE status='pending' AND expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
