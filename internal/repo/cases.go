package repo

import (
	"context"
	"time"

	"ataa/internal/domain"
)

// Success and failure cases are stored whole as JSON; analysis always reads
// the full set.

func (r Repo) InsertSuccessCase(ctx context.Context, c domain.SuccessCase, now time.Time) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO success_cases(id,title,case_json,created_at) VALUES (?,?,?,?)`,
		c.ID, c.Title, jsonEnc(c, "{}"), ts(now))
	return err
}

func (r Repo) ListSuccessCases(ctx context.Context) ([]domain.SuccessCase, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT case_json FROM success_cases ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.SuccessCase
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var c domain.SuccessCase
		jsonDec(payload, &c)
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) InsertFailCase(ctx context.Context, c domain.FailCase, now time.Time) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO fail_cases(id,title,case_json,created_at) VALUES (?,?,?,?)`,
		c.ID, c.Title, jsonEnc(c, "{}"), ts(now))
	return err
}

func (r Repo) ListFailCases(ctx context.Context) ([]domain.FailCase, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT case_json FROM fail_cases ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.FailCase
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var c domain.FailCase
		jsonDec(payload, &c)
		res = append(res, c)
	}
	return res, rows.Err()
}
