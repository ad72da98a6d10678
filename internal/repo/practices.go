package repo

import (
	"context"
	"database/sql"

	"ataa/internal/domain"
)

const practiceColumns = `id,title,description,category,subcategory,related_to_json,author_json,created_at,updated_at,usage_count,rating,reviews_json,tags_json,steps_json,results_json,resources_json,approved,approved_by,featured`

func (r Repo) InsertPractice(ctx context.Context, p domain.BestPractice) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO practices(`+practiceColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Title, p.Description, p.Category, p.Subcategory, jsonEnc(p.RelatedTo, "[]"), jsonEnc(p.Author, "{}"),
		ts(p.CreatedAt), ts(p.UpdatedAt), p.UsageCount, p.Rating, jsonEnc(p.Reviews, "[]"), jsonEnc(p.Tags, "[]"),
		jsonEnc(p.Steps, "[]"), jsonEnc(p.Results, "[]"), jsonEnc(p.Resources, "[]"), p.Approved, p.ApprovedBy, p.Featured)
	return err
}

func (r Repo) UpdatePractice(ctx context.Context, p domain.BestPractice) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE practices SET title=?,description=?,category=?,subcategory=?,related_to_json=?,updated_at=?,usage_count=?,rating=?,reviews_json=?,tags_json=?,steps_json=?,results_json=?,resources_json=?,approved=?,approved_by=?,featured=? WHERE id=?`,
		p.Title, p.Description, p.Category, p.Subcategory, jsonEnc(p.RelatedTo, "[]"), ts(p.UpdatedAt),
		p.UsageCount, p.Rating, jsonEnc(p.Reviews, "[]"), jsonEnc(p.Tags, "[]"), jsonEnc(p.Steps, "[]"),
		jsonEnc(p.Results, "[]"), jsonEnc(p.Resources, "[]"), p.Approved, p.ApprovedBy, p.Featured, p.ID)
	return notFoundOnZero(res, err)
}

func scanPractice(scan func(dest ...any) error) (domain.BestPractice, error) {
	var p domain.BestPractice
	var related, author, reviews, tags, steps, results, resources, createdAt, updatedAt string
	err := scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.Subcategory, &related, &author,
		&createdAt, &updatedAt, &p.UsageCount, &p.Rating, &reviews, &tags, &steps, &results, &resources,
		&p.Approved, &p.ApprovedBy, &p.Featured)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	jsonDec(related, &p.RelatedTo)
	jsonDec(author, &p.Author)
	jsonDec(reviews, &p.Reviews)
	jsonDec(tags, &p.Tags)
	jsonDec(steps, &p.Steps)
	jsonDec(results, &p.Results)
	jsonDec(resources, &p.Resources)
	p.CreatedAt = parseTS(createdAt)
	p.UpdatedAt = parseTS(updatedAt)
	return p, nil
}

func (r Repo) GetPractice(ctx context.Context, id string) (domain.BestPractice, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+practiceColumns+` FROM practices WHERE id=?`, id)
	return scanPractice(row.Scan)
}

func (r Repo) ListPractices(ctx context.Context) ([]domain.BestPractice, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+practiceColumns+` FROM practices ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.BestPractice
	for rows.Next() {
		p, err := scanPractice(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) IncrementPracticeUsage(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE practices SET usage_count=usage_count+1 WHERE id=?`, id)
	return notFoundOnZero(res, err)
}
