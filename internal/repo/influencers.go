package repo

import (
	"context"
	"database/sql"

	"ataa/internal/domain"
)

const influencerColumns = `id,name,platform,category,followers,engagement_json,history_json,audience_json,content_quality,reliability,updated_at`

func (r Repo) UpsertInfluencer(ctx context.Context, inf domain.InfluencerData) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO influencers(`+influencerColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name,platform=excluded.platform,category=excluded.category,
		followers=excluded.followers,engagement_json=excluded.engagement_json,history_json=excluded.history_json,
		audience_json=excluded.audience_json,content_quality=excluded.content_quality,reliability=excluded.reliability,
		updated_at=excluded.updated_at`,
		inf.ID, inf.Name, inf.Platform, inf.Category, inf.Followers, jsonEnc(inf.Engagement, "{}"),
		jsonEnc(inf.HistoricalPerformance, "[]"), jsonEnc(inf.Audience, "{}"), inf.ContentQuality, inf.Reliability,
		ts(inf.LastUpdated))
	return err
}

func scanInfluencer(scan func(dest ...any) error) (domain.InfluencerData, error) {
	var inf domain.InfluencerData
	var engagement, history, audience, updatedAt string
	err := scan(&inf.ID, &inf.Name, &inf.Platform, &inf.Category, &inf.Followers, &engagement, &history, &audience,
		&inf.ContentQuality, &inf.Reliability, &updatedAt)
	if err == sql.ErrNoRows {
		return inf, ErrNotFound
	}
	if err != nil {
		return inf, err
	}
	jsonDec(engagement, &inf.Engagement)
	jsonDec(history, &inf.HistoricalPerformance)
	jsonDec(audience, &inf.Audience)
	inf.LastUpdated = parseTS(updatedAt)
	return inf, nil
}

func (r Repo) GetInfluencer(ctx context.Context, id string) (domain.InfluencerData, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+influencerColumns+` FROM influencers WHERE id=?`, id)
	return scanInfluencer(row.Scan)
}

func (r Repo) ListInfluencers(ctx context.Context) ([]domain.InfluencerData, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+influencerColumns+` FROM influencers ORDER BY followers DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.InfluencerData
	for rows.Next() {
		inf, err := scanInfluencer(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, inf)
	}
	return res, rows.Err()
}

func (r Repo) DeleteInfluencer(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM influencers WHERE id=?`, id)
	return notFoundOnZero(res, err)
}
