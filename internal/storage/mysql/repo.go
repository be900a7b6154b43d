package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"review_dashboard/internal/domain"
)

func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func valJSON(b []byte) any {
	if len(b) == 0 {
		return "{}"
	}
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*12) // 12 params per row
	for _, rv := range rs {
		cats, _ := json.Marshal(rv.Categories)
		values = append(values, "(?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			rv.ID,
			rv.PropertyID,
			rv.GuestName,
			valF64(rv.Rating),
			rv.PublicReview,
			rv.Channel,
			rv.ReviewType,
			rv.Status,
			rv.DisplayOnWebsite, // only honored on first insert
			string(cats),
			rv.SubmittedAt.UTC(),
			valJSON(rv.RawJSON),
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) SetDisplayOnWebsite(ctx context.Context, id string, display bool) error {
	res, err := r.db.ExecContext(ctx, setDisplaySQL, display, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Could also mean the flag already had this value; re-check existence.
		var one int
		if scanErr := r.db.QueryRowContext(ctx, "SELECT 1 FROM reviews WHERE id = ?", id).Scan(&one); scanErr == sql.ErrNoRows {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (r *Repo) LogMiss(ctx context.Context, endpoint string, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, endpoint, status, reason)
	return err
}

func (r *Repo) GetReview(ctx context.Context, id string) (domain.Review, error) {
	row := r.db.QueryRowContext(ctx, getReviewSQL, id)
	rv, err := scanReview(row)
	if err == sql.ErrNoRows {
		return domain.Review{}, domain.ErrNotFound
	}
	return rv, err
}

func (r *Repo) ListReviews(ctx context.Context, q domain.ReviewsQuery) ([]domain.Review, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(reviewColumns)
	sb.WriteString(" FROM reviews")

	var conds []string
	var args []any
	if q.PropertyID != nil {
		conds = append(conds, "property_id = ?")
		args = append(args, *q.PropertyID)
	}
	if q.DisplayOnWebsite != nil {
		conds = append(conds, "display_on_website = ?")
		args = append(args, *q.DisplayOnWebsite)
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY submitted_at DESC, id DESC")
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}

func (r *Repo) ListAllReviews(ctx context.Context) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, listAllReviewsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}

// ---- scanning ----

type rowScanner interface{ Scan(dest ...any) error }

func scanReview(row rowScanner) (domain.Review, error) {
	var rv domain.Review
	var (
		rating    sql.NullFloat64
		catsRaw   []byte
		submitted sql.NullTime
		rawB      []byte
	)
	if err := row.Scan(
		&rv.ID,
		&rv.PropertyID,
		&rv.GuestName,
		&rating,
		&rv.PublicReview,
		&rv.Channel,
		&rv.ReviewType,
		&rv.Status,
		&rv.DisplayOnWebsite,
		&catsRaw,
		&submitted,
		&rawB,
	); err != nil {
		return domain.Review{}, err
	}
	if rating.Valid {
		f := rating.Float64
		rv.Rating = &f
	}
	if submitted.Valid {
		rv.SubmittedAt = submitted.Time
	}
	rv.Categories = []domain.CategoryRating{}
	if len(catsRaw) > 0 {
		_ = json.Unmarshal(catsRaw, &rv.Categories)
	}
	if len(rawB) > 0 {
		rv.RawJSON = append([]byte(nil), rawB...)
	}
	return rv, nil
}

func collectReviews(rows *sql.Rows) ([]domain.Review, error) {
	var out []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
