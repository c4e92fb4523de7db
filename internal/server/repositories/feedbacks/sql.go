package feedbacks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/feedbackhub/internal/common"
	"github.com/dmitrijs2005/feedbackhub/internal/dbx"
	"github.com/dmitrijs2005/feedbackhub/internal/server/models"
)

const columns = `id, institution_code, subject, text, lang, sentiment, spam, spam_score, tags,
		secret_text, secret_sentiment, secret_spam, secret_spam_score`

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

// Create inserts fb as a single row and fills its ID.
func (r *SQLRepository) Create(ctx context.Context, fb *models.Feedback) (*models.Feedback, error) {
	query := r.db.Rebind(
		`INSERT INTO feedbacks (institution_code, subject, text, lang, sentiment, spam, spam_score, tags,
		 	tags_folded, secret_text, secret_sentiment, secret_spam, secret_spam_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`)

	err := r.db.QueryRowxContext(ctx, query,
		fb.InstitutionCode, fb.Subject, fb.Text, fb.Lang, fb.Sentiment, fb.Spam, fb.SpamScore, fb.Tags,
		FoldTags(fb.Tags), fb.SecretText, fb.SecretSentiment, fb.SecretSpam, fb.SecretSpamScore,
	).Scan(&fb.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return fb, nil
}

// Query lists feedback of one institution matching every criterion of filter.
func (r *SQLRepository) Query(ctx context.Context, code string, filter models.FeedbackFilter) ([]*models.Feedback, error) {
	query, args := buildQuery(code, filter)

	items := []*models.Feedback{}
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return items, nil
}

// GetScoped returns the feedback only if it belongs to the institution with
// the given code, otherwise common.ErrorNotFound.
func (r *SQLRepository) GetScoped(ctx context.Context, id int64, code string) (*models.Feedback, error) {
	query := r.db.Rebind(
		`SELECT ` + columns + `
		 FROM feedbacks
		 WHERE id = ? AND institution_code = ?`)

	fb := &models.Feedback{}
	if err := r.db.GetContext(ctx, fb, query, id, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return fb, nil
}

// buildQuery renders filter as a '?'-placeholder statement. The institution
// predicate always comes first.
func buildQuery(code string, filter models.FeedbackFilter) (string, []any) {
	var sb strings.Builder
	args := []any{code}

	sb.WriteString(`SELECT ` + columns + ` FROM feedbacks WHERE institution_code = ?`)

	switch filter.Spam {
	case models.SpamOnly:
		sb.WriteString(` AND spam = ?`)
		args = append(args, true)
	case models.HamOnly:
		sb.WriteString(` AND spam = ?`)
		args = append(args, false)
	}

	if s := strings.TrimSpace(filter.Sentiment); s != "" && !strings.EqualFold(s, models.AllSentiments) {
		sb.WriteString(` AND LOWER(sentiment) = LOWER(?)`)
		args = append(args, s)
	}

	switch filter.Length {
	case models.LengthShort:
		sb.WriteString(` AND LENGTH(text) <= ?`)
		args = append(args, models.ShortFeedbackMaxLen)
	case models.LengthLong:
		sb.WriteString(` AND LENGTH(text) > ?`)
		args = append(args, models.ShortFeedbackMaxLen)
	}

	if tags := strings.TrimSpace(filter.Tags); tags != "" && !strings.EqualFold(tags, "all") {
		sb.WriteString(` AND tags_folded LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(FoldTags(tags))+"%")
	}

	if filter.Order == models.OrderAsc {
		sb.WriteString(` ORDER BY id ASC`)
	} else {
		sb.WriteString(` ORDER BY id DESC`)
	}

	return sb.String(), args
}

// FoldTags is the case folding shared by stored tags and tag searches. It is
// done in Go because SQLite's LOWER() leaves non-ASCII letters alone.
func FoldTags(s string) string {
	return strings.ToLower(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
