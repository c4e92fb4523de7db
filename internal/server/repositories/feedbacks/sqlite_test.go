package feedbacks_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"

	"github.com/dmitrijs2005/feedbackhub/internal/dbx"
	"github.com/dmitrijs2005/feedbackhub/internal/server/models"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/attachments"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/feedbacks"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/institutions"
	"github.com/dmitrijs2005/feedbackhub/internal/server/storetest"
)

type SQLiteSuite struct {
	suite.Suite
	db   *sqlx.DB
	repo *feedbacks.SQLRepository
	ctx  context.Context
}

func TestSQLiteSuite(t *testing.T) {
	suite.Run(t, new(SQLiteSuite))
}

func (s *SQLiteSuite) SetupTest() {
	s.ctx = context.Background()
	s.db, _ = storetest.Open(s.T())
	s.repo = feedbacks.NewSQLRepository(s.db)

	inst := institutions.NewSQLRepository(s.db)
	for _, code := range []string{"aaaaaaaa", "bbbbbbbb"} {
		_, err := inst.Create(s.ctx, &models.Institution{OfficialName: code, Code: code})
		s.Require().NoError(err)
	}
}

func (s *SQLiteSuite) add(code, text, sentiment, tags string, spam bool) *models.Feedback {
	fb, err := s.repo.Create(s.ctx, &models.Feedback{
		InstitutionCode: code, Subject: "subject", Text: text,
		Lang: "en", Sentiment: sentiment, Spam: spam, Tags: tags,
	})
	s.Require().NoError(err)
	return fb
}

func ids(items []*models.Feedback) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func (s *SQLiteSuite) TestIDsIncrease() {
	a := s.add("aaaaaaaa", "first text", "Neutral", "", false)
	b := s.add("aaaaaaaa", "second text", "Neutral", "", false)
	s.Greater(b.ID, a.ID)
}

func (s *SQLiteSuite) TestTenantIsolation() {
	s.add("aaaaaaaa", "mine", "Positive", "", false)
	other := s.add("bbbbbbbb", "theirs", "Positive", "", false)

	got, err := s.repo.Query(s.ctx, "aaaaaaaa", models.DefaultFeedbackFilter())
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("mine", got[0].Text)

	_, err = s.repo.GetScoped(s.ctx, other.ID, "aaaaaaaa")
	s.Error(err)

	none, err := s.repo.Query(s.ctx, "cccccccc", models.DefaultFeedbackFilter())
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *SQLiteSuite) TestFiltersAreConjunctive() {
	long := strings.Repeat("x", 101)
	short := strings.Repeat("y", 100)

	f1 := s.add("aaaaaaaa", short, "Negative", "food,price", false)
	f2 := s.add("aaaaaaaa", long, "Negative", "food", false)
	f3 := s.add("aaaaaaaa", short, "Positive", "staff", false)
	f4 := s.add("aaaaaaaa", short, "negative", "FOOD", true)

	tests := []struct {
		name   string
		filter models.FeedbackFilter
		want   []int64
	}{
		{"everything newest first", models.DefaultFeedbackFilter(), []int64{f4.ID, f3.ID, f2.ID, f1.ID}},
		{"ascending", models.FeedbackFilter{Order: models.OrderAsc}, []int64{f1.ID, f2.ID, f3.ID, f4.ID}},
		{"spam", models.FeedbackFilter{Spam: models.SpamOnly}, []int64{f4.ID}},
		{"ham", models.FeedbackFilter{Spam: models.HamOnly, Order: models.OrderAsc}, []int64{f1.ID, f2.ID, f3.ID}},
		{"sentiment any case", models.FeedbackFilter{Sentiment: "NEGATIVE", Order: models.OrderAsc}, []int64{f1.ID, f2.ID, f4.ID}},
		{"short boundary at 100", models.FeedbackFilter{Length: models.LengthShort, Order: models.OrderAsc}, []int64{f1.ID, f3.ID, f4.ID}},
		{"long", models.FeedbackFilter{Length: models.LengthLong}, []int64{f2.ID}},
		{"tags substring", models.FeedbackFilter{Tags: "foo", Order: models.OrderAsc}, []int64{f1.ID, f2.ID, f4.ID}},
		{
			"ham and negative and short and food",
			models.FeedbackFilter{Spam: models.HamOnly, Sentiment: "negative", Length: models.LengthShort, Tags: "food"},
			[]int64{f1.ID},
		},
		{"no match", models.FeedbackFilter{Sentiment: "Very Positive"}, []int64{}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			got, err := s.repo.Query(s.ctx, "aaaaaaaa", tt.filter)
			s.Require().NoError(err)
			s.Equal(tt.want, ids(got))
		})
	}
}

func (s *SQLiteSuite) TestTagsFoldNonASCII() {
	campus := s.add("aaaaaaaa", "some text here", "Neutral", "Кампус,Їдальня", false)
	s.add("aaaaaaaa", "some text here", "Neutral", "campus", false)

	for _, q := range []string{"Кампус", "кампус", "КАМПУС", "їдальня", "ЇДАЛЬНЯ"} {
		s.Run(q, func() {
			got, err := s.repo.Query(s.ctx, "aaaaaaaa", models.FeedbackFilter{Tags: q})
			s.Require().NoError(err)
			s.Equal([]int64{campus.ID}, ids(got))
		})
	}
}

func (s *SQLiteSuite) TestTagsWildcardsAreLiteral() {
	s.add("aaaaaaaa", "some text here", "Neutral", "plain", false)
	pct := s.add("aaaaaaaa", "some text here", "Neutral", "50%", false)

	got, err := s.repo.Query(s.ctx, "aaaaaaaa", models.FeedbackFilter{Tags: "%"})
	s.Require().NoError(err)
	s.Equal([]int64{pct.ID}, ids(got))
}

func (s *SQLiteSuite) TestSecretRoundTrip() {
	secret, sentiment, spam, score := "between us", "Negative", false, 0.2
	fb, err := s.repo.Create(s.ctx, &models.Feedback{
		InstitutionCode: "aaaaaaaa", Subject: "s", Text: "t", Lang: "en", Sentiment: "Neutral",
		SecretText: &secret, SecretSentiment: &sentiment, SecretSpam: &spam, SecretSpamScore: &score,
	})
	s.Require().NoError(err)

	got, err := s.repo.GetScoped(s.ctx, fb.ID, "aaaaaaaa")
	s.Require().NoError(err)
	s.Require().True(got.HasSecret())
	s.Equal(secret, *got.SecretText)
	s.Equal(sentiment, *got.SecretSentiment)
	s.False(*got.SecretSpam)

	plain := s.add("aaaaaaaa", "no secret", "Neutral", "", false)
	got, err = s.repo.GetScoped(s.ctx, plain.ID, "aaaaaaaa")
	s.Require().NoError(err)
	s.False(got.HasSecret())
	s.Nil(got.SecretSpam)
}

func (s *SQLiteSuite) TestUnknownInstitutionRejectedByForeignKey() {
	_, err := s.repo.Create(s.ctx, &models.Feedback{
		InstitutionCode: "zzzzzzzz", Subject: "s", Text: "t", Lang: "en", Sentiment: "Neutral",
	})
	s.Error(err)
}

func (s *SQLiteSuite) TestAttachmentsCascadeAndScope() {
	fb := s.add("aaaaaaaa", "with files", "Neutral", "", false)

	err := dbx.WithTx(s.ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return attachments.NewSQLRepository(tx).CreateBatch(ctx, []*models.Attachment{
			{FeedbackID: fb.ID, Filename: "a.txt", StoredPath: "feedback/1/x_a.txt"},
			{FeedbackID: fb.ID, Filename: "b.txt", StoredPath: "feedback/1/y_b.txt"},
		})
	})
	s.Require().NoError(err)

	arepo := attachments.NewSQLRepository(s.db)
	list, err := arepo.ListByFeedback(s.ctx, fb.ID, "aaaaaaaa")
	s.Require().NoError(err)
	s.Len(list, 2)

	list, err = arepo.ListByFeedback(s.ctx, fb.ID, "bbbbbbbb")
	s.Require().NoError(err)
	s.Empty(list)

	_, err = s.db.Exec(`DELETE FROM feedbacks WHERE id = ?`, fb.ID)
	s.Require().NoError(err)

	var n int
	s.Require().NoError(s.db.Get(&n, `SELECT COUNT(*) FROM attachments`))
	s.Zero(n)
}
