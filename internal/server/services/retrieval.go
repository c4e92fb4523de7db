package services

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/dmitrijs2005/feedbackhub/internal/common"
	"github.com/dmitrijs2005/feedbackhub/internal/logging"
	"github.com/dmitrijs2005/feedbackhub/internal/server/blobstore"
	"github.com/dmitrijs2005/feedbackhub/internal/server/models"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/feedbackhub/internal/server/validation"
)

// RetrievalService serves the admin panel: filtered listings, the secret
// reveal and attachments. Every read is scoped by institution code.
type RetrievalService struct {
	db          *sqlx.DB
	repomanager repomanager.RepositoryManager
	admins      *AdminService
	blobs       blobstore.Store
	logger      logging.Logger
}

func NewRetrievalService(db *sqlx.DB, m repomanager.RepositoryManager, admins *AdminService, blobs blobstore.Store, logger logging.Logger) *RetrievalService {
	return &RetrievalService{
		db:          db,
		repomanager: m,
		admins:      admins,
		blobs:       blobs,
		logger:      logger.With("module", "retrieval"),
	}
}

// ParseFilter reads spam, sentiment, length, tags and order from query
// parameters. Missing or unrecognised values mean "no restriction"; the
// order defaults to newest first.
func ParseFilter(params url.Values) models.FeedbackFilter {
	f := models.DefaultFeedbackFilter()

	switch models.SpamFilter(strings.ToLower(strings.TrimSpace(params.Get("spam")))) {
	case models.SpamOnly:
		f.Spam = models.SpamOnly
	case models.HamOnly:
		f.Spam = models.HamOnly
	}

	if s := strings.TrimSpace(params.Get("sentiment")); s != "" {
		f.Sentiment = s
	}

	switch models.LengthFilter(strings.ToLower(strings.TrimSpace(params.Get("length")))) {
	case models.LengthShort:
		f.Length = models.LengthShort
	case models.LengthLong:
		f.Length = models.LengthLong
	}

	f.Tags = strings.TrimSpace(params.Get("tags"))

	if models.SortOrder(strings.ToLower(strings.TrimSpace(params.Get("order")))) == models.OrderAsc {
		f.Order = models.OrderAsc
	}

	return f
}

// List returns the feedback of one institution matching filter. A missing
// or malformed code yields an empty list, not an error.
func (s *RetrievalService) List(ctx context.Context, code string, filter models.FeedbackFilter) ([]*models.Feedback, error) {
	code = strings.TrimSpace(code)
	if !validation.IsInstitutionCode(code) {
		return []*models.Feedback{}, nil
	}
	return s.repomanager.Feedbacks(s.db).Query(ctx, code, filter)
}

// RevealSecret checks the passphrase first and only then looks the feedback
// up, so a wrong passphrase says nothing about whether (id, code) exists.
func (s *RetrievalService) RevealSecret(ctx context.Context, id int64, code, passphrase string) (*models.SecretView, error) {
	ok, err := s.admins.CheckSecretPassphrase(ctx, passphrase)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn(ctx, "secret reveal denied", "feedback_id", id)
		return nil, common.ErrorUnauthorized
	}

	code = strings.TrimSpace(code)
	if !validation.IsInstitutionCode(code) {
		return nil, common.ErrorNotFound
	}

	fb, err := s.repomanager.Feedbacks(s.db).GetScoped(ctx, id, code)
	if err != nil {
		return nil, err
	}
	if !fb.HasSecret() {
		return nil, common.ErrorNotFound
	}

	view := &models.SecretView{SecretText: *fb.SecretText}
	if fb.SecretSentiment != nil {
		view.SecretSentiment = *fb.SecretSentiment
	}
	if fb.SecretSpam != nil {
		view.SecretSpam = *fb.SecretSpam
	}
	return view, nil
}

// Attachments lists the files of a feedback row of the given institution.
func (s *RetrievalService) Attachments(ctx context.Context, feedbackID int64, code string) ([]*models.Attachment, error) {
	code = strings.TrimSpace(code)
	if !validation.IsInstitutionCode(code) {
		return []*models.Attachment{}, nil
	}
	return s.repomanager.Attachments(s.db).ListByFeedback(ctx, feedbackID, code)
}

// OpenAttachment returns the metadata and content of one attachment. The
// caller closes the reader.
func (s *RetrievalService) OpenAttachment(ctx context.Context, attachmentID int64, code string) (*models.Attachment, io.ReadCloser, error) {
	code = strings.TrimSpace(code)
	if !validation.IsInstitutionCode(code) {
		return nil, nil, common.ErrorNotFound
	}

	att, err := s.repomanager.Attachments(s.db).GetScoped(ctx, attachmentID, code)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.blobs.Open(ctx, att.StoredPath)
	if errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "attachment blob missing", "attachment_id", att.ID, "key", att.StoredPath)
	}
	if err != nil {
		return nil, nil, err
	}
	return att, rc, nil
}
