package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dmitrijs2005/feedbackhub/internal/common"
	"github.com/dmitrijs2005/feedbackhub/internal/dbx"
	"github.com/dmitrijs2005/feedbackhub/internal/logging"
	"github.com/dmitrijs2005/feedbackhub/internal/server/blobstore"
	"github.com/dmitrijs2005/feedbackhub/internal/server/classify"
	"github.com/dmitrijs2005/feedbackhub/internal/server/models"
	"github.com/dmitrijs2005/feedbackhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/feedbackhub/internal/server/validation"
)

// MaxAttachments is how many files one submission may carry.
const MaxAttachments = 5

// Upload is one file of a submission. Open is called at most once, after
// the feedback row exists.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Submission is a feedback form as received. String fields are trimmed
// before validation; lengths count characters.
type Submission struct {
	InstitutionCode string   `json:"institution_code" validate:"required,institution_code"`
	Subject         string   `json:"subject" validate:"min=3,max=255"`
	Text            string   `json:"text" validate:"min=3,max=5000"`
	SecretText      string   `json:"secret_text" validate:"max=5000"`
	Tags            string   `json:"tags" validate:"max=255"`
	Files           []Upload `json:"files" validate:"max=5"`
}

// Receipt is what the submitter is shown after a successful submission.
type Receipt struct {
	FeedbackID  int64
	Lang        string
	Sentiment   string
	Spam        bool
	Score       float64
	Attachments []*models.Attachment
}

// IntakeService validates, classifies and stores feedback.
type IntakeService struct {
	db          *sqlx.DB
	repomanager repomanager.RepositoryManager
	classifier  classify.Classifier
	blobs       blobstore.Store
	logger      logging.Logger
}

func NewIntakeService(db *sqlx.DB, m repomanager.RepositoryManager, c classify.Classifier, blobs blobstore.Store, logger logging.Logger) *IntakeService {
	return &IntakeService{
		db:          db,
		repomanager: m,
		classifier:  c,
		blobs:       blobs,
		logger:      logger.With("module", "intake"),
	}
}

var errUnknownInstitution = map[string]string{"institution_code": "unknown institution code"}

// EnterCode resolves the code typed on the landing page. Malformed and
// unknown codes are rejected the same way.
func (s *IntakeService) EnterCode(ctx context.Context, code string) (*models.Institution, error) {
	code = strings.TrimSpace(code)
	if !validation.IsInstitutionCode(code) {
		return nil, reject("invalid institution code", errUnknownInstitution)
	}
	inst, err := s.repomanager.Institutions(s.db).GetByCode(ctx, code)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, reject("invalid institution code", errUnknownInstitution)
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// Submit runs one submission through validation, classification and
// storage. A RejectedError means nothing was written.
//
// The feedback row is stored before any attachment. If an attachment cannot
// be stored the feedback row stays, blobs already written are removed, no
// attachment metadata is written and an error is returned.
func (s *IntakeService) Submit(ctx context.Context, sub Submission) (*Receipt, error) {
	sub = normalize(sub)

	if err := validation.Validate.Struct(sub); err != nil {
		return nil, rejectInvalid(err)
	}

	if _, err := s.repomanager.Institutions(s.db).GetByCode(ctx, sub.InstitutionCode); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, reject("invalid institution code", errUnknownInstitution)
		}
		return nil, err
	}

	fb := s.classifyFeedback(ctx, sub)

	fb, err := s.repomanager.Feedbacks(s.db).Create(ctx, fb)
	if err != nil {
		return nil, fmt.Errorf("store feedback: %w", err)
	}

	receipt := &Receipt{
		FeedbackID: fb.ID,
		Lang:       fb.Lang,
		Sentiment:  fb.Sentiment,
		Spam:       fb.Spam,
		Score:      fb.SpamScore,
	}

	if len(sub.Files) > 0 {
		atts, err := s.storeAttachments(ctx, fb.ID, sub.Files)
		if err != nil {
			s.logger.Error(ctx, "attachments not stored", "feedback_id", fb.ID, "error", err)
			return nil, err
		}
		receipt.Attachments = atts
	}

	s.logger.Info(ctx, "feedback accepted",
		"feedback_id", fb.ID, "institution", fb.InstitutionCode,
		"lang", fb.Lang, "sentiment", fb.Sentiment, "spam", fb.Spam,
		"attachments", len(receipt.Attachments))

	return receipt, nil
}

// normalize trims every string field and drops file parts without a name,
// which browsers send for an empty file input.
func normalize(sub Submission) Submission {
	sub.InstitutionCode = strings.TrimSpace(sub.InstitutionCode)
	sub.Subject = strings.TrimSpace(sub.Subject)
	sub.Text = strings.TrimSpace(sub.Text)
	sub.SecretText = strings.TrimSpace(sub.SecretText)
	sub.Tags = strings.TrimSpace(sub.Tags)

	files := make([]Upload, 0, len(sub.Files))
	for _, f := range sub.Files {
		if strings.TrimSpace(f.Filename) == "" {
			continue
		}
		files = append(files, f)
	}
	sub.Files = files
	return sub
}

func (s *IntakeService) classifyFeedback(ctx context.Context, sub Submission) *models.Feedback {
	fb := &models.Feedback{
		InstitutionCode: sub.InstitutionCode,
		Subject:         sub.Subject,
		Text:            sub.Text,
		Tags:            sub.Tags,
	}

	fb.Lang = s.classifier.DetectLanguage(ctx, sub.Text)
	fb.Sentiment = s.classifier.AnalyzeSentiment(ctx, sub.Text)
	fb.Spam, fb.SpamScore = s.classifier.DetectSpam(ctx, sub.Text)

	if sub.SecretText != "" {
		secret := sub.SecretText
		sentiment := s.classifier.AnalyzeSentiment(ctx, secret)
		spam, score := s.classifier.DetectSpam(ctx, secret)

		fb.SecretText = &secret
		fb.SecretSentiment = &sentiment
		fb.SecretSpam = &spam
		fb.SecretSpamScore = &score
	}

	return fb
}

func (s *IntakeService) storeAttachments(ctx context.Context, feedbackID int64, files []Upload) ([]*models.Attachment, error) {
	atts := make([]*models.Attachment, 0, len(files))
	written := make([]string, 0, len(files))

	cleanup := func() {
		for _, key := range written {
			if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
				s.logger.Warn(ctx, "orphaned blob", "key", key, "error", err)
			}
		}
	}

	for _, f := range files {
		name := baseName(f.Filename)
		key := blobstore.AttachmentKey(feedbackID, uuid.NewString()+"_"+name)

		if err := s.putUpload(ctx, key, f); err != nil {
			cleanup()
			return nil, fmt.Errorf("store attachment %q: %w", name, err)
		}
		written = append(written, key)

		atts = append(atts, &models.Attachment{
			FeedbackID:  feedbackID,
			Filename:    name,
			StoredPath:  key,
			ContentType: f.ContentType,
			Size:        f.Size,
		})
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Attachments(tx).CreateBatch(ctx, atts)
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("store attachment metadata: %w", err)
	}

	return atts, nil
}

func (s *IntakeService) putUpload(ctx context.Context, key string, f Upload) error {
	if f.Open == nil {
		return errors.New("upload has no content")
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	return s.blobs.Put(ctx, key, rc, f.Size, f.ContentType)
}

// maxNameBytes keeps "<uuid>_<name>" under the 255 byte file name limit of
// common filesystems.
const maxNameBytes = 200

// baseName keeps only the last path element of a client supplied name,
// shortened to maxNameBytes on a rune boundary. A short extension survives.
func baseName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	switch name {
	case ".", "..", "/", "":
		return "file"
	}
	if len(name) <= maxNameBytes {
		return name
	}

	ext := path.Ext(name)
	if len(ext) > 16 {
		ext = ""
	}
	stem, budget := name[:len(name)-len(ext)], maxNameBytes-len(ext)
	n := 0
	for n < len(stem) {
		_, size := utf8.DecodeRuneInString(stem[n:])
		if n+size > budget {
			break
		}
		n += size
	}
	return stem[:n] + ext
}
