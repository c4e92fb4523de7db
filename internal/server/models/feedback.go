package models

// Feedback is one classified submission. Secret* fields are set only when
// the submitter provided a secret message; they are nil otherwise.
type Feedback struct {
	ID              int64    `db:"id" json:"id"`
	InstitutionCode string   `db:"institution_code" json:"institution_code"`
	Subject         string   `db:"subject" json:"subject"`
	Text            string   `db:"text" json:"text"`
	Lang            string   `db:"lang" json:"lang"`
	Sentiment       string   `db:"sentiment" json:"sentiment"`
	Spam            bool     `db:"spam" json:"spam"`
	SpamScore       float64  `db:"spam_score" json:"spam_score"`
	Tags            string   `db:"tags" json:"tags"`
	SecretText      *string  `db:"secret_text" json:"-"`
	SecretSentiment *string  `db:"secret_sentiment" json:"-"`
	SecretSpam      *bool    `db:"secret_spam" json:"-"`
	SecretSpamScore *float64 `db:"secret_spam_score" json:"-"`
}

// HasSecret reports whether a secret message was attached.
func (f *Feedback) HasSecret() bool {
	return f.SecretText != nil
}

// SecretView is what an admin sees after passing the passphrase check.
type SecretView struct {
	SecretText      string `json:"secret_text"`
	SecretSentiment string `json:"secret_sentiment"`
	SecretSpam      bool   `json:"secret_spam"`
}

type SpamFilter string

const (
	SpamAny  SpamFilter = "all"
	SpamOnly SpamFilter = "spam"
	HamOnly  SpamFilter = "ham"
)

type LengthFilter string

const (
	LengthAny   LengthFilter = "all"
	LengthShort LengthFilter = "short"
	LengthLong  LengthFilter = "long"
)

// ShortFeedbackMaxLen is the inclusive character limit for "short" feedback.
const ShortFeedbackMaxLen = 100

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// AllSentiments matches any sentiment label.
const AllSentiments = "all"

// FeedbackFilter narrows a per-institution listing. All non-"all" criteria
// must hold at once.
type FeedbackFilter struct {
	Spam      SpamFilter
	Sentiment string
	Length    LengthFilter
	Tags      string
	Order     SortOrder
}

// DefaultFeedbackFilter matches everything, newest first.
func DefaultFeedbackFilter() FeedbackFilter {
	return FeedbackFilter{
		Spam:      SpamAny,
		Sentiment: AllSentiments,
		Length:    LengthAny,
		Tags:      "",
		Order:     OrderDesc,
	}
}
