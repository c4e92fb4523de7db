package models

// Attachment describes a file uploaded with a feedback. The content itself
// lives in the blob store under StoredPath.
type Attachment struct {
	ID          int64  `db:"id" json:"id"`
	FeedbackID  int64  `db:"feedback_id" json:"feedback_id"`
	Filename    string `db:"filename" json:"filename"`
	StoredPath  string `db:"stored_path" json:"-"`
	ContentType string `db:"content_type" json:"content_type"`
	Size        int64  `db:"size" json:"size"`
}
