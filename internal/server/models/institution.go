// Package models defines server-side data models persisted in the database.
package models

// Institution is a tenant. Code is its public 8-character identifier; it is
// unique and never changes once issued.
type Institution struct {
	ID           int64  `db:"id" json:"id"`
	OfficialName string `db:"official_name" json:"official_name"`
	Code         string `db:"code" json:"code"`
}

// InstitutionStats is an Institution together with how much feedback it has.
type InstitutionStats struct {
	Institution
	FeedbackCount int64 `db:"feedback_count" json:"feedback_count"`
}
