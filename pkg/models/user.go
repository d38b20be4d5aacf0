package models

// Learner represents a person practicing vocabulary, keyed by their Telegram user ID.
type Learner struct {
	ID        int64  `json:"id" db:"id"`
	ChatID    int64  `json:"chat_id" db:"chat_id"`
	Username  string `json:"username" db:"username"`
	Language  string `json:"language" db:"language"`
	CreatedAt string `json:"created_at" db:"created_at"`
}
