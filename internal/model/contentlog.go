package model

import "time"

// Content generation modes. Each generation request is logged with the mode
// that produced it so history can be filtered per mode.
const (
	ModeNewTweet = "new_tweet"
	ModeReply    = "reply"
	ModeThread   = "thread"
)

// ContentLog records one generative-text call: the prompt we sent, the text
// that came back, and the token spend reported by the provider.
type ContentLog struct {
	ID            string    `json:"id"            db:"id"`
	UserID        string    `json:"userId"        db:"user_id"`
	Prompt        string    `json:"prompt"        db:"prompt"`
	GeneratedText string    `json:"generatedText" db:"generated_text"`
	Mode          string    `json:"mode"          db:"mode"`
	TokensUsed    int       `json:"tokensUsed"    db:"tokens_used"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
}

// ValidContentMode reports whether s is a known generation mode.
func ValidContentMode(s string) bool {
	switch s {
	case ModeNewTweet, ModeReply, ModeThread:
		return true
	}
	return false
}
