package entity

import "time"

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

type AffordanceKind string

const (
	AffordanceAdd            AffordanceKind = "add"
	AffordanceEdit           AffordanceKind = "edit"
	AffordanceSell           AffordanceKind = "sell"
	AffordanceDelete         AffordanceKind = "delete"
	AffordanceExtractChassis AffordanceKind = "extract-chassis"
)

// Affordance is an actionable hint attached to an assistant turn. The UI
// renders it as a button; selecting it invokes the matching host action with
// the payload.
type Affordance struct {
	Kind    AffordanceKind         `json:"kind"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ConversationTurn is immutable once appended to the transcript. IDs are
// ULIDs, so they are unique and monotonic within a session.
type ConversationTurn struct {
	ID         string      `json:"id"`
	Speaker    Speaker     `json:"speaker"`
	Text       string      `json:"text"`
	SpokenText string      `json:"spoken_text,omitempty"`
	AudioURL   string      `json:"audio_url,omitempty"`
	Affordance *Affordance `json:"affordance,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

type AssistantSession struct {
	UserID       string    `json:"user_id"`
	Listening    bool      `json:"listening"`
	Processing   bool      `json:"processing"`
	OpenedAt     time.Time `json:"opened_at"`
	LastActivity time.Time `json:"last_activity"`
}
