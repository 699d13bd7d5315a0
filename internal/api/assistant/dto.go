package assistant

import (
	"ShowroomGolang/internal/entity"
	"ShowroomGolang/pkg/nlu"
)

type TextCommandRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

// CommandResponse carries the assistant turn produced for one command.
// AudioURL is attached to the response only; stored turns stay immutable.
type CommandResponse struct {
	Transcript string                  `json:"transcript,omitempty"`
	Turn       entity.ConversationTurn `json:"turn"`
	AudioURL   string                  `json:"audio_url,omitempty"`
	Action     nlu.Action              `json:"action"`
	Confidence float64                 `json:"confidence,omitempty"`
	Success    bool                    `json:"success"`
}

type SessionResponse struct {
	Session  entity.AssistantSession   `json:"session"`
	Greeting entity.ConversationTurn   `json:"greeting"`
	Turns    []entity.ConversationTurn `json:"turns"`
}

type TranscriptResponse struct {
	Turns []entity.ConversationTurn `json:"turns"`
	Total int                       `json:"total"`
}

// StateResponse mirrors the dialog indicator flags the UI renders.
type StateResponse struct {
	Listening  bool `json:"listening"`
	Processing bool `json:"processing"`
	Speaking   bool `json:"speaking"`
}

type StatsResponse struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Sold      int `json:"sold"`
}
