// Package assistantRepository holds the in-memory state of open assistant
// dialogs. Transcript turns and session flags live only while the dialog is
// open; nothing here touches the database (inventory owns persistence).
package assistantRepository

import (
	"github.com/sirupsen/logrus"
)

type Repository struct {
	Transcript *TranscriptStore
	Sessions   *SessionStore
}

func New(log *logrus.Logger) *Repository {
	return &Repository{
		Transcript: NewTranscriptStore(),
		Sessions:   NewSessionStore(log),
	}
}
