package assistantRepository

import (
	"ShowroomGolang/internal/entity"
	"sync"
)

// TranscriptStore is a strictly append-only, insertion-ordered log of
// conversation turns per user session. Turns are copied on the way in and
// out, so a turn can never be mutated after it was appended. Ordering is by
// insertion, not by timestamp, so clock skew can never reorder a dialog.
type TranscriptStore struct {
	mu    sync.RWMutex
	turns map[string][]entity.ConversationTurn
}

func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{
		turns: make(map[string][]entity.ConversationTurn),
	}
}

func (s *TranscriptStore) Append(userID string, turn entity.ConversationTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[userID] = append(s.turns[userID], copyTurn(turn))
}

func (s *TranscriptStore) List(userID string) []entity.ConversationTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.turns[userID]
	out := make([]entity.ConversationTurn, 0, len(stored))
	for _, turn := range stored {
		out = append(out, copyTurn(turn))
	}
	return out
}

func (s *TranscriptStore) Len(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns[userID])
}

func (s *TranscriptStore) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, userID)
}

func copyTurn(turn entity.ConversationTurn) entity.ConversationTurn {
	if turn.Affordance == nil {
		return turn
	}

	affordance := entity.Affordance{Kind: turn.Affordance.Kind}
	if turn.Affordance.Payload != nil {
		affordance.Payload = make(map[string]interface{}, len(turn.Affordance.Payload))
		for k, v := range turn.Affordance.Payload {
			affordance.Payload[k] = v
		}
	}
	turn.Affordance = &affordance
	return turn
}
