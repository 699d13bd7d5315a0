package speech

import (
	"context"
	"sync"
)

// Engine is the raw text-to-speech backend.
type Engine interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioStore persists synthesized audio and returns a playable URL.
type AudioStore interface {
	Save(fileName string, data []byte) (string, error)
}

// ISynthesizer plays at most one utterance at a time. A later Speak always
// preempts an earlier one; there is no queue. Speaking is display-only state,
// never used for control flow.
type ISynthesizer interface {
	Speak(ctx context.Context, text string) (string, error)
	Speaking() bool
}

type synthesizer struct {
	engine Engine
	store  AudioStore

	mu         sync.Mutex
	cancelPrev context.CancelFunc
	generation uint64
	speaking   bool
}

func NewSynthesizer(engine Engine, store AudioStore) ISynthesizer {
	return &synthesizer{
		engine: engine,
		store:  store,
	}
}

func (s *synthesizer) Speak(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	if s.cancelPrev != nil {
		s.cancelPrev()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancelPrev = cancel
	s.generation++
	gen := s.generation
	s.speaking = true
	s.mu.Unlock()

	data, err := s.engine.Synthesize(ctx, text)

	s.mu.Lock()
	// A preempted call must not clear state the newer call now owns.
	if gen == s.generation {
		s.speaking = false
		s.cancelPrev = nil
		cancel()
	}
	s.mu.Unlock()

	if err != nil {
		return "", err
	}

	return s.store.Save("tts.mp3", data)
}

func (s *synthesizer) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}
