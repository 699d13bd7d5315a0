package assistantService

import (
	"ShowroomGolang/internal/api/assistant"
	"ShowroomGolang/internal/entity"
	contextPkg "ShowroomGolang/pkg/context"
	"ShowroomGolang/pkg/nlu"
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

func (s *assistantService) OpenSession(ctx context.Context, user entity.UserLoginData) (assistant.SessionResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	session := s.repo.Sessions.Open(user.ID)

	// Warm the inventory snapshot so dispatch reads a fresh collection. A
	// failed refresh is logged, not fatal; reads fall back to the cache.
	if _, err := s.inventory.RefreshSnapshot(ctx, user.ID); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    user.ID,
			"error":      err.Error(),
		}).Warn("[AssistantService][OpenSession] failed to refresh inventory snapshot")
	}

	response := assistant.SessionResponse{Session: session}

	// Greet only a fresh dialog; reopening keeps the running transcript.
	if s.repo.Transcript.Len(user.ID) == 0 {
		greeting := s.newTurn(entity.SpeakerAssistant, msgGreeting, nil)
		s.repo.Transcript.Append(user.ID, greeting)
		s.events.PublishTurn(user.ID, greeting)
		response.Greeting = greeting
	}

	response.Turns = s.repo.Transcript.List(user.ID)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    user.ID,
	}).Info("[AssistantService][OpenSession] assistant session opened")

	return response, nil
}

func (s *assistantService) CloseSession(ctx context.Context, userID string) error {
	requestID := contextPkg.GetRequestID(ctx)

	if _, ok := s.repo.Sessions.Get(userID); !ok {
		return assistant.ErrSessionNotFound
	}

	s.repo.Sessions.Close(userID)
	s.repo.Transcript.Clear(userID)

	if err := s.inventory.DropSnapshot(ctx, userID); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"error":      err.Error(),
		}).Warn("[AssistantService][CloseSession] failed to drop inventory snapshot")
	}

	return nil
}

func (s *assistantService) StartListening(ctx context.Context, userID string) error {
	return s.repo.Sessions.SetListening(userID, true)
}

func (s *assistantService) StopListening(ctx context.Context, userID string) error {
	return s.repo.Sessions.SetListening(userID, false)
}

func (s *assistantService) Transcript(ctx context.Context, userID string) (assistant.TranscriptResponse, error) {
	if _, ok := s.repo.Sessions.Get(userID); !ok {
		return assistant.TranscriptResponse{}, assistant.ErrSessionNotFound
	}

	turns := s.repo.Transcript.List(userID)
	return assistant.TranscriptResponse{
		Turns: turns,
		Total: len(turns),
	}, nil
}

func (s *assistantService) Stats(ctx context.Context, userID string) (assistant.StatsResponse, error) {
	vehicles, err := s.inventory.Snapshot(ctx, userID)
	if err != nil {
		return assistant.StatsResponse{}, err
	}

	stats := assistant.StatsResponse{Total: len(vehicles)}
	for _, v := range vehicles {
		switch v.Status {
		case entity.StatusAvailable:
			stats.Available++
		case entity.StatusSold:
			stats.Sold++
		}
	}
	return stats, nil
}

// State reports display-only dialog flags. Speaking in particular is never
// used for control flow; turns complete whether or not audio is playing.
func (s *assistantService) State(ctx context.Context, userID string) (assistant.StateResponse, error) {
	session, ok := s.repo.Sessions.Get(userID)
	if !ok {
		return assistant.StateResponse{}, assistant.ErrSessionNotFound
	}

	return assistant.StateResponse{
		Listening:  session.Listening,
		Processing: session.Processing,
		Speaking:   s.synthesizer.Speaking(),
	}, nil
}

func (s *assistantService) ProcessTextCommand(ctx context.Context, userID, text string) (assistant.CommandResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return assistant.CommandResponse{}, assistant.ErrEmptyCommand
	}

	return s.processCommand(ctx, userID, text, "")
}

func (s *assistantService) ProcessVoiceCommand(ctx context.Context, userID string, audio *multipart.FileHeader) (assistant.CommandResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	session, ok := s.repo.Sessions.Get(userID)
	if !ok {
		return assistant.CommandResponse{}, assistant.ErrSessionNotFound
	}
	if !session.Listening {
		return assistant.CommandResponse{}, assistant.ErrNotListening
	}

	// The finalized utterance arriving ends the capture, whatever happens to
	// it afterwards.
	if err := s.repo.Sessions.SetListening(userID, false); err != nil {
		return assistant.CommandResponse{}, err
	}

	if err := s.utils.ValidateAudioFile(audio, s.cfg.AllowedAudioFormats, s.cfg.MaxAudioSize); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"error":      err.Error(),
		}).Error("[AssistantService][ProcessVoiceCommand] audio validation failed")
		switch {
		case strings.Contains(err.Error(), "size"):
			return assistant.CommandResponse{}, assistant.ErrAudioFileTooLarge
		case strings.Contains(err.Error(), "format"):
			return assistant.CommandResponse{}, assistant.ErrUnsupportedFormat
		default:
			return assistant.CommandResponse{}, assistant.ErrInvalidAudioFile
		}
	}

	fileURL, err := s.s3.UploadFile(audio)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"error":      err.Error(),
		}).Error("[AssistantService][ProcessVoiceCommand] failed to upload audio")
		return assistant.CommandResponse{}, err
	}

	presignedURL, err := s.s3.PresignUrl(fileURL)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"error":      err.Error(),
		}).Error("[AssistantService][ProcessVoiceCommand] failed to presign audio url")
		return assistant.CommandResponse{}, err
	}

	transcribeCtx, cancel := context.WithTimeout(ctx, s.cfg.TranscribeTimeout)
	defer cancel()

	transcript, err := s.transcriber.Transcribe(transcribeCtx, presignedURL)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"error":      err.Error(),
		}).Error("[AssistantService][ProcessVoiceCommand] transcription failed")
		return assistant.CommandResponse{}, assistant.ErrTranscriptionFailed
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return assistant.CommandResponse{}, assistant.ErrEmptyCommand
	}

	return s.processCommand(ctx, userID, transcript, transcript)
}

// processCommand runs one full dialog turn: append the user's utterance,
// resolve it to an action, dispatch, append the assistant's reply, and speak
// it. At most one command per session is in flight at a time; a second one
// arriving mid-turn is rejected, never queued.
func (s *assistantService) processCommand(ctx context.Context, userID, text, transcript string) (assistant.CommandResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	token, err := s.repo.Sessions.BeginProcessing(userID)
	if err != nil {
		return assistant.CommandResponse{}, err
	}
	defer s.repo.Sessions.EndProcessing(userID, token)

	userTurn := s.newTurn(entity.SpeakerUser, text, nil)
	s.repo.Transcript.Append(userID, userTurn)
	s.events.PublishTurn(userID, userTurn)

	resolveCtx, cancel := context.WithTimeout(ctx, s.cfg.ResolveTimeout)
	defer cancel()

	cmd, err := s.resolver.Resolve(resolveCtx, text)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"error":      err.Error(),
		}).Error("[AssistantService][ProcessCommand] intent resolution failed")
		return s.finishTurn(ctx, userID, transcript, token, nlu.ActionUnknown, 0, dispatchOutcome{reply: msgApology}, false), nil
	}

	handler, ok := s.dispatch[cmd.Action]
	if !ok {
		handler = s.dispatchUnknown
	}

	outcome, err := handler(ctx, userID, cmd)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"action":     string(cmd.Action),
			"error":      err.Error(),
		}).Error("[AssistantService][ProcessCommand] dispatch failed")
		return s.finishTurn(ctx, userID, transcript, token, cmd.Action, cmd.Confidence, dispatchOutcome{reply: msgApology}, false), nil
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    userID,
		"action":     string(cmd.Action),
		"confidence": cmd.Confidence,
	}).Info("[AssistantService][ProcessCommand] command dispatched")

	return s.finishTurn(ctx, userID, transcript, token, cmd.Action, cmd.Confidence, outcome, true), nil
}

// finishTurn records the assistant's side of the turn, emits events, and
// speaks the reply. Processing ends before speech starts, so the session is
// free for the next command while audio is still playing; the token keeps
// that early release scoped to this command. If the session was closed while
// the command ran, the turn is returned but nothing is appended, published,
// or spoken — a dead dialog must not be resurrected.
func (s *assistantService) finishTurn(ctx context.Context, userID, transcript string, token uint64, action nlu.Action, confidence float64, outcome dispatchOutcome, success bool) assistant.CommandResponse {
	turn := s.newTurn(entity.SpeakerAssistant, outcome.reply, outcome.affordance)
	turn.SpokenText = outcome.reply

	response := assistant.CommandResponse{
		Transcript: transcript,
		Turn:       turn,
		Action:     action,
		Confidence: confidence,
		Success:    success,
	}

	if _, ok := s.repo.Sessions.Get(userID); !ok {
		return response
	}

	s.repo.Transcript.Append(userID, turn)
	s.events.PublishTurn(userID, turn)

	if outcome.event != "" {
		s.events.PublishAction(userID, outcome.event, outcome.eventPayload)
	}

	s.repo.Sessions.EndProcessing(userID, token)

	response.AudioURL = s.speak(ctx, userID, outcome.reply)
	return response
}

// speak plays the reply best-effort: a synthesis failure degrades the turn to
// text-only, it never fails the command.
func (s *assistantService) speak(ctx context.Context, userID, text string) string {
	speakCtx, cancel := context.WithTimeout(ctx, s.cfg.SpeakTimeout)
	defer cancel()

	s.events.PublishSpeaking(userID, true)
	audioURL, err := s.synthesizer.Speak(speakCtx, text)
	s.events.PublishSpeaking(userID, false)

	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"user_id":    userID,
			"error":      err.Error(),
		}).Warn("[AssistantService][Speak] speech synthesis failed")
		return ""
	}
	return audioURL
}

func (s *assistantService) newTurn(speaker entity.Speaker, text string, affordance *entity.Affordance) entity.ConversationTurn {
	id, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		// ULID generation only fails on entropy exhaustion; fall back to a
		// timestamp so the turn still gets a usable id.
		id = time.Now().UTC().Format("20060102150405.000000000")
	}

	return entity.ConversationTurn{
		ID:         id,
		Speaker:    speaker,
		Text:       text,
		Affordance: affordance,
		CreatedAt:  time.Now(),
	}
}
