package assistant

import "ShowroomGolang/pkg/response"

var (
	ErrEmptyCommand        = response.NewError(400, "command text is empty")
	ErrCommandInFlight     = response.NewError(409, "another command is still processing")
	ErrSessionNotFound     = response.NewError(404, "assistant session not found")
	ErrInvalidAudioFile    = response.NewError(400, "invalid audio file")
	ErrAudioFileTooLarge   = response.NewError(400, "audio file too large")
	ErrUnsupportedFormat   = response.NewError(400, "unsupported audio format")
	ErrInvalidImageFile    = response.NewError(400, "invalid image file")
	ErrTranscriptionFailed = response.NewError(500, "failed to transcribe audio")
	ErrNotListening        = response.NewError(400, "speech capture is not active")
)
