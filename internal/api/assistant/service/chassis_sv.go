package assistantService

import (
	"ShowroomGolang/internal/api/assistant"
	"ShowroomGolang/internal/entity"
	contextPkg "ShowroomGolang/pkg/context"
	"ShowroomGolang/pkg/nlu"
	"context"
	"fmt"
	"mime/multipart"

	"github.com/sirupsen/logrus"
)

// ProcessChassisImage runs chassis extraction as a dialog turn of its own.
// The three outcomes stay distinct: a number was read, no number was visible,
// or the extraction itself failed.
func (s *assistantService) ProcessChassisImage(ctx context.Context, userID string, image *multipart.FileHeader) (assistant.CommandResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if err := s.utils.ValidateImageFile(image); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"error":      err.Error(),
		}).Error("[AssistantService][ProcessChassisImage] image validation failed")
		return assistant.CommandResponse{}, assistant.ErrInvalidImageFile
	}

	token, err := s.repo.Sessions.BeginProcessing(userID)
	if err != nil {
		return assistant.CommandResponse{}, err
	}
	defer s.repo.Sessions.EndProcessing(userID, token)

	src, err := image.Open()
	if err != nil {
		return assistant.CommandResponse{}, assistant.ErrInvalidImageFile
	}
	defer src.Close()

	base64Image, err := s.utils.ConvertFileToBase64(src)
	if err != nil {
		return assistant.CommandResponse{}, assistant.ErrInvalidImageFile
	}

	extractCtx, cancel := context.WithTimeout(ctx, s.cfg.ExtractTimeout)
	defer cancel()

	chassis, found, err := s.gemini.ExtractChassisNumber(extractCtx, base64Image)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"user_id":    userID,
			"error":      err.Error(),
		}).Error("[AssistantService][ProcessChassisImage] extraction failed")
		return s.finishTurn(ctx, userID, "", token, nlu.ActionExtractChassis, 0, dispatchOutcome{reply: msgApology}, false), nil
	}

	if !found {
		return s.finishTurn(ctx, userID, "", token, nlu.ActionExtractChassis, 0, dispatchOutcome{reply: msgChassisNotVisible}, true), nil
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    userID,
		"chassis":    chassis,
	}).Info("[AssistantService][ProcessChassisImage] chassis number extracted")

	outcome := dispatchOutcome{
		reply: fmt.Sprintf(msgChassisExtracted, chassis),
		affordance: &entity.Affordance{
			Kind:    entity.AffordanceEdit,
			Payload: map[string]interface{}{"chassisNumber": chassis},
		},
		event:        "chassis_extracted",
		eventPayload: map[string]interface{}{"chassisNumber": chassis},
	}

	return s.finishTurn(ctx, userID, "", token, nlu.ActionExtractChassis, 0, outcome, true), nil
}
