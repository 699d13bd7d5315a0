package assistantService

import (
	"ShowroomGolang/internal/api/assistant"
	assistantRepository "ShowroomGolang/internal/api/assistant/repository"
	"ShowroomGolang/internal/entity"
	geminiPkg "ShowroomGolang/pkg/gemini"
	"ShowroomGolang/pkg/nlu"
	s3Pkg "ShowroomGolang/pkg/s3"
	"ShowroomGolang/pkg/speech"
	utilsPkg "ShowroomGolang/pkg/utils"
	"context"
	"mime/multipart"
	"time"

	"github.com/sirupsen/logrus"
)

// InventorySource is the assistant's read-only view of the vehicle
// collection. The assistant never mutates inventory; mutations happen through
// the inventory endpoints after the user confirms an affordance.
type InventorySource interface {
	Snapshot(ctx context.Context, userID string) ([]entity.Vehicle, error)
	RefreshSnapshot(ctx context.Context, userID string) ([]entity.Vehicle, error)
	DropSnapshot(ctx context.Context, userID string) error
}

// IEventPublisher pushes dialog events to the user's connected clients.
type IEventPublisher interface {
	PublishTurn(userID string, turn entity.ConversationTurn)
	PublishSpeaking(userID string, speaking bool)
	PublishAction(userID string, action string, payload map[string]interface{})
}

type IAssistantService interface {
	OpenSession(ctx context.Context, user entity.UserLoginData) (assistant.SessionResponse, error)
	CloseSession(ctx context.Context, userID string) error

	ProcessTextCommand(ctx context.Context, userID, text string) (assistant.CommandResponse, error)
	ProcessVoiceCommand(ctx context.Context, userID string, audio *multipart.FileHeader) (assistant.CommandResponse, error)
	ProcessChassisImage(ctx context.Context, userID string, image *multipart.FileHeader) (assistant.CommandResponse, error)

	StartListening(ctx context.Context, userID string) error
	StopListening(ctx context.Context, userID string) error

	Transcript(ctx context.Context, userID string) (assistant.TranscriptResponse, error)
	Stats(ctx context.Context, userID string) (assistant.StatsResponse, error)
	State(ctx context.Context, userID string) (assistant.StateResponse, error)
}

type Config struct {
	ResolveTimeout      time.Duration
	TranscribeTimeout   time.Duration
	SpeakTimeout        time.Duration
	ExtractTimeout      time.Duration
	MaxAudioSize        int64
	AllowedAudioFormats []string
}

func DefaultConfig() Config {
	return Config{
		ResolveTimeout:      15 * time.Second,
		TranscribeTimeout:   30 * time.Second,
		SpeakTimeout:        30 * time.Second,
		ExtractTimeout:      20 * time.Second,
		MaxAudioSize:        10 * 1024 * 1024,
		AllowedAudioFormats: []string{".mp3", ".wav", ".webm", ".ogg", ".m4a"},
	}
}

// dispatchOutcome is what one intent handler produces: the spoken reply, an
// optional affordance for the turn, and an optional host action event.
type dispatchOutcome struct {
	reply        string
	affordance   *entity.Affordance
	event        string
	eventPayload map[string]interface{}
}

type dispatchFunc func(ctx context.Context, userID string, cmd *nlu.RecognizedCommand) (dispatchOutcome, error)

type assistantService struct {
	log         *logrus.Logger
	repo        *assistantRepository.Repository
	inventory   InventorySource
	resolver    nlu.IResolver
	transcriber speech.ITranscriber
	synthesizer speech.ISynthesizer
	gemini      geminiPkg.IGemini
	s3          s3Pkg.ItfS3
	utils       utilsPkg.IUtils
	events      IEventPublisher
	cfg         Config

	dispatch map[nlu.Action]dispatchFunc
}

func NewAssistantService(
	log *logrus.Logger,
	repo *assistantRepository.Repository,
	inventory InventorySource,
	resolver nlu.IResolver,
	transcriber speech.ITranscriber,
	synthesizer speech.ISynthesizer,
	gemini geminiPkg.IGemini,
	s3 s3Pkg.ItfS3,
	utils utilsPkg.IUtils,
	events IEventPublisher,
	cfg Config,
) IAssistantService {
	s := &assistantService{
		log:         log,
		repo:        repo,
		inventory:   inventory,
		resolver:    resolver,
		transcriber: transcriber,
		synthesizer: synthesizer,
		gemini:      gemini,
		s3:          s3,
		utils:       utils,
		events:      events,
		cfg:         cfg,
	}

	// The action set is closed: every tag the resolver can emit has a row
	// here, and anything else falls through to the unknown handler.
	s.dispatch = map[nlu.Action]dispatchFunc{
		nlu.ActionAddVehicle:     s.dispatchAddVehicle,
		nlu.ActionSearchVehicle:  s.dispatchSearchVehicle,
		nlu.ActionSellVehicle:    s.dispatchSellVehicle,
		nlu.ActionDeleteVehicle:  s.dispatchDeleteVehicle,
		nlu.ActionExtractChassis: s.dispatchExtractChassis,
		nlu.ActionGetStats:       s.dispatchGetStats,
	}

	return s
}
