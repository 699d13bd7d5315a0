package config

import (
	"ShowroomGolang/database/postgres"
	assistantHandler "ShowroomGolang/internal/api/assistant/handler"
	assistantRepository "ShowroomGolang/internal/api/assistant/repository"
	assistantService "ShowroomGolang/internal/api/assistant/service"
	inventoryHandler "ShowroomGolang/internal/api/inventory/handler"
	inventoryRepository "ShowroomGolang/internal/api/inventory/repository"
	inventoryService "ShowroomGolang/internal/api/inventory/service"
	"ShowroomGolang/internal/middleware"
	"ShowroomGolang/pkg/gemini"
	"ShowroomGolang/pkg/nlu"
	"ShowroomGolang/pkg/redis"
	"ShowroomGolang/pkg/s3"
	"ShowroomGolang/pkg/speech"
	"ShowroomGolang/pkg/utils"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine       *fiber.App
	db           *sqlx.DB
	log          *logrus.Logger
	middleware   middleware.Middleware
	validator    *validator.Validate
	utils        utils.IUtils
	handlers     []handler
	redisServer  redis.IRedis
	s3Client     s3.ItfS3
	geminiClient gemini.IGemini
	resolver     nlu.IResolver
	transcriber  speech.ITranscriber
	ttsEngine    speech.Engine
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithGeminiClient() ServerOption {
	return func(s *Server) error {
		client, err := gemini.NewGeminiClient()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to create Gemini client: %v", err)
			}
			return fmt.Errorf("failed to create Gemini client: %w", err)
		}
		s.geminiClient = client
		return nil
	}
}

func WithResolver(resolver nlu.IResolver) ServerOption {
	return func(s *Server) error {
		s.resolver = resolver
		return nil
	}
}

func WithTranscriber(transcriber speech.ITranscriber) ServerOption {
	return func(s *Server) error {
		s.transcriber = transcriber
		return nil
	}
}

func WithTTSEngine(engine speech.Engine) ServerOption {
	return func(s *Server) error {
		s.ttsEngine = engine
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

// s3AudioStore persists synthesized speech to the object store and hands back
// a presigned URL the browser can play directly.
type s3AudioStore struct {
	s3 s3.ItfS3
}

func (a *s3AudioStore) Save(fileName string, data []byte) (string, error) {
	fileURL, err := a.s3.UploadFileFromBytes(fileName, data)
	if err != nil {
		return "", err
	}
	return a.s3.PresignUrl(fileURL)
}

func (s *Server) RegisterHandler() {
	// Inventory Domain
	inventoryRepo := inventoryRepository.New(s.db, s.log)
	inventoryServices := inventoryService.NewInventoryService(s.log, inventoryRepo, s.redisServer, s.utils)
	inventoryHandlers := inventoryHandler.New(s.log, s.validator, s.middleware, inventoryServices)

	// Assistant Domain
	hub := assistantHandler.NewHub(s.log)
	synthesizer := speech.NewSynthesizer(s.ttsEngine, &s3AudioStore{s3: s.s3Client})
	assistantRepo := assistantRepository.New(s.log)
	assistantServices := assistantService.NewAssistantService(
		s.log,
		assistantRepo,
		inventoryServices,
		s.resolver,
		s.transcriber,
		synthesizer,
		s.geminiClient,
		s.s3Client,
		s.utils,
		hub,
		assistantService.DefaultConfig(),
	)
	assistantHandlers := assistantHandler.New(s.log, s.validator, s.middleware, assistantServices, hub)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, inventoryHandlers, assistantHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
