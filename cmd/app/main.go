package main

import (
	"ShowroomGolang/internal/config"
	"ShowroomGolang/pkg/log"
	"ShowroomGolang/pkg/nlu"
	"ShowroomGolang/pkg/redis"
	"ShowroomGolang/pkg/speech"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Fatalf("Error loading .env file: %v", err)
	}

	fiberApp := config.NewFiber(logger)
	validator := config.NewValidator()
	redisServer := redis.New()
	resolver := nlu.NewResolver(nlu.ConfigFromEnv())
	transcriber := speech.NewWhisperTranscriber()
	ttsEngine := speech.NewElevenLabsEngine()

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithDatabase(),
		config.WithRedisServer(redisServer),
		config.WithMiddleware(),
		config.WithS3Client(),
		config.WithGeminiClient(),
		config.WithResolver(resolver),
		config.WithTranscriber(transcriber),
		config.WithTTSEngine(ttsEngine),
		config.WithUtils(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")
}
