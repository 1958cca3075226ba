package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code_arena/internal/api"
	"code_arena/internal/app/service"
	"code_arena/internal/common/security"
	"code_arena/internal/domain/repository"
	"code_arena/internal/judge"
	"code_arena/internal/platform/config"
	"code_arena/internal/platform/database"
	"code_arena/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	// 4. Initialize Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	battleRepo := repository.NewPgBattleRepository(database.DB)

	// 6. Judge boundary. Without an API key the client simulates verdicts,
	// which keeps local development independent of the external judge.
	judgeClient := judge.NewClientWithConfig(config.AppConfig.JudgeAPIURL, config.AppConfig.JudgeAPIKey, judge.ClientConfig{
		CallTimeout:    time.Duration(config.AppConfig.JudgeCallTimeoutSec) * time.Second,
		MaxRetries:     config.AppConfig.JudgeMaxRetries,
		RetryBaseDelay: config.AppConfig.JudgeRetryBaseDelay,
	})
	if judgeClient.Simulated() {
		log.Println("WARN: no judge API key configured, running in simulation mode")
	}

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo)
	battleService := service.NewBattleService(
		battleRepo, queue.RDB,
		config.AppConfig.BattleTTL, config.AppConfig.DefaultProblemCount,
	)
	validator := service.NewSubmissionValidator(
		config.AppConfig.MinCodeLength,
		config.AppConfig.MaxCodeSizeBytes,
		time.Duration(config.AppConfig.ThrottleWindowSec)*time.Second,
	)
	orchCfg := service.OrchestratorConfig{
		MaxRetries:      config.AppConfig.DispatchMaxRetries,
		RetryBaseDelay:  config.AppConfig.DispatchRetryBaseDelay,
		PollInterval:    time.Duration(config.AppConfig.PollIntervalMs) * time.Millisecond,
		MaxPolls:        config.AppConfig.MaxPolls,
		StallWarnAfter:  time.Duration(config.AppConfig.StallWarnAfterSec) * time.Second,
		StallAlertAfter: time.Duration(config.AppConfig.StallAlertAfterSec) * time.Second,
	}
	submissionService := service.NewSubmissionService(
		battleService, battleRepo, queue.RDB, validator, judgeClient, orchCfg,
	)

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(authService, battleService, submissionService, queue.RDB)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
