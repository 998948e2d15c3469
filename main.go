package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"assessment-backend/api"
	"assessment-backend/config"
	"assessment-backend/encryption"
	"assessment-backend/scoring"
	"assessment-backend/service"
)

func main() {
	cfg, _, err := config.Parse(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	model, err := config.LoadModel(cfg.Scoring.ModelFile)
	if err != nil {
		log.Fatalf("Failed to load scoring model: %v", err)
	}

	scheme, err := encryption.NewScheme(cfg.Scoring.Scheme, cfg.Scoring.KeySize)
	if err != nil {
		log.Fatalf("Failed to set up encryption scheme: %v", err)
	}

	engine := scoring.NewEngine(model, scheme)
	assessmentService := service.NewAssessmentService(engine, service.Options{
		Workers:         cfg.Scoring.Workers,
		QueueSize:       cfg.Scoring.QueueSize,
		ProcessingDelay: cfg.Scoring.ProcessingDelay.D(),
	})
	if cfg.Scoring.InitOnStart {
		if err := assessmentService.Initialize(); err != nil {
			log.Fatalf("Failed to initialize scoring engine: %v", err)
		}
	}
	assessmentService.Start()

	server := api.NewServer(assessmentService, api.Options{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout.D(),
	})

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	serverChan := make(chan error, 1)
	go func() {
		serverChan <- server.Start()
	}()

	select {
	case err := <-serverChan:
		assessmentService.Stop()
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.D())
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Error during HTTP shutdown: %v", err)
		}
		assessmentService.Stop()
		log.Println("Server shutdown completed")
	}
}
