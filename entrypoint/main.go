package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"text2phenotype.com/sdoh/api"
	"text2phenotype.com/sdoh/logger"
	"text2phenotype.com/sdoh/rmq"
	"text2phenotype.com/sdoh/s3client"
	"text2phenotype.com/sdoh/screenings"
	"text2phenotype.com/sdoh/submission"
)

type Config struct {
	RestAPIPort   string `envconfig:"SDOH_REST_API_PORT" default:"3000"`
	ArchiveActive bool   `envconfig:"SDOH_ARCHIVE_ACTIVE" default:"false"`
	EventsActive  bool   `envconfig:"SDOH_EVENTS_ACTIVE" default:"false"`
}

const shutdownTimeout = 10 * time.Second

func main() {
	logger.SetupLogging()
	mainLogger := logger.NewLogger("Main")
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		mainLogger.Warn().Err(err).Msg("Could not read .env file")
	}
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		mainLogger.Fatal().Caller().Err(err).Msg("Failed to read environment")
	}

	screeningsClient, err := screenings.NewClient()
	if err != nil {
		mainLogger.Fatal().Err(err).Msg("Could not create Redis client")
	}
	defer screeningsClient.Close()

	var archive *s3client.Client
	if config.ArchiveActive {
		if archive, err = s3client.New(); err != nil {
			mainLogger.Fatal().Err(err).Msg("Could not create S3 client")
		}
		defer archive.Close()
	}
	var events *rmq.Client
	if config.EventsActive {
		if events, err = rmq.NewClient(); err != nil {
			mainLogger.Fatal().Err(err).Msg("Could not create RMQ client")
		}
		defer events.Close()
		go func() {
			if rmqErr, ok := <-events.ChanErrors; ok && rmqErr != nil {
				mainLogger.Error().Err(rmqErr).Msg("RMQ channel closed, submission events are no longer published")
			}
		}()
	}

	server := api.NewServer(screeningsClient, submission.New(screeningsClient, archive, events))
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.RestAPIPort),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			mainLogger.Err(err).Msg("Shutdown did not finish cleanly")
		}
	}()

	mainLogger.Info().
		Bool("archive", config.ArchiveActive).
		Bool("events", config.EventsActive).
		Msgf("REST API on %s", httpServer.Addr)
	if err = httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		mainLogger.Err(err).Msg("REST API stopped with error")
	}
	mainLogger.Info().Msg("Stopped")
}
