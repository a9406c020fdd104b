package main

import (
	"cmp"
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/deanmartian/livets-stemme/internal/config"
	"github.com/deanmartian/livets-stemme/internal/httpapi"
	"github.com/deanmartian/livets-stemme/internal/logger"
	"github.com/deanmartian/livets-stemme/internal/payment"
	"github.com/deanmartian/livets-stemme/internal/postgres"
	"github.com/deanmartian/livets-stemme/internal/server"
	"github.com/deanmartian/livets-stemme/internal/story"
	"github.com/deanmartian/livets-stemme/internal/voice"
	"github.com/joho/godotenv"
)

const (
	_cfgFilePathEnv     = "LIVETS_CONFIG"
	_cfgFilePathDefault = "./configs/livets-stemme.yaml"
)

func main() {
	// .env.local overrides .env, godotenv never overwrites a variable that is already set
	envErrLocal, envErr := godotenv.Load(".env.local"), godotenv.Load(".env")

	cfg, err := config.Load(cmp.Or(os.Getenv(_cfgFilePathEnv), _cfgFilePathDefault))
	if err != nil {
		log.Fatalf("%s: can't load config", err)
	}

	zapLogger, loggerSync, err := logger.NewZapLogger(logger.ParseLogLevel(cfg.Server.LogLevel))
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	if envErrLocal != nil && envErr != nil {
		zapLogger.Warnf("can't detect .env.local or .env file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	services := httpapi.Services{
		Story: story.NewAssistant(cfg.OpenAI, cfg.Secrets.OpenAIAPIKey, zapLogger.With("service", "story")),
	}

	voiceClient := voice.NewClient(cfg.ElevenLabs, cfg.Secrets.ElevenLabsAPIKey, zapLogger.With("service", "voice"))
	defer func() {
		if err := voiceClient.Close(); err != nil {
			zapLogger.Errorf("%s: can't close voice client", err)
		}
	}()
	services.Voice = voiceClient

	var store payment.BillingStore
	dbCfg := postgres.NewConfigFromEnv().Setup()
	if dbCfg.Enabled() {
		db, err := postgres.NewDB(ctx, dbCfg)
		if err != nil {
			zapLogger.Fatalf("%s: can't connect to postgres", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				zapLogger.Errorf("%s: can't close postgres", err)
			}
		}()

		applied, err := postgres.Migrate(db)
		if err != nil {
			zapLogger.Fatalf("%s: can't migrate billing schema", err)
		}
		zapLogger.Infof("applied %d billing migrations", applied)

		repo := postgres.NewBillingRepository(db)
		store, services.Credits = repo, repo
	} else {
		zapLogger.Warnf("billing database not configured, webhook events are only logged")
	}

	services.Payments = payment.NewService(cfg.Stripe, payment.KeysFromSecrets(cfg.Secrets), store, zapLogger.With("service", "payment"))

	api := httpapi.New(cfg.Secrets, services, zapLogger.With("service", "http"))
	srv := server.NewHTTPServer(ctx, cfg.Server, api.Handler(cfg.Server), zapLogger)

	if err := srv.Run(ctx); err != nil {
		zapLogger.Errorf("%s: http server stopped", err)
	}
	zapLogger.Infof("livets stemme stopped")
}
