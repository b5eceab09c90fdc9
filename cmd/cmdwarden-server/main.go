package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/cmdwarden/cmdwarden/internal/approval"
	"github.com/cmdwarden/cmdwarden/internal/config"
	"github.com/cmdwarden/cmdwarden/internal/decisionlog"
	decisionlogrepo "github.com/cmdwarden/cmdwarden/internal/decisionlog/repositoryimpl"
	"github.com/cmdwarden/cmdwarden/internal/event"
	"github.com/cmdwarden/cmdwarden/internal/eventbus"
	"github.com/cmdwarden/cmdwarden/internal/policy"
	"github.com/cmdwarden/cmdwarden/internal/pushnotification"
	pushsubrepo "github.com/cmdwarden/cmdwarden/internal/pushsubscription/repositoryimpl"
	"github.com/cmdwarden/cmdwarden/internal/rules"
	rulesrepo "github.com/cmdwarden/cmdwarden/internal/rules/repositoryimpl"
	"github.com/cmdwarden/cmdwarden/pkg/clog"
	"github.com/cmdwarden/cmdwarden/pkg/storage"

	server "github.com/cmdwarden/cmdwarden/internal"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	defaultMode, err := policy.ParseMode(env.PolicyEnv.DefaultMode)
	if err != nil {
		slog.Error("invalid default mode", "error", err)
		os.Exit(1)
	}

	// Setup storage
	var store storage.Storage
	var localStore *storage.Local
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3(context.Background(), env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		localStore, err = storage.NewLocal(env.StorageEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local storage", "error", err)
			os.Exit(1)
		}
		store = localStore
	}

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories and services
	ruleStore := rules.NewStore(rulesrepo.NewJSONRepository(store))
	recorder := decisionlog.NewRecorder(decisionlogrepo.NewYAMLRepository(store))
	pushSubRepo := pushsubrepo.NewYAMLRepository(store)

	// Setup approval flow
	responder := approval.NewResponder()
	coordinator := approval.NewCoordinator(bus, env.PolicyEnv.ApprovalTimeout)
	coordinator.RegisterWaiter(responder.Wait)

	// Setup servers
	evaluator := policy.NewEvaluator(ruleStore)
	policyServer := policy.NewServer(evaluator, recorder, coordinator, defaultMode)
	ruleServer := rules.NewServer(ruleStore, bus)
	approvalServer := approval.NewServer(coordinator, responder, bus)
	eventServer := event.NewServer(bus)

	vapidEnv := config.VAPIDEnvFromEnv(env)
	pushSender := pushnotification.NewSender(vapidEnv, pushSubRepo)
	pushNotificationServer := pushnotification.NewServer(vapidEnv, pushSubRepo, pushSender)
	pushDispatcher := pushnotification.NewDispatcher(bus, pushSender)

	srv := server.NewServer(
		env,
		policyServer,
		ruleServer,
		approvalServer,
		eventServer,
		pushNotificationServer,
	)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	wg := conc.NewWaitGroup()
	wg.Go(func() {
		pushDispatcher.Start(ctx)
	})
	if localStore != nil {
		watcher := rules.NewWatcher(filepath.Join(localStore.Root(), rulesrepo.FileName), bus)
		wg.Go(func() {
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Error("rule file watcher stopped", "error", err)
			}
		})
	}
	wg.Go(func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	})

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give active connections time to finish after stream contexts are cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	wg.Wait()
}
