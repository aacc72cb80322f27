package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/studybuddy/studybuddy-api/internal/config"
	"github.com/studybuddy/studybuddy-api/internal/domain/srs"
	"github.com/studybuddy/studybuddy-api/internal/events"
	"github.com/studybuddy/studybuddy-api/internal/generation"
	"github.com/studybuddy/studybuddy-api/internal/platform/gemini"
	"github.com/studybuddy/studybuddy-api/internal/platform/migrations"
	"github.com/studybuddy/studybuddy-api/internal/platform/postgres"
	"github.com/studybuddy/studybuddy-api/internal/platform/sqlite"
	"github.com/studybuddy/studybuddy-api/internal/service"
	"github.com/studybuddy/studybuddy-api/internal/service/auth"
	"github.com/studybuddy/studybuddy-api/internal/service/card_review"
	"github.com/studybuddy/studybuddy-api/internal/store"
	"github.com/studybuddy/studybuddy-api/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	cardStore     store.FlashcardStore
	activityStore store.ActivityStore

	jwtService        auth.JWTService
	generator         generation.Generator
	flashcardService  service.FlashcardService
	cardReviewService card_review.CardReviewService
	activityService   service.ActivityService

	// Event system: emitted events become tasks on the queue, which the
	// worker pool drains.
	eventEmitter *events.InMemoryEventEmitter
	taskQueue    *task.TaskQueue
	workerPool   *task.WorkerPool
}

// newApplication creates a new application instance with all dependencies initialized.
// The database connection must already be established; the application takes
// ownership of it.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	if err := app.setupStores(); err != nil {
		return nil, err
	}

	if cfg.LLM.Enabled() {
		app.generator, err = gemini.NewGeminiGenerator(ctx, logger, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
		}
		logger.Info("LLM generator initialized", "model", cfg.LLM.ModelName)
	} else {
		logger.Info("no LLM API key configured, card generation disabled")
	}

	app.setupEvents()

	scheduler := srs.NewDefaultScheduler()

	flashcardOpts := []service.FlashcardServiceOption{service.WithEventEmitter(app.eventEmitter)}
	if app.generator != nil {
		flashcardOpts = append(flashcardOpts, service.WithGenerator(app.generator))
	}
	app.flashcardService, err = service.NewFlashcardService(db, app.cardStore, logger, flashcardOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create flashcard service: %w", err)
	}

	app.cardReviewService, err = card_review.NewCardReviewService(
		db,
		app.cardStore,
		scheduler,
		logger,
		card_review.WithEmitter(app.eventEmitter),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create card review service: %w", err)
	}

	app.activityService, err = service.NewActivityService(app.activityStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity service: %w", err)
	}

	app.workerPool.Start()
	logger.Info("Application initialized successfully")
	return app, nil
}

// setupStores picks the store implementations matching the database driver.
func (app *application) setupStores() error {
	switch app.config.Database.Driver {
	case migrations.DriverPostgres:
		app.cardStore = postgres.NewPostgresFlashcardStore(app.db, app.logger)
		app.activityStore = postgres.NewPostgresActivityStore(app.db, app.logger)
	case migrations.DriverSQLite:
		app.cardStore = sqlite.NewFlashcardStore(app.db, app.logger)
		app.activityStore = sqlite.NewActivityStore(app.db, app.logger)
	default:
		return fmt.Errorf("%w: %q", migrations.ErrUnsupportedDriver, app.config.Database.Driver)
	}
	return nil
}

// setupEvents builds the asynchronous event pipeline and registers the
// handlers. The pool is started by newApplication once everything else is
// in place.
func (app *application) setupEvents() {
	app.taskQueue = task.NewTaskQueue(app.config.Events.QueueSize, app.logger)
	app.workerPool = task.NewWorkerPool(app.taskQueue, task.WorkerPoolConfig{
		WorkerCount: app.config.Events.WorkerCount,
	}, app.logger)
	app.workerPool.SetErrorHandler(func(t task.Task, err error) {
		app.logger.Warn("event task failed",
			"task_id", t.ID().String(),
			"task_type", t.Type(),
			"error", err)
	})

	app.eventEmitter = events.NewInMemoryEventEmitter(app.logger, task.NewQueueDispatcher(app.taskQueue))
	app.eventEmitter.RegisterHandler(service.NewActivityRecorder(app.activityStore, app.logger))
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup drains the event pipeline and closes the database. Events still
// queued are handled before the database goes away.
func (app *application) cleanup(ctx context.Context) {
	if app.taskQueue != nil {
		app.taskQueue.Close()
	}
	if app.workerPool != nil {
		if err := app.workerPool.Stop(ctx); err != nil {
			app.logger.Error("worker pool did not drain before shutdown", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
