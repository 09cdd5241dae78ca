package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"livequiz-service/internal/app"
	"livequiz-service/internal/config"
	"livequiz-service/internal/domain"
	"livequiz-service/internal/game"
	"livequiz-service/internal/infra/memory"
	pgloader "livequiz-service/internal/infra/postgres"
	"livequiz-service/internal/infra/rabbit"
	redisinfra "livequiz-service/internal/infra/redis"
	transport "livequiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the live quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var results app.ResultStore = memory.NewResultStore()
	switch {
	case pool != nil && redisClient != nil:
		results = fanoutResults{pgloader.NewResultStore(pool), redisinfra.NewResultStore(redisClient, redisTTL)}
	case pool != nil:
		results = pgloader.NewResultStore(pool)
	case redisClient != nil:
		results = redisinfra.NewResultStore(redisClient, redisTTL)
	}

	var publisher app.EventPublisher
	if cfg.Rabbit.URL != "" {
		conn, err := amqp.Dial(cfg.Rabbit.URL)
		if err != nil {
			return err
		}
		defer conn.Close()
		pub, err := rabbit.NewPublisher(conn)
		if err != nil {
			return err
		}
		defer pub.Close()
		publisher = pub
	}

	registry := game.NewRegistry(gameConfig(cfg))
	service := app.NewSessionService(registry, quizRepo, results, publisher)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws/host", wsHandler.ServeHost)
	mux.HandleFunc("/ws/play", wsHandler.ServePlay)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting livequiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func gameConfig(cfg config.Config) game.Config {
	gc := game.DefaultConfig()
	gc.IdleTimeout = config.TTLDuration(cfg.Game.IdleTimeout, gc.IdleTimeout)
	gc.GracePeriod = config.TTLDuration(cfg.Game.GracePeriod, gc.GracePeriod)
	if cfg.Game.Scoring.MaxPoints > 0 {
		gc.Scoring.MaxPoints = cfg.Game.Scoring.MaxPoints
	}
	if cfg.Game.Scoring.MinFraction > 0 {
		gc.Scoring.MinFraction = cfg.Game.Scoring.MinFraction
	}
	if cfg.Game.Scoring.PartialPoints > 0 {
		gc.Scoring.PartialPoints = cfg.Game.Scoring.PartialPoints
	}
	if cfg.Game.Scoring.ParticipationPoints > 0 {
		gc.Scoring.ParticipationPoints = cfg.Game.Scoring.ParticipationPoints
	}
	return gc
}

// fanoutResults writes the durable Postgres row first, then the Redis mirror.
type fanoutResults []app.ResultStore

func (f fanoutResults) SaveResult(ctx context.Context, result domain.GameResult) error {
	for _, store := range f {
		if err := store.SaveResult(ctx, result); err != nil {
			return err
		}
	}
	return nil
}

// sampleQuizzes provides demo content covering every question type; swap the
// loader for the Postgres-backed one in production.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"demo": {
			ID:    "demo",
			Title: "Demo quiz",
			Questions: []domain.Question{
				{
					Prompt:       "What is 2 + 2?",
					TimeLimitSec: 20,
					Type:         domain.QuestionABCD,
					Choices: []domain.Choice{
						{ID: "a", Text: "3"},
						{ID: "b", Text: "4", Correct: true},
						{ID: "c", Text: "5"},
					},
				},
				{
					Prompt:       "Capital of France?",
					TimeLimitSec: 20,
					Type:         domain.QuestionText,
					TextAnswers:  []domain.TextAnswer{{Answer: "paris", CaseSensitive: false}},
				},
				{
					Prompt:       "Boiling point of water in °C at sea level?",
					TimeLimitSec: 20,
					Type:         domain.QuestionRange,
					Range:        &domain.RangeAnswer{Min: 0, Max: 200, MinCorrect: 99, MaxCorrect: 101},
				},
				{
					Prompt:       "Which topping belongs on pizza?",
					TimeLimitSec: 15,
					Type:         domain.QuestionVoting,
					Choices: []domain.Choice{
						{ID: "a", Text: "Pineapple"},
						{ID: "b", Text: "Mushrooms"},
					},
				},
				{
					Prompt:       "Order the planets by distance from the sun",
					TimeLimitSec: 30,
					Type:         domain.QuestionOrder,
					Choices: []domain.Choice{
						{ID: "mercury", Text: "Mercury"},
						{ID: "venus", Text: "Venus"},
						{ID: "earth", Text: "Earth"},
					},
					OrderKey: []string{"mercury", "venus", "earth"},
				},
			},
		},
	}
}
