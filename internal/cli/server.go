package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-event-service/internal/app"
	"quiz-event-service/internal/certificate"
	"quiz-event-service/internal/config"
	"quiz-event-service/internal/domain"
	"quiz-event-service/internal/infra/memory"
	pgstore "quiz-event-service/internal/infra/postgres"
	redisstore "quiz-event-service/internal/infra/redis"
	"quiz-event-service/internal/mailer"
	transport "quiz-event-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	dsn := cfg.PostgresDSN()
	if dsn != "" {
		if err := migrateDSN(ctx, dsn); err != nil {
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

	var pool *pgxpool.Pool
	if dsn != "" {
		pool, err = pgxpool.Connect(ctx, dsn)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	service, err := buildService(cfg, pool, redisClient)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           transport.NewRouter(service),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Score submissions block on rendering and the SMTP round trip.
		WriteTimeout: 90 * time.Second,
	}

	go func() {
		log.Printf("starting quiz event service on :%s", finalPort)
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

// buildService picks storage adapters from what is configured: Postgres for
// participants and questions when available, Redis in front of the question
// bank when available, and in-memory fallbacks otherwise.
func buildService(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client) (*app.QuizService, error) {
	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)

	var participants app.ParticipantRepository = memory.NewParticipantStore()
	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	var questions app.QuestionRepository
	if pool != nil {
		participants = pgstore.NewParticipantStore(pool)
		store := pgstore.NewQuestionStore(pool)
		loader = store
		questions = store
	} else {
		log.Printf("postgres not configured, using in-memory participants and sample questions")
		questions = memory.NewQuestionRepository(loader, questionTTL)
	}
	if redisClient != nil {
		questions = redisstore.NewQuestionRepository(redisClient, loader, questionTTL)
	}

	renderer := certificate.NewRenderer(certificate.Options{
		Dir:          cfg.Certificate.Dir,
		Template:     cfg.Certificate.Template,
		Font:         cfg.Certificate.Font,
		FallbackFont: cfg.Certificate.FallbackFont,
		FontSize:     cfg.Certificate.FontSize,
	})
	sender, err := mailer.NewSMTPSender(mailer.SMTPOptions{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Address,
		Password: cfg.Mail.Password,
		Timeout:  config.TTLDuration(cfg.Mail.Timeout, 30*time.Second),
	})
	if err != nil {
		return nil, err
	}
	notifier := mailer.NewNotifier(renderer, sender, cfg.Mail.Address)

	service := app.NewQuizService(participants, questions, notifier, app.NewScoreFeed())
	return service.WithQuestionLimit(cfg.Questions.Limit), nil
}

// sampleQuestions seeds the in-memory bank when no database is configured.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: 1, Category: "math", Question: "What is 2 + 2?", OptionA: "3", OptionB: "4", OptionC: "5", OptionD: "22", CorrectOption: "B"},
		{ID: 2, Category: "science", Question: "Which planet is known as the Red Planet?", OptionA: "Venus", OptionB: "Jupiter", OptionC: "Mars", OptionD: "Mercury", CorrectOption: "C"},
		{ID: 3, Category: "geography", Question: "What is the capital of Japan?", OptionA: "Tokyo", OptionB: "Kyoto", OptionC: "Osaka", OptionD: "Nagoya", CorrectOption: "A"},
		{ID: 4, Category: "science", Question: "What gas do plants absorb from the air?", OptionA: "Oxygen", OptionB: "Nitrogen", OptionC: "Helium", OptionD: "Carbon dioxide", CorrectOption: "D"},
	}
}
