package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicops/clinic/internal/config"
	"github.com/clinicops/clinic/internal/domain/appointment"
	"github.com/clinicops/clinic/internal/domain/audit"
	"github.com/clinicops/clinic/internal/domain/completion"
	"github.com/clinicops/clinic/internal/domain/identity"
	"github.com/clinicops/clinic/internal/domain/therapyplan"
	"github.com/clinicops/clinic/internal/platform/apperror"
	"github.com/clinicops/clinic/internal/platform/auth"
	"github.com/clinicops/clinic/internal/platform/blobstore"
	"github.com/clinicops/clinic/internal/platform/db"
	"github.com/clinicops/clinic/internal/platform/middleware"
	"github.com/clinicops/clinic/internal/platform/notification"
	"github.com/clinicops/clinic/internal/platform/redisclient"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic operations API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with sample clinic data",
		RunE: func(cmd *cobra.Command, args []string) error {
			practitioners, _ := cmd.Flags().GetInt("practitioners")
			patients, _ := cmd.Flags().GetInt("patients")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			return runSeed(ctx, pool, practitioners, patients)
		},
	}
	cmd.Flags().Int("practitioners", 10, "Number of practitioners to create")
	cmd.Flags().Int("patients", 100, "Number of patients to create")
	return cmd
}

var seedSpecialties = []string{
	"Physical Therapy",
	"Occupational Therapy",
	"Sports Rehabilitation",
	"Orthopedics",
	"Neurology",
	"Geriatrics",
	"Pediatrics",
}

const (
	seedPractitionerInsert = `
		INSERT INTO practitioners (id, full_name, specialty, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())`
	seedPatientInsert = `
		INSERT INTO patients (id, full_name, email, date_of_birth, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())`
	seedAssignmentInsert = `
		INSERT INTO patient_assignments (practitioner_id, patient_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	seedExerciseInsert = `
		INSERT INTO exercises (id, name, description, created_at)
		VALUES ($1, $2, $3, NOW())`
)

var seedExercises = []struct {
	name        string
	description string
}{
	{"Shoulder pendulum", "Lean forward and let the arm swing in small circles."},
	{"Wall squat", "Slide down a wall to a seated position and hold."},
	{"Heel raise", "Rise onto the toes, hold, and lower slowly."},
	{"Hamstring stretch", "Seated forward reach with a straight back."},
	{"Bridging", "Lift the hips from a supine position with knees bent."},
	{"Clamshell", "Side-lying hip abduction with bent knees."},
}

func runSeed(ctx context.Context, pool *pgxpool.Pool, practitionerCount, patientCount int) error {
	gofakeit.Seed(time.Now().UnixNano())

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	practitionerIDs := make([]uuid.UUID, 0, practitionerCount)
	for i := 0; i < practitionerCount; i++ {
		id := uuid.New()
		spec := seedSpecialties[gofakeit.Number(0, len(seedSpecialties)-1)]
		_, err := tx.Exec(ctx, seedPractitionerInsert, id, gofakeit.Name(), spec)
		if err != nil {
			return fmt.Errorf("seed practitioners: %w", err)
		}
		practitionerIDs = append(practitionerIDs, id)
	}

	for i := 0; i < patientCount; i++ {
		id := uuid.New()
		email := gofakeit.Email()
		dob := gofakeit.DateRange(
			time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC),
		)
		_, err := tx.Exec(ctx, seedPatientInsert, id, gofakeit.Name(), email, dob)
		if err != nil {
			return fmt.Errorf("seed patients: %w", err)
		}

		practitionerID := practitionerIDs[gofakeit.Number(0, len(practitionerIDs)-1)]
		_, err = tx.Exec(ctx, seedAssignmentInsert, practitionerID, id)
		if err != nil {
			return fmt.Errorf("seed assignments: %w", err)
		}
	}

	for _, ex := range seedExercises {
		_, err := tx.Exec(ctx, seedExerciseInsert, uuid.New(), ex.name, ex.description)
		if err != nil {
			return fmt.Errorf("seed exercises: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	fmt.Printf("Seeded %d practitioners, %d patients, %d catalog exercises.\n",
		practitionerCount, patientCount, len(seedExercises))
	return nil
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Schedule lock. Falls back to the DB exclusion constraint alone when
	// Redis is not configured.
	var locker redisclient.Locker = redisclient.NoopLocker{}
	if cfg.RedisURL != "" {
		rdb, err := redisclient.New(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		locker = redisclient.NewScheduleLocker(rdb, 5*time.Second)
		logger.Info().Msg("connected to redis")
	} else {
		logger.Warn().Msg("REDIS_URL not set, schedule locking disabled")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperror.EchoHTTPErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningSecret),
		}))
	}

	// API group
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Cross-cutting services
	auditRecorder := audit.NewRecorder(audit.NewRepoPG(pool), logger)
	notifier := notification.NewNotifier(notification.LogSender{Logger: logger}, logger)
	mediaStore := blobstore.NewMemoryStore()

	// Identity
	identitySvc := identity.NewService(identity.NewPatientRepo(pool), identity.NewPractitionerRepo(pool))
	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)

	// Appointments
	apptSvc := appointment.NewService(
		appointment.NewRepo(pool),
		identitySvc,
		locker,
		auditRecorder,
		appointment.Hours{Open: cfg.ClinicOpenHour, Close: cfg.ClinicCloseHour},
		logger,
	)
	appointment.NewHandler(apptSvc).RegisterRoutes(apiV1)

	// Therapy plans
	planRepo := therapyplan.NewRepo(pool)
	planSvc := therapyplan.NewService(planRepo, therapyplan.NewCatalogRepo(pool), db.RunnerFor(pool))
	therapyplan.NewHandler(planSvc).RegisterRoutes(apiV1)

	// Completion events
	completionSvc := completion.NewService(
		completion.NewRepo(pool),
		planRepo,
		mediaStore,
		notifier,
		auditRecorder,
		time.Duration(cfg.UndoWindowMinutes)*time.Minute,
		logger,
	)
	completion.NewHandler(completionSvc).RegisterRoutes(apiV1)

	// Media uploads
	blobstore.NewHandler(mediaStore).RegisterRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	notifier.Flush()
	logger.Info().Msg("server stopped")
	return nil
}
