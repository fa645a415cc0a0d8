package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"guardops/internal/audit"
	"guardops/internal/auth"
	"guardops/internal/eventing"
	eventingrepo "guardops/internal/eventing/infrastructure/postgres"
	"guardops/internal/monitoring/adapters/sitedata"
	"guardops/internal/monitoring/application"
	"guardops/internal/monitoring/application/events"
	monitoringrepo "guardops/internal/monitoring/infrastructure/postgres"
	monitoringhttp "guardops/internal/monitoring/interfaces/http"
	"guardops/internal/observability/metrics"
	"guardops/internal/roster"
	sitesrepo "guardops/internal/sites/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	siteRepo := sitesrepo.NewSiteRepository(db)
	siteChecker := auth.NewSiteChecker(siteRepo)
	shiftFeed := roster.NewShiftFeed(db)
	configRepo := monitoringrepo.NewConfigRepository(db)
	outcomeRepo := monitoringrepo.NewOutcomeRepository(db)
	contactReader, err := sitedata.NewContactReader(siteRepo)
	if err != nil {
		logger.Fatalf("contact reader error: %v", err)
	}

	engineCfg, err := application.LoadConfig()
	if err != nil {
		logger.Fatalf("monitoring config error: %v", err)
	}
	zone, err := engineCfg.Location()
	if err != nil {
		logger.Fatalf("monitoring timezone error: %v", err)
	}

	baseBus := eventing.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(events.OutcomeRecorded{})
	registry.Register(events.AgendaMaterialized{})

	outboxStore := eventingrepo.NewOutboxStore(db)
	processedStore := eventingrepo.NewProcessedStore(db)
	dlqStore := eventingrepo.NewDLQStore(db)
	dispatcher := eventing.NewDispatcher(baseBus, outboxStore, registry, dlqStore)
	publisher := eventing.NewPublisher(outboxStore, dispatcher, cfg.TenantID, baseBus)

	eventing.Subscribe(baseBus, eventing.EventTypeOf[events.OutcomeRecorded](), "monitoring.log", func(ctx context.Context, event any) error {
		evt, ok := event.(events.OutcomeRecorded)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		metrics.IncEventPublished(eventing.EventTypeOf[events.OutcomeRecorded]())
		logger.Printf("outcome recorded: site=%s hour=%s status=%s by=%s",
			evt.SiteID, evt.ScheduledHour.Format(time.RFC3339), evt.Status, evt.RecordedBy)
		return nil
	}, processedStore)
	eventing.Subscribe(baseBus, eventing.EventTypeOf[events.AgendaMaterialized](), "monitoring.log", func(ctx context.Context, event any) error {
		evt, ok := event.(events.AgendaMaterialized)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		metrics.IncEventPublished(eventing.EventTypeOf[events.AgendaMaterialized]())
		logger.Printf("agenda materialized: site=%s date=%s created=%d",
			evt.SiteID, evt.Date.Format("2006-01-02"), evt.Created)
		return nil
	}, processedStore)

	agendaService, err := application.NewAgendaService(configRepo, shiftFeed, contactReader, outcomeRepo,
		application.WithZone(zone),
		application.WithUrgentThreshold(engineCfg.UrgentThreshold()),
		application.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("agenda service error: %v", err)
	}
	recorder, err := application.NewRecorder(outcomeRepo, configRepo, shiftFeed, contactReader,
		application.WithRecorderZone(zone),
		application.WithPublisher(publisher),
		application.WithRecorderLogger(logger),
	)
	if err != nil {
		logger.Fatalf("recorder error: %v", err)
	}

	scheduler := application.NewScheduler(recorder, shiftFeed, cfg.TenantID, engineCfg.Schedule.Sites, engineCfg.Schedule.DailyAt, logger)
	go scheduler.Start(context.Background())

	monitoringHandler, err := monitoringhttp.NewHandler(agendaService, recorder, siteChecker, auditRepo, zone)
	if err != nil {
		logger.Fatalf("monitoring handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/monitoring/agenda", monitoringHandler)
	mux.Handle("/api/v1/monitoring/agenda/materialize", monitoringHandler)
	mux.Handle("/api/v1/monitoring/kpis", monitoringHandler)
	mux.Handle("/api/v1/monitoring/outcomes", monitoringHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	TenantID    string
	JWTSecret   string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		TenantID:    getenvDefault("TENANT_ID", "tenant-demo"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
