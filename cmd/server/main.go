package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/nathannam/frame-probe/internal/ingest"
	"github.com/nathannam/frame-probe/internal/telemetry"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
}

var healthCheckCount metric.Int64Counter

// healthCheckHandler handles health check requests
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tracer := telemetry.GetTracer()
	ctx, span := tracer.Start(ctx, "health_check")
	defer span.End()

	logger := telemetry.GetLogger()
	logger.DebugContext(ctx, "Health check requested",
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent())

	healthCheckCount.Add(ctx, 1)

	w.Header().Set("Content-Type", "application/json")

	health := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   telemetry.ServiceName(),
	}

	span.SetAttributes(
		attribute.String("health.status", health.Status),
		attribute.String("health.service", health.Service),
	)

	if err := json.NewEncoder(w).Encode(health); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to encode health response")
		logger.ErrorContext(ctx, "Failed to encode health response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// corsMiddleware lets a page on another origin post probe telemetry.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Session-ID, X-Correlation-ID")

		if r.Method == http.MethodOptions {
			telemetry.GetLogger().DebugContext(r.Context(), "CORS preflight request",
				"path", r.URL.Path,
				"origin", r.Header.Get("Origin"))
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// indexHandler serves the page shell that hosts the probe.
func indexHandler(webDir string) http.HandlerFunc {
	index := filepath.Join(webDir, "index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		ctx, span := telemetry.GetTracer().Start(r.Context(), "serve_index")
		defer span.End()
		span.SetAttributes(attribute.String("file.path", index))

		telemetry.GetLogger().DebugContext(ctx, "Serving index page", "remote_addr", r.RemoteAddr)
		http.ServeFile(w, r, index)
	}
}

func defaultAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}

func main() {
	addr := flag.String("addr", defaultAddr(), "listen address")
	webDir := flag.String("web", "web", "directory holding index.html, probe.wasm and static/")
	rps := flag.Float64("ingest-rps", ingest.DefaultConfig().RatePerSecond, "telemetry requests per second")
	burst := flag.Int("ingest-burst", ingest.DefaultConfig().Burst, "telemetry request burst")
	flag.Parse()

	cleanup := telemetry.SetupInstrumentation("frame-probe-server")
	defer cleanup()

	logger := telemetry.GetLogger()
	meter := telemetry.GetMeter()

	var err error
	healthCheckCount, err = meter.Int64Counter("health_checks_total",
		metric.WithDescription("Total number of health check requests"))
	if err != nil {
		log.Fatal("Failed to create health check counter:", err)
	}

	cfg := ingest.DefaultConfig()
	cfg.RatePerSecond = *rps
	cfg.Burst = *burst
	ingestServer, err := ingest.New(meter, telemetry.GetTracer(), logger, cfg)
	if err != nil {
		log.Fatal("Failed to create ingestion server:", err)
	}

	api := http.NewServeMux()
	ingestServer.Register(api)

	mux := http.NewServeMux()
	mux.Handle("/", otelhttp.NewHandler(indexHandler(*webDir), "GET /"))
	mux.Handle("/health", otelhttp.NewHandler(http.HandlerFunc(healthCheckHandler), "GET /health"))
	mux.Handle("/api/telemetry/", otelhttp.NewHandler(corsMiddleware(api), "POST /api/telemetry"))

	fileServer := http.FileServer(http.Dir(*webDir))
	mux.Handle("/web/", otelhttp.NewHandler(corsMiddleware(http.StripPrefix("/web/", fileServer)), "GET /web/*"))
	mux.Handle("/static/", otelhttp.NewHandler(corsMiddleware(http.StripPrefix("/static/",
		http.FileServer(http.Dir(filepath.Join(*webDir, "static"))))), "GET /static/*"))

	logger.Info("Frame probe server starting", "addr", *addr, "web", *webDir)
	fmt.Printf("Frame probe server listening on %s\n", *addr)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}
