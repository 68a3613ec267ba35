//go:build !js

package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/nathannam/frame-probe"

var (
	mu          sync.RWMutex
	serviceName = "frame-probe"
	logger      = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// SetupInstrumentation installs OTLP/HTTP exporters for traces, metrics and
// logs as the global providers and returns a cleanup func that flushes
// them. Exporter endpoints come from the standard OTEL_EXPORTER_OTLP_*
// environment variables. When an exporter cannot be built the process keeps
// running with the no-op provider for that signal.
func SetupInstrumentation(name string) func() {
	ctx := context.Background()

	mu.Lock()
	serviceName = name
	mu.Unlock()

	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", name)),
		resource.WithHost(),
		resource.WithProcessRuntimeName(),
	)
	if err != nil {
		logger.Warn("Failed to build telemetry resource, using default", "error", err)
		res = resource.Default()
	}

	var shutdowns []func(context.Context) error

	if exp, err := otlptracehttp.New(ctx); err != nil {
		logger.Warn("Trace exporter disabled", "error", err)
	} else {
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp), sdktrace.WithResource(res))
		otel.SetTracerProvider(tp)
		shutdowns = append(shutdowns, tp.Shutdown)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	if exp, err := otlpmetrichttp.New(ctx); err != nil {
		logger.Warn("Metric exporter disabled", "error", err)
	} else {
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(15*time.Second))),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)
	}

	if exp, err := otlploghttp.New(ctx); err != nil {
		logger.Warn("Log exporter disabled", "error", err)
	} else {
		lp := sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
			sdklog.WithResource(res),
		)
		global.SetLoggerProvider(lp)
		shutdowns = append(shutdowns, lp.Shutdown)

		mu.Lock()
		logger = otelslog.NewLogger(instrumentationName, otelslog.WithLoggerProvider(lp))
		mu.Unlock()
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var errs []error
		for _, shutdown := range shutdowns {
			errs = append(errs, shutdown(ctx))
		}
		if err := errors.Join(errs...); err != nil {
			slog.Error("Telemetry shutdown failed", "error", err)
		}
	}
}

// GetTracer returns the tracer for this module.
func GetTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// GetMeter returns the meter for this module.
func GetMeter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// GetLogger returns the OpenTelemetry-bridged logger once setup has run, or
// a stderr text logger before that.
func GetLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// ServiceName is the name passed to SetupInstrumentation.
func ServiceName() string {
	mu.RLock()
	defer mu.RUnlock()
	return serviceName
}
