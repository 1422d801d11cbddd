// Package telemetry installs the process-wide slog logger and, when an OTLP
// endpoint is configured, the OpenTelemetry trace and log providers.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"crustline/internal/config"
	"crustline/internal/logsink"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Shutdown flushes and stops everything Setup started.
type Shutdown func(context.Context) error

// Setup builds the default logger from cfg and makes it the slog default.
func Setup(ctx context.Context, cfg *config.Config) (Shutdown, error) {
	var (
		handlers  []slog.Handler
		shutdowns []func(context.Context) error
	)
	handlers = append(handlers, ConsoleHandler(os.Stdout, cfg.Telemetry.LogFormat))

	if cfg.Telemetry.OTLPEndpoint != "" {
		h, stop, err := setupOTLP(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, h)
		shutdowns = append(shutdowns, stop)
	}

	sinkCfg := logsink.Config{
		AccountName: cfg.Storage.AzureAccountName,
		AccountKey:  cfg.Storage.AzureAccountKey,
		Container:   cfg.Telemetry.LogContainer,
	}
	if cfg.Telemetry.LogContainer != "" && sinkCfg.Enabled() {
		sink, err := logsink.New(ctx, sinkCfg)
		if err != nil {
			return nil, errors.Join(err, shutdownAll(ctx, shutdowns))
		}
		handlers = append(handlers, sink)
		shutdowns = append(shutdowns, func(context.Context) error { return sink.Close() })
	}

	slog.SetDefault(slog.New(slog.NewMultiHandler(handlers...)))
	return func(ctx context.Context) error { return shutdownAll(ctx, shutdowns) }, nil
}

// ConsoleHandler writes text or JSON records to w.
func ConsoleHandler(w io.Writer, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func setupOTLP(ctx context.Context, serviceName string) (slog.Handler, func(context.Context) error, error) {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	traceExporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logExporter, err := otlploghttp.New(ctx)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("create log exporter: %w", err), tp.Shutdown(ctx))
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(lp)

	slog.InfoContext(ctx, "exporting telemetry over otlp", "service", serviceName)
	stop := func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), lp.Shutdown(ctx))
	}
	return otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp)), stop, nil
}

func shutdownAll(ctx context.Context, fns []func(context.Context) error) error {
	var errs []error
	// reverse order of setup
	for i := len(fns) - 1; i >= 0; i-- {
		errs = append(errs, fns[i](ctx))
	}
	return errors.Join(errs...)
}
