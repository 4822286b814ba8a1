// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package telemetry provides utilities for setting up and configuring
// application observability, including logging, tracing, and metrics.
// This file handles the setup of structured JSON logging that integrates
// with OpenTelemetry traces.
package telemetry

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// spanContextLogHandler is a custom slog.Handler that wraps another handler.
// Its purpose is to intercept each log record and automatically inject
// OpenTelemetry trace and span IDs if they exist in the context. This allows
// for seamless correlation between a request's logs and its trace.
type spanContextLogHandler struct {
	slog.Handler
}

// handlerWithSpanContext is a constructor function that creates a new
// spanContextLogHandler, wrapping the provided base handler.
func handlerWithSpanContext(handler slog.Handler) *spanContextLogHandler {
	return &spanContextLogHandler{Handler: handler}
}

// Handle is called for every log record. It checks the provided context for
// a valid OpenTelemetry SpanContext and, if found, attaches the trace ID,
// span ID, and sampled flag to the record before delegating to the wrapped
// handler.
func (t *spanContextLogHandler) Handle(ctx context.Context, record slog.Record) error {
	if s := trace.SpanContextFromContext(ctx); s.IsValid() {
		record.AddAttrs(
			slog.Any("traceId", s.TraceID()),
			slog.Any("spanId", s.SpanID()),
			slog.Bool("traceSampled", s.TraceFlags().IsSampled()),
		)
	}
	return t.Handler.Handle(ctx, record)
}

// SetupLogging initializes the logging system for the entire application.
// It configures both the standard `log` package and the structured `slog`
// package: a JSON-based logger that writes to both a file (`app.log`) and
// standard output, with automatic trace-context injection.
func SetupLogging() {
	// The file is created fresh on each start; log rotation is left to the
	// host.
	file, _ := os.Create("app.log")
	multiWriter := io.MultiWriter(os.Stdout, file)

	// Configure the standard Go `log` package for the few libraries that
	// still use it.
	log.SetOutput(multiWriter)
	log.SetPrefix("[INFO] ")
	log.SetFlags(log.Ldate | log.Ltime)

	// Structured logging: JSON handler wrapped with trace-context injection,
	// registered as the process-wide default.
	jsonHandler := slog.NewJSONHandler(multiWriter, nil)
	instrumentedHandler := handlerWithSpanContext(jsonHandler)
	slog.SetDefault(slog.New(instrumentedHandler))
	slog.SetLogLoggerLevel(slog.LevelInfo)
}
