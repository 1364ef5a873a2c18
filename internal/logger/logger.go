// Package logger provides structured logging functionality
// using the Uber zap logging library. It supports log levels and output customization.
package logger

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type responseData struct {
	status int
	size   int
}

type loggingResponseWriter struct {
	http.ResponseWriter
	responseData *responseData
}

// Log is a global SugaredLogger instance from the zap logging library.
// Log should be initialized via Init(); until then it discards everything.
var Log = zap.NewNop().Sugar()

func (r *loggingResponseWriter) Write(b []byte) (int, error) {
	if r.responseData.status == 0 {
		r.responseData.status = http.StatusOK
	}
	size, err := r.ResponseWriter.Write(b)
	r.responseData.size += size
	return size, err
}

func (r *loggingResponseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	if r.responseData.status == 0 {
		r.responseData.status = statusCode
	}
}

// Init builds the global logger for the given level ("debug", "info", ...).
// The production encoder is used for any level above debug.
func Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	if lvl.Level() == zap.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	zl, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = zl.Sugar()

	return nil
}

// Sync flushes any buffered log entries to the output.
func Sync() error {
	if err := Log.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return err
	}

	return nil
}

// WithLoggingHTTPMiddleware logs one line per request with its outcome.
// Server errors are logged at error level.
func WithLoggingHTTPMiddleware(h http.Handler) http.Handler {
	logFn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		responseData := &responseData{
			status: 0,
			size:   0,
		}
		lw := loggingResponseWriter{
			ResponseWriter: w,
			responseData:   responseData,
		}
		h.ServeHTTP(&lw, r)

		fields := []interface{}{
			"request_id", middleware.GetReqID(r.Context()),
			"uri", r.RequestURI,
			"method", r.Method,
			"status", responseData.status,
			"duration", time.Since(start),
			"size", responseData.size,
		}
		if responseData.status >= http.StatusInternalServerError {
			Log.Errorw("request failed", fields...)
			return
		}
		Log.Infow("request served", fields...)
	}

	return http.HandlerFunc(logFn)
}
