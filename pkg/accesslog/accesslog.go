// Package accesslog records one structured entry per HTTP request.
package accesslog

import (
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/niels/pageserve/pkg/config"
	"github.com/niels/pageserve/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

const (
	// DefaultLogFile is the default file path for the access log
	DefaultLogFile = "access.log"
	// RequestIDField is the log field carrying the per-request id
	RequestIDField = "request_id"
)

// Logger writes access entries either to a rotating file or to the
// application logger
type Logger struct {
	logger zerolog.Logger
	closer io.Closer
}

// NewLogger creates an access logger from the logging configuration.
// When the access log is disabled entries go to fallback.
func NewLogger(cfg config.LogConfig, fallback zerolog.Logger) *Logger {
	if !cfg.AccessLog.Enabled {
		return &Logger{
			logger: fallback.With().Str("component", "access").Logger(),
		}
	}

	path := cfg.AccessLog.Path
	if path == "" {
		path = DefaultLogFile
	}

	w := logging.NewRotatingWriter(path, cfg)
	l := newWithWriter(w)
	l.closer = w
	return l
}

func newWithWriter(w io.Writer) *Logger {
	return &Logger{
		logger: zerolog.New(w).With().Timestamp().Logger(),
	}
}

// Close releases the access log file, if any
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Wrap returns next decorated with request-scoped logging.
// The wrapper only observes the response; it never writes status or body.
func (l *Logger) Wrap(next http.Handler) http.Handler {
	h := hlog.AccessHandler(l.record)(next)
	h = RequestIDHandler(RequestIDField)(h)
	h = hlog.NewHandler(l.logger)(h)
	return h
}

func (l *Logger) record(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("remote", r.RemoteAddr).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}

// RequestIDHandler adds a random id to the request logger under fieldKey
func RequestIDHandler(fieldKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			log := zerolog.Ctx(r.Context())
			log.UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str(fieldKey, id)
			})
			next.ServeHTTP(w, r)
		})
	}
}
