package gallery

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	xlog "github.com/comalice/statekernel/internal/log"
)

// HeaderRequestID carries the request correlation ID.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID reuses the caller's X-Request-ID or mints a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// recoverer turns handler panics into a logged 500.
func recoverer(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				buf := make([]byte, 8192)
				buf = buf[:runtime.Stack(buf, false)]
				logger.Error().
					Str(xlog.FieldRequestID, requestIDFrom(r.Context())).
					Str("method", r.Method).
					Str(xlog.FieldPath, r.URL.Path).
					Interface("panic_value", rec).
					Str("stack_trace", string(buf)).
					Msg("panic recovered in HTTP handler")
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error", RequestID: requestIDFrom(r.Context())})
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog logs one line per request at debug level.
func accessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str(xlog.FieldRequestID, requestIDFrom(r.Context())).
				Str("method", r.Method).
				Str(xlog.FieldPath, r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}

// rateLimit allows perMinute requests per client IP in a sliding window.
func rateLimit(perMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Minute.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded", RequestID: requestIDFrom(r.Context())})
		}),
	)
}
