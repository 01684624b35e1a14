package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader заголовок с идентификатором запроса
const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

// requestInfo принадлежит одному запросу
type requestInfo struct {
	id     string
	route  string
	logger *slog.Logger
}

func infoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(ctxKey{}).(*requestInfo)
	return info
}

func loggerFrom(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if info := infoFrom(ctx); info != nil {
		return info.logger
	}
	return fallback
}

func setRouteName(ctx context.Context, name string) {
	if info := infoFrom(ctx); info != nil {
		info.route = name
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += int64(n)
	return n, err
}

// WithRequestLogging присваивает запросу идентификатор, пишет строку
// журнала доступа и превращает панику в 500 с CORS заголовками.
func WithRequestLogging(next http.Handler, logger *slog.Logger, cors CORS) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		info := &requestInfo{
			id:     id,
			route:  "unsupported",
			logger: logger.With("request_id", id),
		}
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, info))
		rec := &statusRecorder{ResponseWriter: w}

		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				info.logger.Error("panic while serving request", "panic", fmt.Sprint(p))
				if rec.status == 0 {
					err := fmt.Errorf("internal error: %v", p)
					shapeError(cors, err, "Internal server error", nil).write(rec)
				}
			}

			info.logger.Info("request served",
				"method", r.Method,
				"path", r.URL.Path,
				"route", info.route,
				"status", rec.status,
				"bytes", rec.bytes,
				"duration", time.Since(start),
			)
		}()

		next.ServeHTTP(rec, r)
	})
}
