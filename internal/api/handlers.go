package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Gammanik/media-edge/internal/byterange"
	"github.com/Gammanik/media-edge/internal/group"
	"github.com/Gammanik/media-edge/internal/upstream"
)

// Config зависимости обработчика
type Config struct {
	Groups   *group.Table         // Неизменяемая таблица групп
	URLs     *upstream.URLBuilder // Адреса апстрима
	Upstream upstream.Client      // Клиент апстрима
	CORS     CORS                 // Заголовки кросс-доменного доступа
	Logger   *slog.Logger         // По умолчанию slog.Default()

	// PublicBaseURL база ссылок в манифесте; пусто = схема и хост запроса
	PublicBaseURL string

	// ForwardRange пересылать Range аудио запросов апстриму как подсказку
	ForwardRange bool
}

// ResourceDescriptor манифест ресурса, который отдает /resource/{id}
type ResourceDescriptor struct {
	ID    int             `json:"id"`
	Album string          `json:"album"`
	Audio string          `json:"audio"`
	Cover string          `json:"cover"`
	JSON  json.RawMessage `json:"json"`
}

// FileHandler обрабатывает запросы к прокси. Состояние между запросами не хранится.
type FileHandler struct {
	groups        *group.Table
	urls          *upstream.URLBuilder
	upstream      upstream.Client
	cors          CORS
	logger        *slog.Logger
	publicBaseURL string
	forwardRange  bool
	router        *Router
}

// NewFileHandler проверяет зависимости и создает обработчик
func NewFileHandler(cfg Config) (*FileHandler, error) {
	if cfg.Groups == nil {
		return nil, errors.New("group table is required")
	}
	if cfg.URLs == nil {
		return nil, errors.New("upstream url builder is required")
	}
	if cfg.Upstream == nil {
		return nil, errors.New("upstream client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &FileHandler{
		groups:        cfg.Groups,
		urls:          cfg.URLs,
		upstream:      cfg.Upstream,
		cors:          cfg.CORS,
		logger:        logger,
		publicBaseURL: cfg.PublicBaseURL,
		forwardRange:  cfg.ForwardRange,
		router:        NewRouter(),
	}, nil
}

// ServeHTTP классифицирует запрос, строит ответ и пишет его
func (h *FileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route := h.router.Classify(r)
	setRouteName(r.Context(), route.Name())

	resp := h.Handle(r, route)
	if err := resp.write(w); err != nil {
		loggerFrom(r.Context(), h.logger).Debug("failed to write response", "error", err)
	}
}

// Handle строит ответ для уже разобранного маршрута
func (h *FileHandler) Handle(r *http.Request, route Route) *Response {
	switch rt := route.(type) {
	case RoutePreflight:
		return Shape(h.cors, http.StatusNoContent, nil, "", nil)
	case RouteDescriptor:
		return h.Resource(r, rt)
	case RouteMedia:
		return h.Media(r, rt)
	default:
		return ShapeJSON(h.cors, http.StatusNotFound, errorBody{Error: "Invalid endpoint"})
	}
}

// Resource собирает манифест ресурса с метаданными апстрима
func (h *FileHandler) Resource(r *http.Request, route RouteDescriptor) *Response {
	ctx := r.Context()
	logger := loggerFrom(ctx, h.logger)

	id, album, err := h.groups.ResolveString(route.RawID)
	if err != nil {
		if errors.Is(err, group.ErrInvalidID) {
			return shapeError(h.cors, err, "Invalid ID", nil)
		}
		return shapeError(h.cors, err, "ID not found in any album", nil)
	}

	jsonURL := h.urls.Build(upstream.KindMetadata, album, strconv.Itoa(id))
	resp, err := h.upstream.Fetch(ctx, jsonURL, "")
	if err != nil {
		logger.Warn("metadata fetch failed", "url", jsonURL, "upstream_status", upstream.StatusOf(err), "error", err)
		if upstream.StatusOf(err) != 0 {
			return shapeError(h.cors, fmt.Errorf("%w: %w", errMetadataMissing, err), "Metadata not found", nil)
		}
		return shapeError(h.cors, err, "Failed to fetch resources", nil)
	}
	if !json.Valid(resp.Body) {
		err := fmt.Errorf("%w: metadata at %s is not valid json", errBadUpstream, jsonURL)
		return shapeError(h.cors, err, "Failed to fetch resources", nil)
	}

	base := h.baseURL(r)
	return ShapeJSON(h.cors, http.StatusOK, ResourceDescriptor{
		ID:    id,
		Album: strconv.Itoa(album),
		Audio: fmt.Sprintf("%s/%s/%d/%d.mp3", base, upstream.KindAudio, album, id),
		Cover: fmt.Sprintf("%s/%s/%d/%d.jpg", base, upstream.KindCover, album, id),
		JSON:  json.RawMessage(resp.Body),
	})
}

// Media проксирует аудио или обложку. Для аудио Range обслуживается
// локально по полностью полученному телу.
func (h *FileHandler) Media(r *http.Request, route RouteMedia) *Response {
	ctx := r.Context()
	kind := route.Kind
	contentType := kind.ContentType()

	var (
		rangeHeader string
		rangeReq    *byterange.Request
	)
	if kind.HonorsRange() {
		rangeHeader = r.Header.Get("Range")
		req, err := byterange.Parse(rangeHeader)
		if err != nil {
			return shapeError(h.cors, err, "Invalid Range header", nil)
		}
		rangeReq = req
	}

	forward := ""
	if h.forwardRange {
		forward = rangeHeader
	}

	fileURL := h.urls.BuildMedia(kind, route.Group, route.File)
	resp, err := h.upstream.Fetch(ctx, fileURL, forward)
	if err != nil && forward != "" && errors.Is(err, upstream.ErrRangeNotSatisfiable) {
		return h.upstreamUnsatisfiable(ctx, kind, err)
	}
	if err != nil {
		loggerFrom(ctx, h.logger).Warn("media fetch failed", "kind", kind, "url", fileURL, "upstream_status", upstream.StatusOf(err), "error", err)
		if errors.Is(err, upstream.ErrNotFound) {
			return shapeError(h.cors, err, fmt.Sprintf("%s file not found", kind), nil)
		}
		return shapeError(h.cors, err, fmt.Sprintf("Failed to fetch %s", kind), nil)
	}

	if resp.Status == http.StatusPartialContent {
		return h.fromWindow(ctx, kind, resp, rangeReq)
	}

	if rangeReq == nil {
		return ShapeFull(h.cors, resp.Body, contentType)
	}

	total := int64(len(resp.Body))
	resolved, err := byterange.Resolve(*rangeReq, total)
	if err != nil {
		return h.unsatisfiable(err, total)
	}
	return ShapePartial(h.cors, byterange.Slice(resp.Body, resolved), resolved, contentType)
}

// fromWindow обрабатывает апстрим, который все же выполнил Range и
// вернул только окно ресурса.
func (h *FileHandler) fromWindow(ctx context.Context, kind upstream.Kind, resp *upstream.Response, rangeReq *byterange.Request) *Response {
	failed := fmt.Sprintf("Failed to fetch %s", kind)

	window, err := byterange.ParseContentRange(resp.ContentRange)
	if err != nil || window.Total < 0 {
		if err == nil {
			err = errors.New("unknown total length")
		}
		return shapeError(h.cors, fmt.Errorf("%w: partial content: %v", errBadUpstream, err), failed, nil)
	}

	want := byterange.Resolved{Start: 0, End: window.Total - 1, Total: window.Total}
	if rangeReq != nil {
		want, err = byterange.Resolve(*rangeReq, window.Total)
		if err != nil {
			return h.unsatisfiable(err, window.Total)
		}
	}

	part, err := byterange.SliceWindow(resp.Body, window, want)
	if err != nil {
		loggerFrom(ctx, h.logger).Warn("upstream range window unusable", "kind", kind, "content_range", resp.ContentRange, "error", err)
		return shapeError(h.cors, fmt.Errorf("%w: partial content: %v", errBadUpstream, err), failed, nil)
	}

	if rangeReq == nil {
		return ShapeFull(h.cors, part, kind.ContentType())
	}
	return ShapePartial(h.cors, part, want, kind.ContentType())
}

// unsatisfiable строит ответ 416. При неизвестной длине (total < 0)
// Content-Range не выставляется.
func (h *FileHandler) unsatisfiable(err error, total int64) *Response {
	extra := http.Header{}
	if total >= 0 {
		extra.Set("Content-Range", byterange.Unsatisfied(total))
	}
	return shapeError(h.cors, err, "Requested Range Not Satisfiable", extra)
}

// upstreamUnsatisfiable апстрим сам выполнил пересланный Range и ответил 416.
// Длина берется из его Content-Range "bytes */N", если он есть.
func (h *FileHandler) upstreamUnsatisfiable(ctx context.Context, kind upstream.Kind, err error) *Response {
	contentRange := upstream.ContentRangeOf(err)
	total, perr := byterange.ParseUnsatisfied(contentRange)
	if perr != nil {
		total = -1
	}
	loggerFrom(ctx, h.logger).Debug("upstream rejected forwarded range", "kind", kind, "content_range", contentRange)
	return h.unsatisfiable(fmt.Errorf("%w: %w", byterange.ErrUnsatisfiable, err), total)
}

// baseURL схема и хост для ссылок манифеста
func (h *FileHandler) baseURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
