package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Gammanik/media-edge/internal/upstream"
)

// Route результат разбора пути запроса. Один из:
// RoutePreflight, RouteDescriptor, RouteMedia, RouteUnsupported.
type Route interface {
	Name() string
}

// RoutePreflight CORS preflight (OPTIONS на любой путь)
type RoutePreflight struct{}

// RouteDescriptor /resource/{id}; RawID проверяется обработчиком
type RouteDescriptor struct {
	RawID string
}

// RouteMedia /audio/{group}/{file} или /cover/{group}/{file}
type RouteMedia struct {
	Kind  upstream.Kind
	Group string
	File  string
}

// RouteUnsupported любой другой путь
type RouteUnsupported struct{}

func (RoutePreflight) Name() string   { return "preflight" }
func (RouteDescriptor) Name() string  { return "resource" }
func (r RouteMedia) Name() string     { return string(r.Kind) }
func (RouteUnsupported) Name() string { return "unsupported" }

const (
	routeResource = "resource"
	routeMedia    = "media"
)

// Router сопоставляет путь с одним из шаблонов. Методы кроме OPTIONS не
// ограничиваются: GET, HEAD и прочие идут по одному пути.
type Router struct {
	m *mux.Router
}

// NewRouter создает сопоставитель путей
func NewRouter() *Router {
	m := mux.NewRouter()
	m.NewRoute().Name(routeResource).Path("/resource/{id}")
	m.NewRoute().Name(routeMedia).Path("/{kind:audio|cover}/{group}/{file}")
	return &Router{m: m}
}

// Classify разбирает запрос один раз; дальше путь не перечитывается
func (rt *Router) Classify(r *http.Request) Route {
	if r.Method == http.MethodOptions {
		return RoutePreflight{}
	}

	var match mux.RouteMatch
	if !rt.m.Match(r, &match) || match.Route == nil {
		return RouteUnsupported{}
	}

	switch match.Route.GetName() {
	case routeResource:
		return RouteDescriptor{RawID: match.Vars["id"]}
	case routeMedia:
		kind, err := upstream.ParseMediaKind(match.Vars["kind"])
		if err != nil {
			return RouteUnsupported{}
		}
		group, file := match.Vars["group"], match.Vars["file"]
		if isDotSegment(group) || isDotSegment(file) {
			return RouteUnsupported{}
		}
		return RouteMedia{Kind: kind, Group: group, File: file}
	}

	return RouteUnsupported{}
}

func isDotSegment(s string) bool {
	return s == "." || s == ".."
}
