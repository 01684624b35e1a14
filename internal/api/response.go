package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Gammanik/media-edge/internal/byterange"
)

const contentTypeJSON = "application/json"

// CORS набор заголовков, добавляемый к каждому ответу, включая ошибки
type CORS struct {
	AllowOrigin string
}

func (c CORS) apply(h http.Header) {
	origin := c.AllowOrigin
	if origin == "" {
		origin = "*"
	}
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Range")
	h.Set("Access-Control-Expose-Headers", "Content-Range, Accept-Ranges")
	if origin != "*" {
		h.Add("Vary", "Origin")
	}
}

// Response исходящий ответ; каждый запрос строит свой экземпляр
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Shape собирает ответ с CORS заголовками. Тело nil означает ответ без тела.
func Shape(cors CORS, status int, body []byte, contentType string, extra http.Header) *Response {
	h := make(http.Header)
	for k, v := range extra {
		h[k] = append([]string(nil), v...)
	}
	cors.apply(h)

	if body != nil {
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		h.Set("Content-Length", strconv.Itoa(len(body)))
	}

	return &Response{Status: status, Header: h, Body: body}
}

// ShapeFull полный медиа ответ: 200, Accept-Ranges
func ShapeFull(cors CORS, body []byte, contentType string) *Response {
	extra := http.Header{}
	extra.Set("Accept-Ranges", "bytes")
	return Shape(cors, http.StatusOK, nonNil(body), contentType, extra)
}

// ShapePartial частичный медиа ответ: 206, Content-Range, Accept-Ranges
func ShapePartial(cors CORS, part []byte, r byterange.Resolved, contentType string) *Response {
	extra := http.Header{}
	extra.Set("Accept-Ranges", "bytes")
	extra.Set("Content-Range", r.ContentRange())
	return Shape(cors, http.StatusPartialContent, nonNil(part), contentType, extra)
}

// ShapeJSON сериализует v; ошибка сериализации превращается в 500
func ShapeJSON(cors CORS, status int, v any) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		body, _ = json.Marshal(errorBody{Error: "Failed to encode response", Details: err.Error()})
		status = http.StatusInternalServerError
	}
	return Shape(cors, status, body, contentTypeJSON, nil)
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// write отправляет ответ клиенту
func (resp *Response) write(w http.ResponseWriter) error {
	h := w.Header()
	for k, v := range resp.Header {
		h[k] = v
	}
	w.WriteHeader(resp.Status)
	if resp.Body == nil {
		return nil
	}
	_, err := w.Write(resp.Body)
	return err
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
