package api

import (
	"errors"
	"net/http"

	"github.com/Gammanik/media-edge/internal/byterange"
	"github.com/Gammanik/media-edge/internal/group"
	"github.com/Gammanik/media-edge/internal/upstream"
)

var (
	// errMetadataMissing апстрим не отдал метаданные (любой не-2xx)
	errMetadataMissing = errors.New("metadata not found")

	// errBadUpstream апстрим ответил 2xx, но ответ нельзя использовать
	errBadUpstream = errors.New("unusable upstream response")
)

// statusFor переводит ошибку компонента в HTTP статус:
// InvalidInput 400, NotFound 404, RangeUnsatisfiable 416, остальное 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadUpstream):
		return http.StatusInternalServerError
	case errors.Is(err, group.ErrInvalidID), errors.Is(err, byterange.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, group.ErrNotFound), errors.Is(err, errMetadataMissing), errors.Is(err, upstream.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, byterange.ErrUnsatisfiable):
		return http.StatusRequestedRangeNotSatisfiable
	default:
		return http.StatusInternalServerError
	}
}

// shapeError строит JSON ответ {error, details?}. details заполняется для
// ошибок апстрима и внутренних ошибок, чтобы причина не терялась.
func shapeError(cors CORS, err error, message string, extra http.Header) *Response {
	status := statusFor(err)
	body := errorBody{Error: message}
	if status >= http.StatusInternalServerError || errors.Is(err, upstream.ErrFetch) || errors.Is(err, errMetadataMissing) {
		body.Details = err.Error()
	}

	resp := ShapeJSON(cors, status, body)
	for k, v := range extra {
		resp.Header[k] = v
	}
	return resp
}
