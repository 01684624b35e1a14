package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrFetch любой неуспешный запрос к апстриму
	ErrFetch = errors.New("upstream fetch failed")

	// ErrNotFound апстрим ответил 404
	ErrNotFound = errors.New("upstream resource not found")

	// ErrTooLarge тело ответа превысило лимит
	ErrTooLarge = errors.New("upstream body exceeds limit")

	// ErrRangeNotSatisfiable апстрим выполнил пересланный Range и ответил 416
	ErrRangeNotSatisfiable = errors.New("upstream range not satisfiable")
)

// FetchError описывает неудачную попытку; Status == 0 для сетевых ошибок
type FetchError struct {
	URL    string
	Status int
	Err    error

	// ContentRange заголовок ответа с ошибкой, например "bytes */1000" при 416
	ContentRange string
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: upstream returned %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is позволяет сравнивать через errors.Is с ErrFetch, ErrNotFound и
// ErrRangeNotSatisfiable
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrFetch:
		return true
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrRangeNotSatisfiable:
		return e.Status == http.StatusRequestedRangeNotSatisfiable
	}
	return false
}

// Response материализованный ответ апстрима
type Response struct {
	Status       int
	Body         []byte
	ContentRange string // заполнен, если апстрим ответил 206
}

// Client интерфейс для получения ресурсов с апстрима
type Client interface {
	// Fetch выполняет один GET. rangeHeader пересылается как есть, если не пуст.
	Fetch(ctx context.Context, url, rangeHeader string) (*Response, error)
}

// Options параметры HTTP клиента
type Options struct {
	Timeout      time.Duration // 0 = без таймаута
	MaxBodyBytes int64         // 0 = без ограничения
}

// HTTPClient реализация Client поверх net/http. Повторных попыток нет.
type HTTPClient struct {
	client       *http.Client
	maxBodyBytes int64
}

// New создает клиент апстрима
func New(opts Options) *HTTPClient {
	return &HTTPClient{
		client:       &http.Client{Timeout: opts.Timeout},
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

// NewWithHTTPClient использует переданный *http.Client как есть
func NewWithHTTPClient(client *http.Client, maxBodyBytes int64) *HTTPClient {
	return &HTTPClient{client: client, maxBodyBytes: maxBodyBytes}
}

// Fetch скачивает ресурс целиком
func (c *HTTPClient) Fetch(ctx context.Context, url, rangeHeader string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &FetchError{
			URL:          url,
			Status:       resp.StatusCode,
			ContentRange: resp.Header.Get("Content-Range"),
		}
	}

	body, err := c.readBody(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	out := &Response{Status: resp.StatusCode, Body: body}
	if resp.StatusCode == http.StatusPartialContent {
		out.ContentRange = resp.Header.Get("Content-Range")
	}
	return out, nil
}

func (c *HTTPClient) readBody(r io.Reader) ([]byte, error) {
	if c.maxBodyBytes <= 0 {
		return io.ReadAll(r)
	}

	body, err := io.ReadAll(io.LimitReader(r, c.maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, c.maxBodyBytes)
	}
	return body, nil
}

// StatusOf возвращает статус апстрима из ошибки Fetch; 0 для сетевых ошибок
func StatusOf(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Status
	}
	return 0
}

// ContentRangeOf возвращает Content-Range ответа с ошибкой из Fetch
func ContentRangeOf(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.ContentRange
	}
	return ""
}
