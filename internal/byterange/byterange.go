package byterange

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrMalformed заголовок Range не соответствует форме bytes=<start>-<end?>
	ErrMalformed = errors.New("malformed range header")

	// ErrUnsatisfiable диапазон не пересекается с ресурсом
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

var (
	rangePattern        = regexp.MustCompile(`^bytes=(\d+)-(\d*)$`)
	contentRangePattern = regexp.MustCompile(`^bytes (\d+)-(\d+)/(\d+|\*)$`)
	unsatisfiedPattern  = regexp.MustCompile(`^bytes \*/(\d+)$`)
)

// Request запрос клиента. HasEnd == false означает "до конца ресурса".
type Request struct {
	Start  int64
	End    int64
	HasEnd bool
}

// Resolved диапазон после сверки с длиной ресурса: 0 <= Start <= End < Total
type Resolved struct {
	Start int64
	End   int64
	Total int64
}

// Length возвращает число выбранных байт
func (r Resolved) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange форматирует значение заголовка Content-Range
func (r Resolved) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, r.Total)
}

// Unsatisfied форматирует Content-Range для ответа 416
func Unsatisfied(total int64) string {
	return fmt.Sprintf("bytes */%d", total)
}

// ParseUnsatisfied извлекает полную длину из Content-Range ответа 416
// ("bytes */<total>").
func ParseUnsatisfied(header string) (int64, error) {
	m := unsatisfiedPattern.FindStringSubmatch(strings.TrimSpace(header))
	if m == nil {
		return 0, fmt.Errorf("%w: content-range %q", ErrMalformed, header)
	}
	total, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: content-range total: %v", ErrMalformed, err)
	}
	return total, nil
}

// Parse разбирает заголовок Range. Пустой заголовок дает nil без ошибки.
func Parse(header string) (*Request, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, nil
	}

	m := rangePattern.FindStringSubmatch(header)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformed, header)
	}

	start, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: start: %v", ErrMalformed, err)
	}

	req := &Request{Start: start}
	if m[2] != "" {
		end, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: end: %v", ErrMalformed, err)
		}
		req.End = end
		req.HasEnd = true
	}

	return req, nil
}

// Resolve сверяет запрос с длиной ресурса. Конец за пределами ресурса
// обрезается до total-1, а не отклоняется.
func Resolve(req Request, total int64) (Resolved, error) {
	end := total - 1
	if req.HasEnd && req.End < end {
		end = req.End
	}

	if req.Start >= total || end < req.Start {
		return Resolved{}, fmt.Errorf("%w: start %d, end %d, total %d", ErrUnsatisfiable, req.Start, end, total)
	}

	return Resolved{Start: req.Start, End: end, Total: total}, nil
}

// Slice возвращает байты выбранного диапазона из полного тела
func Slice(body []byte, r Resolved) []byte {
	return body[r.Start : r.End+1]
}

// ParseContentRange разбирает Content-Range ответа апстрима.
// Total == -1, если апстрим не сообщил полную длину.
func ParseContentRange(header string) (Resolved, error) {
	m := contentRangePattern.FindStringSubmatch(strings.TrimSpace(header))
	if m == nil {
		return Resolved{}, fmt.Errorf("%w: content-range %q", ErrMalformed, header)
	}

	start, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: content-range start: %v", ErrMalformed, err)
	}
	end, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: content-range end: %v", ErrMalformed, err)
	}

	total := int64(-1)
	if m[3] != "*" {
		total, err = strconv.ParseInt(m[3], 10, 64)
		if err != nil {
			return Resolved{}, fmt.Errorf("%w: content-range total: %v", ErrMalformed, err)
		}
	}

	if end < start || (total >= 0 && end >= total) {
		return Resolved{}, fmt.Errorf("%w: content-range %q", ErrMalformed, header)
	}

	return Resolved{Start: start, End: end, Total: total}, nil
}

// SliceWindow вырезает want из тела, которое покрывает только окно window
// полного ресурса (ответ 206 апстрима).
func SliceWindow(body []byte, window, want Resolved) ([]byte, error) {
	if int64(len(body)) != window.Length() {
		return nil, fmt.Errorf("%w: body has %d bytes, content-range claims %d", ErrMalformed, len(body), window.Length())
	}
	if want.Start < window.Start || want.End > window.End {
		return nil, fmt.Errorf("%w: window %d-%d does not cover %d-%d", ErrUnsatisfiable, window.Start, window.End, want.Start, want.End)
	}
	return body[want.Start-window.Start : want.End-window.Start+1], nil
}
