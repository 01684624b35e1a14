package upstream

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Kind тип ресурса на апстриме; значение совпадает с первым сегментом пути
type Kind string

const (
	KindAudio    Kind = "audio"
	KindCover    Kind = "cover"
	KindMetadata Kind = "json"
)

// ParseMediaKind принимает только виды, которые проксируются как медиа
func ParseMediaKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindAudio, KindCover:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown media kind %q", s)
	}
}

// ContentType возвращает Content-Type ответа для вида ресурса
func (k Kind) ContentType() string {
	switch k {
	case KindAudio:
		return "audio/mpeg"
	case KindCover:
		return "image/jpeg"
	default:
		return "application/json"
	}
}

// HonorsRange сообщает, обслуживаются ли для вида частичные запросы.
// Обложки и метаданные всегда отдаются целиком.
func (k Kind) HonorsRange() bool {
	return k == KindAudio
}

// URLBuilder собирает адреса апстрима относительно базового origin
type URLBuilder struct {
	base *url.URL
}

// NewURLBuilder разбирает базовый адрес апстрима
func NewURLBuilder(base string) (*URLBuilder, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(base), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid upstream base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream base url %q must be absolute", base)
	}
	return &URLBuilder{base: u}, nil
}

// Build возвращает адрес ресурса. Для метаданных identifier это числовой id,
// для медиа имя файла. Неизвестный kind означает ошибку вызывающего кода.
func (b *URLBuilder) Build(kind Kind, group int, identifier string) string {
	var file string
	switch kind {
	case KindMetadata:
		file = identifier + ".json"
	case KindAudio, KindCover:
		file = identifier
	default:
		panic(fmt.Sprintf("upstream: unknown kind %q", kind))
	}

	u := *b.base
	u.Path = strings.Join([]string{b.base.Path, string(kind), strconv.Itoa(group), file}, "/")
	u.RawPath = ""
	return u.String()
}

// BuildMedia как Build, но группа приходит строкой из пути запроса
func (b *URLBuilder) BuildMedia(kind Kind, group, file string) string {
	if kind != KindAudio && kind != KindCover {
		panic(fmt.Sprintf("upstream: %q is not a media kind", kind))
	}
	u := *b.base
	u.Path = strings.Join([]string{b.base.Path, string(kind), group, file}, "/")
	u.RawPath = ""
	return u.String()
}
