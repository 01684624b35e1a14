package group

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrInvalidID возвращается для нечислового идентификатора или значения вне [1, MaxID]
	ErrInvalidID = errors.New("invalid id")

	// ErrNotFound возвращается, если идентификатор попадает в разрыв между диапазонами
	ErrNotFound = errors.New("id not found in any group")
)

// Range описывает непрерывный диапазон идентификаторов одной группы (альбома)
type Range struct {
	GroupID int `json:"id" toml:"id"`       // Номер группы
	StartID int `json:"start" toml:"start"` // Первый идентификатор (включительно)
	EndID   int `json:"end" toml:"end"`     // Последний идентификатор (включительно)
}

// Count возвращает количество идентификаторов в диапазоне
func (r Range) Count() int {
	return r.EndID - r.StartID + 1
}

// Contains проверяет, входит ли id в диапазон
func (r Range) Contains(id int) bool {
	return id >= r.StartID && id <= r.EndID
}

// Table неизменяемая таблица диапазонов, упорядоченная по StartID.
// Безопасна для конкурентного чтения без синхронизации.
type Table struct {
	ranges []Range
}

// NewTable проверяет диапазоны и строит таблицу. Входной срез копируется.
func NewTable(ranges []Range) (*Table, error) {
	if len(ranges) == 0 {
		return nil, errors.New("group table is empty")
	}

	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartID < sorted[j].StartID })

	seen := make(map[int]bool, len(sorted))
	for i, r := range sorted {
		if r.GroupID < 1 {
			return nil, fmt.Errorf("group %d: id must be positive", r.GroupID)
		}
		if seen[r.GroupID] {
			return nil, fmt.Errorf("group %d: duplicate group id", r.GroupID)
		}
		seen[r.GroupID] = true

		if r.StartID < 1 {
			return nil, fmt.Errorf("group %d: start %d must be positive", r.GroupID, r.StartID)
		}
		if r.EndID < r.StartID {
			return nil, fmt.Errorf("group %d: end %d is before start %d", r.GroupID, r.EndID, r.StartID)
		}
		if i > 0 && r.StartID <= sorted[i-1].EndID {
			return nil, fmt.Errorf("group %d overlaps group %d", r.GroupID, sorted[i-1].GroupID)
		}
	}

	return &Table{ranges: sorted}, nil
}

// MaxID возвращает верхнюю границу последнего диапазона
func (t *Table) MaxID() int {
	return t.ranges[len(t.ranges)-1].EndID
}

// Ranges возвращает копию диапазонов в порядке возрастания
func (t *Table) Ranges() []Range {
	out := make([]Range, len(t.ranges))
	copy(out, t.ranges)
	return out
}

// Resolve возвращает номер группы, которой принадлежит id
func (t *Table) Resolve(id int) (int, error) {
	if id < 1 || id > t.MaxID() {
		return 0, fmt.Errorf("%w: %d is outside [1, %d]", ErrInvalidID, id, t.MaxID())
	}

	// Первый диапазон, чей конец не меньше id
	i := sort.Search(len(t.ranges), func(i int) bool { return t.ranges[i].EndID >= id })
	if i < len(t.ranges) && t.ranges[i].Contains(id) {
		return t.ranges[i].GroupID, nil
	}

	return 0, fmt.Errorf("%w: %d", ErrNotFound, id)
}

// ResolveString разбирает идентификатор из сегмента пути и разрешает группу
func (t *Table) ResolveString(raw string) (int, int, error) {
	id, err := ParseID(raw)
	if err != nil {
		return 0, 0, err
	}
	g, err := t.Resolve(id)
	if err != nil {
		return id, 0, err
	}
	return id, g, nil
}

// ParseID принимает только десятичное целое без знака и пробелов
func ParseID(raw string) (int, error) {
	if raw == "" || strings.TrimLeft(raw, "0123456789") != "" {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidID, raw)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidID, raw, err)
	}
	return id, nil
}
