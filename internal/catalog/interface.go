package catalog

import (
	"time"

	"github.com/Gammanik/media-edge/internal/group"
)

// Info содержит сведения о сохраненной таблице групп
type Info struct {
	Groups     int       // Количество групп
	MaxID      int       // Верхняя граница последнего диапазона
	ImportedAt time.Time // Время последнего импорта
	Source     string    // Откуда импортирована таблица
}

// Store интерфейс для хранения таблицы групп
type Store interface {
	// ReplaceGroups атомарно заменяет всю таблицу групп
	ReplaceGroups(ranges []group.Range, source string) error

	// LoadGroups возвращает сохраненные диапазоны в порядке номеров групп
	LoadGroups() ([]group.Range, error)

	// Info возвращает сведения о последнем импорте
	Info() (*Info, error)

	// Close закрывает хранилище
	Close() error
}
