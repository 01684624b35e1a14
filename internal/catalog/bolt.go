// internal/catalog/bolt.go
package catalog

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Gammanik/media-edge/internal/group"
)

var (
	groupsBucket = []byte("groups")
	metaBucket   = []byte("meta")

	importedAtKey = []byte("imported_at")
	sourceKey     = []byte("source")
)

// ErrEmpty возвращается, если в каталоге нет ни одной группы
var ErrEmpty = errors.New("catalog has no groups")

// BoltStore реализация Store на основе BoltDB
type BoltStore struct {
	db *bolt.DB
}

var _ Store = (*BoltStore)(nil)

// NewBoltStore открывает каталог для записи, создавая файл при необходимости
func NewBoltStore(path string) (*BoltStore, error) {
	return open(path, false)
}

// OpenReadOnly открывает существующий каталог только для чтения.
// Используется сервером: таблица загружается один раз при старте.
func OpenReadOnly(path string) (*BoltStore, error) {
	return open(path, true)
}

func open(path string, readOnly bool) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout:  1 * time.Second,
		ReadOnly: readOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}

	if readOnly {
		return &BoltStore{db: db}, nil
	}

	// Создаем необходимые бакеты
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(groupsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// groupKey кодирует номер группы так, чтобы курсор обходил группы по порядку
func groupKey(id int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

// ReplaceGroups атомарно заменяет всю таблицу групп.
// Перед записью таблица проверяется теми же правилами, что и при загрузке.
func (bs *BoltStore) ReplaceGroups(ranges []group.Range, source string) error {
	if _, err := group.NewTable(ranges); err != nil {
		return fmt.Errorf("invalid group table: %w", err)
	}

	return bs.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(groupsBucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(groupsBucket)
		if err != nil {
			return err
		}

		for _, r := range ranges {
			encoded, err := json.Marshal(r)
			if err != nil {
				return err
			}
			if err := b.Put(groupKey(r.GroupID), encoded); err != nil {
				return err
			}
		}

		meta := tx.Bucket(metaBucket)
		if err := meta.Put(importedAtKey, []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
			return err
		}
		return meta.Put(sourceKey, []byte(source))
	})
}

// LoadGroups возвращает сохраненные диапазоны
func (bs *BoltStore) LoadGroups() ([]group.Range, error) {
	var ranges []group.Range

	err := bs.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(groupsBucket)
		if b == nil {
			return ErrEmpty
		}

		return b.ForEach(func(k, v []byte) error {
			var r group.Range
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decode group %x: %w", k, err)
			}
			ranges = append(ranges, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if len(ranges) == 0 {
		return nil, ErrEmpty
	}
	return ranges, nil
}

// Info возвращает сведения о последнем импорте
func (bs *BoltStore) Info() (*Info, error) {
	ranges, err := bs.LoadGroups()
	if err != nil {
		return nil, err
	}
	table, err := group.NewTable(ranges)
	if err != nil {
		return nil, err
	}

	info := &Info{Groups: len(ranges), MaxID: table.MaxID()}
	err = bs.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if meta == nil {
			return nil
		}
		if v := meta.Get(importedAtKey); v != nil {
			ts, err := time.Parse(time.RFC3339, string(v))
			if err != nil {
				return fmt.Errorf("decode imported_at: %w", err)
			}
			info.ImportedAt = ts
		}
		info.Source = string(meta.Get(sourceKey))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return info, nil
}

// Close закрывает хранилище
func (bs *BoltStore) Close() error {
	return bs.db.Close()
}
