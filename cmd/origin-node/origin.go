package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
)

// originKinds каталоги верхнего уровня, которые раздаёт узел
var originKinds = []string{"json", "audio", "cover"}

var contentTypes = map[string]string{
	"json":  "application/json",
	"audio": "audio/mpeg",
	"cover": "image/jpeg",
}

type originStatus struct {
	Status    string         `json:"status"`
	Files     map[string]int `json:"files"`
	TotalSize int64          `json:"totalSize"`
}

func listenAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}

func kindDir(root, kind string) string {
	return filepath.Join(root, kind)
}

// newOriginRouter отдаёт файлы целиком и игнорирует Range, как статический
// хостинг без поддержки частичных ответов.
func newOriginRouter(root string, logger *slog.Logger) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/{kind:json|audio|cover}/{group}/{file}", func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		kind, groupSeg, file := vars["kind"], vars["group"], vars["file"]

		if !validSegment(groupSeg) || !validSegment(file) {
			http.Error(w, "Invalid path", http.StatusBadRequest)
			return
		}

		path := filepath.Join(kindDir(root, kind), groupSeg, file)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("failed to read file", "path", path, "error", err)
			http.Error(w, "Failed to read file", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentTypes[kind])
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := w.Write(data); err != nil {
			logger.Warn("failed to send file", "path", path, "error", err)
		}
	}).Methods(http.MethodGet, http.MethodHead)

	router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		status := originStatus{Status: "online", Files: make(map[string]int, len(originKinds))}

		for _, kind := range originKinds {
			count, err := countFiles(kindDir(root, kind))
			if err != nil {
				logger.Warn("failed to count files", "kind", kind, "error", err)
			}
			status.Files[kind] = count
		}

		totalSize, err := dirSize(root)
		if err != nil {
			logger.Warn("failed to calculate storage size", "error", err)
		}
		status.TotalSize = totalSize

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(status)
	}).Methods(http.MethodGet)

	return router
}

// validSegment не пропускает выход за пределы каталога данных
func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

// countFiles подсчитывает обычные файлы в дереве каталога
func countFiles(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			count++
		}
		return nil
	})
	return count, err
}

// dirSize суммирует размеры обычных файлов в дереве каталога
func dirSize(root string) (int64, error) {
	var size int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	return size, err
}
