// cmd/origin-node/main.go
package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/Gammanik/media-edge/internal/logging"
)

var (
	port      = flag.Int("port", 9000, "HTTP port to listen on")
	dataDir   = flag.String("data", "./data", "Directory with json/, audio/ and cover/ trees")
	logLevel  = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat = flag.String("log-format", "auto", "Log format (auto, console, json)")
)

func main() {
	flag.Parse()

	logger, err := logging.New(logging.Options{Level: *logLevel, Format: *logFormat})
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	// Каталоги создаются заранее, чтобы /status работал на пустом узле
	for _, kind := range originKinds {
		if err := os.MkdirAll(kindDir(*dataDir, kind), 0o755); err != nil {
			logger.Error("failed to create data directory", "kind", kind, "error", err)
			os.Exit(1)
		}
	}

	server := &http.Server{
		Addr:              listenAddr(*port),
		Handler:           newOriginRouter(*dataDir, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("origin node starting", "addr", server.Addr, "data", *dataDir)
	if err := server.ListenAndServe(); err != nil {
		logger.Error("origin node stopped", "error", err)
		os.Exit(1)
	}
}
