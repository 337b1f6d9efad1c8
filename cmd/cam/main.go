package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storeops/cam-cli/internal/cli"
	"github.com/storeops/cam-cli/internal/config"
	camgateway "github.com/storeops/cam-cli/internal/gateway/cam"
	"github.com/storeops/cam-cli/internal/service/profile"
)

var version = "dev"

const (
	defaultCAMHTTPMinInterval = 200 * time.Millisecond
	camHTTPMinIntervalEnv     = "CAM_HTTP_MIN_INTERVAL_MS"
	camDebugEnv               = "CAM_DEBUG"
)

func main() {
	store, err := config.NewStore()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	deps := cli.Dependencies{
		CAM: camgateway.NewClient(
			camgateway.WithRequestMinInterval(resolveCAMRequestMinInterval()),
		),
		Profiles: profile.NewResolver(store),
		Config:   store,
		Logger:   logger,
		Version:  version,
	}

	exitCode := cli.Execute(context.Background(), os.Args[1:], deps, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

func resolveCAMRequestMinInterval() time.Duration {
	raw := strings.TrimSpace(os.Getenv(camHTTPMinIntervalEnv))
	if raw == "" {
		return defaultCAMHTTPMinInterval
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		return defaultCAMHTTPMinInterval
	}
	return time.Duration(ms) * time.Millisecond
}

func newLogger() *zap.Logger {
	if strings.TrimSpace(os.Getenv(camDebugEnv)) == "" {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
