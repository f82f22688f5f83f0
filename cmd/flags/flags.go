// Package flags holds the CLI flags shared by the enclave host binaries.
package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/sgx-enclave-host/common"
	"github.com/ruteri/sgx-enclave-host/httpserver"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String(LogServiceFlag.Name)

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *httpserver.HTTPServerConfig {
	metricsAddr := cCtx.String(MetricsAddrFlag.Name)
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &httpserver.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for the provisioning API",
}

var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var EnclaveDirFlag = &cli.StringFlag{
	Name:  "enclave-dir",
	Usage: "directory holding the signed enclave image; overrides the default search path",
}

var SimModeFlag = &cli.BoolFlag{
	Name:  "sgx-sim",
	Value: false,
	Usage: "run with a simulated enclave instead of SGX hardware",
}

var QuoteProviderAddrFlag = &cli.StringFlag{
	Name:  "quote-provider-addr",
	Usage: "address of the quoting service; empty uses a dummy provider",
}

var TCSCountFlag = &cli.IntFlag{
	Name:  "tcs-count",
	Value: 16,
	Usage: "number of concurrent enclave execution slots; must match the enclave build",
}

var AcquireTimeoutFlag = &cli.Int64Flag{
	Name:  "acquire-timeout-seconds",
	Value: 30,
	Usage: "seconds to wait for a free enclave execution slot",
}

var ModuleCacheSizeFlag = &cli.IntFlag{
	Name:  "module-cache-size",
	Value: 8,
	Usage: "number of compiled modules the enclave keeps in its in-enclave cache",
}

var ArtifactStoreFlag = &cli.StringSliceFlag{
	Name:  "artifact-store",
	Usage: "artifact store location URI (file://, s3://, ipfs://, vault://); repeatable",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
}
var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
