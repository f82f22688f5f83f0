package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/sgx-enclave-host/attestation"
	"github.com/ruteri/sgx-enclave-host/cmd/flags"
	"github.com/ruteri/sgx-enclave-host/enclave"
	"github.com/ruteri/sgx-enclave-host/httpserver"
	"github.com/ruteri/sgx-enclave-host/interfaces"
	"github.com/ruteri/sgx-enclave-host/storage"
	"github.com/urfave/cli/v2"
)

var cliFlags = []cli.Flag{
	flags.ListenAddrFlag,
	flags.MetricsAddrFlag,
	flags.EnclaveDirFlag,
	flags.SimModeFlag,
	flags.QuoteProviderAddrFlag,
	flags.TCSCountFlag,
	flags.AcquireTimeoutFlag,
	flags.ModuleCacheSizeFlag,
	flags.ArtifactStoreFlag,
	flags.LogJsonFlag,
	flags.LogDebugFlag,
	flags.LogUidFlag,
	flags.LogServiceFlag,
	flags.PprofFlag,
	flags.DrainSecondsFlag,
}

func main() {
	app := &cli.App{
		Name:  "enclaved",
		Usage: "Host daemon for the SGX compute enclave",
		Flags: cliFlags,
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String(flags.ListenAddrFlag.Name)
			enclaveDir := cCtx.String(flags.EnclaveDirFlag.Name)
			simMode := cCtx.Bool(flags.SimModeFlag.Name)
			quoteProviderAddr := cCtx.String(flags.QuoteProviderAddrFlag.Name)
			tcsCount := cCtx.Int(flags.TCSCountFlag.Name)
			acquireTimeout := time.Duration(cCtx.Int64(flags.AcquireTimeoutFlag.Name)) * time.Second
			moduleCacheSize := cCtx.Int(flags.ModuleCacheSizeFlag.Name)
			artifactStores := cCtx.StringSlice(flags.ArtifactStoreFlag.Name)

			logger := flags.SetupLogger(cCtx)

			runtimeConfig, err := interfaces.NewRuntimeConfig(moduleCacheSize)
			if err != nil {
				logger.Error("Invalid module cache size", "err", err)
				return err
			}

			if enclaveDir != "" {
				if err := os.Setenv(enclave.EnclaveDirEnv, enclaveDir); err != nil {
					return err
				}
			}

			var quotes interfaces.QuoteProvider
			if quoteProviderAddr != "" {
				logger.Info("Using remote quote provider", "address", quoteProviderAddr)
				quotes = &attestation.RemoteQuoteProvider{Address: quoteProviderAddr}
			} else {
				logger.Warn("No quote provider configured, quotes will not be verifiable")
				quotes = attestation.DummyQuoteProvider{}
			}
			outside := attestation.NewOutsideCalls(quotes, attestation.OutsideCallsConfig{}, logger)

			// Driving a hardware enclave requires the platform loader from
			// the SGX SDK, which this build does not link.
			if !simMode {
				logger.Error("Hardware enclave support is not linked into this build")
				return errors.New("this build only supports --sgx-sim mode")
			}

			logger.Info("Running with a simulated enclave")
			bridge, err := enclave.NewSimBridge(outside)
			if err != nil {
				logger.Error("Failed to create simulated enclave", "err", err)
				return err
			}

			host := enclave.NewHost(enclave.HostConfig{
				TCSCount:       tcsCount,
				AcquireTimeout: acquireTimeout,
			}, enclave.SimLoader{}, bridge, logger)

			if _, err := host.Enclave(); err != nil {
				logger.Error("Failed to initialize enclave", "err", err)
				return err
			}

			if err := host.Configure(runtimeConfig); err != nil {
				logger.Error("Failed to configure enclave runtime", "err", err)
				return err
			}
			logger.Info("Enclave initialized and configured", "module_cache_size", moduleCacheSize)

			var archive interfaces.ArtifactStore
			if len(artifactStores) > 0 {
				locations := make([]interfaces.ArtifactStoreLocation, 0, len(artifactStores))
				for _, uri := range artifactStores {
					locations = append(locations, interfaces.ArtifactStoreLocation(uri))
				}

				archive, err = storage.NewFactory(logger).CreateMultiStore(locations)
				if err != nil {
					logger.Error("Failed to create artifact store", "err", err)
					return err
				}
				logger.Info("Artifact archiving enabled", "backends", len(locations))
			}

			attest := attestation.NewService(bridge, logger)
			handler := httpserver.NewHandler(host, attest, attestation.DefaultRetryPolicy, archive, bridge, logger)

			cfg := flags.ConfigureServer(cCtx, logger, listenAddr)
			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting provisioning API", "listen", listenAddr)
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
