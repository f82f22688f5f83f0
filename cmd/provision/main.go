package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ruteri/sgx-enclave-host/cmd/flags"
	"github.com/ruteri/sgx-enclave-host/cryptoutils"
	"github.com/ruteri/sgx-enclave-host/interfaces"
	"github.com/ruteri/sgx-enclave-host/storage"
	"github.com/urfave/cli/v2"
)

var flagServerAddr = &cli.StringFlag{
	Name:  "server-addr",
	Value: "http://127.0.0.1:8080",
	Usage: "enclave host daemon address",
}
var flagCommonName = &cli.StringFlag{
	Name:  "cn",
	Value: "seed-recipient",
	Usage: "common name for the seed-exchange certificate",
}
var flagValidityHours = &cli.Int64Flag{
	Name:  "validity-hours",
	Value: 24,
	Usage: "seed-exchange certificate validity",
}
var flagOutDir = &cli.StringFlag{
	Name:  "out-dir",
	Value: ".",
	Usage: "directory to write the key, certificate, and sealed seed to",
}
var flagPassphrase = &cli.StringFlag{
	Name:  "seal-passphrase",
	Usage: "passphrase for sealing the received seed at rest; empty stores the encrypted seed as received",
}

func main() {
	app := &cli.App{
		Name:  "provision",
		Usage: "Client for the enclave host provisioning API",
		Flags: []cli.Flag{
			flagServerAddr,
			flags.LogJsonFlag,
			flags.LogDebugFlag,
			flags.LogServiceFlag,
			flags.LogUidFlag,
		},
		Commands: []*cli.Command{
			{
				Name:        "seed",
				Usage:       "Request the encrypted seed",
				Description: "Generates a seed-exchange certificate, requests the seed encrypted to it, and writes the key, certificate, and (optionally sealed) seed to disk.",
				Flags: []cli.Flag{
					flagCommonName,
					flagValidityHours,
					flagOutDir,
					flagPassphrase,
					flags.ArtifactStoreFlag,
				},
				Action: requestSeed,
			},
			{
				Name:   "report",
				Usage:  "Trigger attestation report production",
				Action: produceReport,
			},
			{
				Name:   "status",
				Usage:  "Print the host daemon status",
				Action: fetchStatus,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func requestSeed(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	serverAddr := cCtx.String(flagServerAddr.Name)
	outDir := cCtx.String(flagOutDir.Name)
	passphrase := cCtx.String(flagPassphrase.Name)
	validity := time.Duration(cCtx.Int64(flagValidityHours.Name)) * time.Hour

	keyPEM, certPEM, err := cryptoutils.CreateSeedExchangeCert(cCtx.String(flagCommonName.Name), validity)
	if err != nil {
		return fmt.Errorf("generating seed-exchange certificate: %w", err)
	}

	resp, err := http.Post(serverAddr+"/api/attested/seed", "application/x-pem-file", bytes.NewReader(certPEM))
	if err != nil {
		return fmt.Errorf("requesting seed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("seed request failed: %s: %s", resp.Status, string(body))
	}

	var seedResp struct {
		EncryptedSeed string `json:"encrypted_seed"`
	}
	if err := json.Unmarshal(body, &seedResp); err != nil {
		return fmt.Errorf("decoding seed response: %w", err)
	}

	seed, err := hex.DecodeString(seedResp.EncryptedSeed)
	if err != nil {
		return fmt.Errorf("decoding seed response: %w", err)
	}
	if len(seed) != interfaces.ENCRYPTED_SEED_SIZE {
		return fmt.Errorf("unexpected seed size %d, want %d", len(seed), interfaces.ENCRYPTED_SEED_SIZE)
	}
	logger.Info("Received encrypted seed", "size", len(seed))

	seedBlob := seed
	if passphrase != "" {
		key := cryptoutils.DeriveSealingKey([]byte(passphrase), []byte("seed"))
		seedBlob, err = cryptoutils.Seal(key, seed)
		if err != nil {
			return fmt.Errorf("sealing seed: %w", err)
		}
		logger.Info("Seed sealed with passphrase-derived key")
	}

	if err := os.WriteFile(filepath.Join(outDir, "seed_exchange_key.pem"), keyPEM, 0o600); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "seed_exchange_cert.pem"), certPEM, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "encrypted_seed.bin"), seedBlob, 0o600); err != nil {
		return err
	}
	logger.Info("Artifacts written", "dir", outDir)

	storeURIs := cCtx.StringSlice(flags.ArtifactStoreFlag.Name)
	if len(storeURIs) == 0 {
		return nil
	}

	locations := make([]interfaces.ArtifactStoreLocation, 0, len(storeURIs))
	for _, uri := range storeURIs {
		locations = append(locations, interfaces.ArtifactStoreLocation(uri))
	}
	archive, err := storage.NewFactory(logger).CreateMultiStore(locations)
	if err != nil {
		return fmt.Errorf("creating artifact store: %w", err)
	}

	if _, err := archive.Store(cCtx.Context, interfaces.CertArtifact, certPEM); err != nil {
		return fmt.Errorf("archiving certificate: %w", err)
	}
	id, err := archive.Store(cCtx.Context, interfaces.SeedArtifact, seedBlob)
	if err != nil {
		return fmt.Errorf("archiving seed: %w", err)
	}
	logger.Info("Artifacts archived", "seed_artifact", id.String())
	return nil
}

func produceReport(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	serverAddr := cCtx.String(flagServerAddr.Name)

	resp, err := http.Post(serverAddr+"/api/attested/report", "application/json", nil)
	if err != nil {
		return fmt.Errorf("requesting report production: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("report production failed: %s: %s", resp.Status, string(body))
	}

	logger.Info("Attestation report produced")
	return nil
}

func fetchStatus(cCtx *cli.Context) error {
	serverAddr := cCtx.String(flagServerAddr.Name)

	resp, err := http.Get(serverAddr + "/api/public/status")
	if err != nil {
		return fmt.Errorf("requesting status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status request failed: %s: %s", resp.Status, string(body))
	}

	fmt.Println(string(body))
	return nil
}
