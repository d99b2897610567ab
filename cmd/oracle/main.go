package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cipherledger/internal/attest"
	"cipherledger/internal/ciphertext"
	"cipherledger/internal/disclosure"
	"cipherledger/internal/gateway"
	"cipherledger/internal/platform/config"
	"cipherledger/internal/platform/httpserver"
	"cipherledger/internal/platform/logger"
	"cipherledger/internal/platform/metrics"
	"cipherledger/internal/platform/middleware"
	"cipherledger/internal/sealing"
)

// main runs the development encryption relayer and decryption oracle. Both
// hold the network secret; the ledger holds neither, it only trusts their
// public keys.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("oracle exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	width, err := ciphertext.ParseWidth(cfg.Ledger.ScalarBits)
	if err != nil {
		return err
	}
	gatewaySigner, err := signer(cfg.Crypto.GatewaySeed, "gateway", cfg.Crypto.NetworkSecret, log)
	if err != nil {
		return fmt.Errorf("GATEWAY_SEED: %w", err)
	}
	oracleSigner, err := signer(cfg.Crypto.OracleSeed, "oracle", cfg.Crypto.NetworkSecret, log)
	if err != nil {
		return fmt.Errorf("ORACLE_SEED: %w", err)
	}
	keyring := sealing.NewKeyring([]byte(cfg.Crypto.NetworkSecret))
	oracle := disclosure.NewOracle(keyring, oracleSigner)

	reg := prometheus.NewRegistry()
	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(metrics.New(reg)))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	gateway.NewHandler(gateway.NewLocal(keyring, gatewaySigner, width), log).Register(r)
	disclosure.NewHandler(oracle, oracle.PublicKey(), log).Register(r)

	srv := httpserver.New(cfg.OracleAddr, r)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting oracle",
			"addr", cfg.OracleAddr,
			"scalar", width.String(),
			"gateway_public_key", attest.EncodePublicKey(gatewaySigner.PublicKey()),
			"oracle_public_key", attest.EncodePublicKey(oracle.PublicKey()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func signer(seed, role, secret string, log *slog.Logger) (*attest.Signer, error) {
	if seed != "" {
		return attest.SignerFromSeed(seed)
	}
	log.Warn("no seed configured; using the dev key", "role", role)
	return attest.DevSigner(role, secret), nil
}
