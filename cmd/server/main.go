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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cipherledger/internal/attest"
	"cipherledger/internal/authz"
	"cipherledger/internal/ciphertext"
	"cipherledger/internal/gateway"
	"cipherledger/internal/ledger/handler"
	ledgermetrics "cipherledger/internal/ledger/metrics"
	"cipherledger/internal/ledger/service"
	"cipherledger/internal/platform/config"
	"cipherledger/internal/platform/httpserver"
	"cipherledger/internal/platform/kafka"
	"cipherledger/internal/platform/logger"
	"cipherledger/internal/platform/metrics"
	"cipherledger/internal/ratelimit"
	ratelimitmetrics "cipherledger/internal/ratelimit/metrics"
	"cipherledger/internal/verification"
	audit "cipherledger/pkg/platform/audit"
	auditkafka "cipherledger/pkg/platform/audit/kafka"
	"cipherledger/pkg/platform/audit/outbox"
	"cipherledger/pkg/platform/audit/publisher"
)

// main wires the record ledger: store backend, verification engine, audit
// trail and the HTTP API. Business logic lives in internal packages.
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
		log.Error("ledger server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	encCtx := ciphertext.Context{ChainID: cfg.Ledger.ChainID, LedgerAddress: cfg.Ledger.LedgerAddress}
	width, err := ciphertext.ParseWidth(cfg.Ledger.ScalarBits)
	if err != nil {
		return err
	}

	inclusion, err := inclusionVerifier(cfg, log)
	if err != nil {
		return err
	}
	proofs, err := disclosureVerifier(cfg, log)
	if err != nil {
		return err
	}

	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer be.Close()

	auditPublisher := publisher.NewPublisher(be.audit, publisher.WithLogger(log))
	var auditor audit.Emitter = auditPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := kafka.EnsureTopic(ctx, producer, cfg.Kafka.Topic, 3, 1); err != nil {
			return err
		}
		var stream audit.Emitter = auditkafka.NewPublisher(producer, cfg.Kafka.Topic)
		if be.tx == nil {
			// The store commits before the event is streamed; failed
			// publishes are redelivered instead of failing the request.
			box := outbox.New(stream, outbox.WithLogger(log))
			defer box.Close()
			stream = box
		}
		auditor = audit.Fanout{auditPublisher, stream}
		log.Info("streaming audit events", "topic", cfg.Kafka.Topic, "transactional", be.tx != nil)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine := verification.New(be.records, proofs, encCtx, verification.AtLeast(cfg.Ledger.ClassificationThreshold))
	ledger := service.New(be.records, inclusion, engine, encCtx, width,
		service.WithAuditor(auditor),
		service.WithTxRunner(be.tx),
		service.WithLogger(log),
		service.WithMetrics(ledgermetrics.New(reg)),
		service.WithHealthCheck(be.records.Ping),
	)
	tokens := authz.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer)

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	limiter := ratelimit.New(be.buckets, log,
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
		ratelimit.WithMetrics(ratelimitmetrics.New(reg)),
		ratelimit.WithPolicy(ratelimit.ClassSubmit, ratelimit.Policy{Limit: cfg.RateLimit.SubmitLimit, Window: cfg.RateLimit.Window}),
		ratelimit.WithPolicy(ratelimit.ClassDisclosure, ratelimit.Policy{Limit: cfg.RateLimit.DisclosureLimit, Window: cfg.RateLimit.Window}),
	)
	handler.New(ledger, log, metrics.New(reg), tokens, handler.WithRateLimit(limiter)).Register(r)

	srv := httpserver.New(cfg.Addr, r)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting ledger server",
			"addr", cfg.Addr,
			"store", cfg.StoreBackend,
			"context", encCtx.String(),
			"scalar", width.String(),
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
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	auditPublisher.Close()
	log.Info("ledger server stopped")
	return nil
}

func inclusionVerifier(cfg config.Server, log *slog.Logger) (*gateway.InclusionVerifier, error) {
	if cfg.Crypto.GatewayPublicKey != "" {
		key, err := attest.ParsePublicKey(cfg.Crypto.GatewayPublicKey)
		if err != nil {
			return nil, fmt.Errorf("GATEWAY_PUBLIC_KEY: %w", err)
		}
		return gateway.NewInclusionVerifier(key)
	}
	if cfg.Crypto.GatewaySeed != "" {
		signer, err := attest.SignerFromSeed(cfg.Crypto.GatewaySeed)
		if err != nil {
			return nil, fmt.Errorf("GATEWAY_SEED: %w", err)
		}
		return gateway.NewInclusionVerifier(signer.PublicKey())
	}
	log.Warn("no gateway key configured; trusting the dev gateway key")
	return gateway.NewInclusionVerifier(attest.DevSigner("gateway", cfg.Crypto.NetworkSecret).PublicKey())
}

func disclosureVerifier(cfg config.Server, log *slog.Logger) (*attest.Verifier, error) {
	if len(cfg.Crypto.TrustedOracleKeys) > 0 {
		v, err := attest.VerifierFromBase64(cfg.Crypto.DisclosureThreshold, cfg.Crypto.TrustedOracleKeys...)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_ORACLE_KEYS: %w", err)
		}
		return v, nil
	}
	log.Warn("no trusted oracle keys configured; trusting the dev oracle key")
	return attest.NewVerifier(1, attest.DevSigner("oracle", cfg.Crypto.NetworkSecret).PublicKey())
}
