// Package ratelimit throttles the ledger's mutation endpoints per caller, or
// per client address when no caller has been authenticated.
package ratelimit

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"cipherledger/internal/ratelimit/metrics"
	"cipherledger/internal/ratelimit/models"
	dErrors "cipherledger/pkg/domain-errors"
	"cipherledger/pkg/platform/httputil"
	"cipherledger/pkg/requestcontext"
)

// Class groups endpoints that share a policy.
type Class string

const (
	ClassSubmit     Class = "submit"
	ClassDisclosure Class = "disclosure"
)

// Policy admits Limit requests per subject within a sliding Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// BucketStore counts requests per key.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

var defaultPolicies = map[Class]Policy{
	ClassSubmit:     {Limit: 60, Window: time.Minute},
	ClassDisclosure: {Limit: 30, Window: time.Minute},
}

type Middleware struct {
	store    BucketStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
	policies map[Class]Policy
	disabled bool
}

type Option func(*Middleware)

// WithPolicy overrides the policy for class. A non-positive limit leaves the class unthrottled.
func WithPolicy(class Class, p Policy) Option {
	return func(m *Middleware) {
		m.policies[class] = p
	}
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

// WithDisabled turns every check into a pass-through (tests and demos).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func New(store BucketStore, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:    store,
		logger:   logger,
		policies: make(map[Class]Policy, len(defaultPolicies)),
	}
	for class, p := range defaultPolicies {
		m.policies[class] = p
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit throttles requests of class. It must run after authentication so the
// caller identity is in the context; otherwise the client address is used.
// Store failures fail open.
func (m *Middleware) Limit(class Class) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy, ok := m.policies[class]
			if m.disabled || !ok || policy.Limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			subject, value := subjectOf(r)
			result, err := m.store.Allow(ctx, string(class)+":"+subject+":"+value, policy.Limit, policy.Window)
			if err != nil {
				m.metrics.IncrementStoreErrors()
				m.logger.ErrorContext(ctx, "rate limit check failed",
					"error", err,
					"class", class,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.metrics.IncrementRejected(string(class), subject)
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"class", class,
					"subject", subject,
					"retry_after", result.RetryAfter,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeRateLimitExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func subjectOf(r *http.Request) (string, string) {
	if caller := requestcontext.Caller(r.Context()); caller != "" {
		return "caller", string(caller)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip", host
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// The body carries gateway_unavailable so ledger clients treat a denial as transient.
func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.ErrorResponse{
		Error:       string(dErrors.CodeGatewayUnavailable),
		Description: "rate limit exceeded, retry in " + strconv.Itoa(result.RetryAfter) + "s",
	})
}
