package gateway

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"cipherledger/internal/attest"
	"cipherledger/internal/ciphertext"
	"cipherledger/internal/sealing"
	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
	"cipherledger/pkg/platform/circuit"
	"cipherledger/pkg/platform/httputil"
)

type GatewaySuite struct {
	suite.Suite
	encCtx   ciphertext.Context
	local    *Local
	verifier *InclusionVerifier
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)
	s.encCtx = ciphertext.Context{ChainID: 31337, LedgerAddress: "ledger-a"}
	s.local = NewLocal(sealing.NewKeyring([]byte("network-secret")), attest.NewSigner(priv), ciphertext.Uint8)
	s.verifier, err = NewInclusionVerifier(pub)
	s.Require().NoError(err)
}

func (s *GatewaySuite) TestLocal_EncryptProducesVerifiableHandle() {
	ctx := context.Background()
	h, proof, err := s.local.Encrypt(ctx, s.encCtx, "0xalice", 73)
	s.Require().NoError(err)
	s.Equal(ciphertext.Uint8, h.Width())

	s.NoError(s.verifier.VerifyInclusion(s.encCtx, "0xalice", h, proof))

	s.Run("other caller", func() {
		err := s.verifier.VerifyInclusion(s.encCtx, "0xmallory", h, proof)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidProof))
	})
	s.Run("other context", func() {
		other := ciphertext.Context{ChainID: 1, LedgerAddress: "ledger-a"}
		err := s.verifier.VerifyInclusion(other, "0xalice", h, proof)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidProof))
	})
	s.Run("garbage proof", func() {
		err := s.verifier.VerifyInclusion(s.encCtx, "0xalice", h, InclusionProof("nope"))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidProof))
	})
}

func (s *GatewaySuite) TestLocal_Errors() {
	_, _, err := s.local.Encrypt(context.Background(), s.encCtx, "0xalice", 256)
	s.True(dErrors.HasCode(err, dErrors.CodeEncodingError), "256 does not fit uint8")

	_, _, err = s.local.Encrypt(context.Background(), s.encCtx, "", 1)
	s.True(dErrors.HasCode(err, dErrors.CodeEncodingError))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = s.local.Encrypt(ctx, s.encCtx, "0xalice", 1)
	s.True(dErrors.HasCode(err, dErrors.CodeGatewayUnavailable))
}

func (s *GatewaySuite) newRelayer() *httptest.Server {
	r := chi.NewRouter()
	NewHandler(s.local, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	srv := httptest.NewServer(r)
	s.T().Cleanup(srv.Close)
	return srv
}

func (s *GatewaySuite) TestRemote_RoundTripThroughRelayer() {
	srv := s.newRelayer()
	remote := NewRemote(srv.URL, WithHTTPClient(srv.Client()))

	h, proof, err := remote.Encrypt(context.Background(), s.encCtx, "0xalice", 100)
	s.Require().NoError(err)
	s.NoError(s.verifier.VerifyInclusion(s.encCtx, "0xalice", h, proof))

	_, _, err = remote.Encrypt(context.Background(), s.encCtx, "0xalice", 1000)
	s.True(dErrors.HasCode(err, dErrors.CodeEncodingError), "relayer range errors pass through")
}

func (s *GatewaySuite) TestRemote_UnavailableOpensBreaker() {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "boom"))
	}))
	defer srv.Close()

	breaker := circuit.New("gateway-test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	remote := NewRemote(srv.URL, WithHTTPClient(srv.Client()), WithBreaker(breaker))

	for range 2 {
		_, _, err := remote.Encrypt(context.Background(), s.encCtx, "0xalice", 1)
		s.True(dErrors.HasCode(err, dErrors.CodeGatewayUnavailable))
	}
	s.True(breaker.IsOpen())

	_, _, err := remote.Encrypt(context.Background(), s.encCtx, "0xalice", 1)
	s.True(dErrors.HasCode(err, dErrors.CodeGatewayUnavailable))
	s.Equal(int32(2), calls.Load(), "open breaker short-circuits")
}

func (s *GatewaySuite) TestRemote_Unreachable() {
	remote := NewRemote("http://127.0.0.1:1")
	_, _, err := remote.Encrypt(context.Background(), s.encCtx, id.Identity("0xalice"), 1)
	s.True(dErrors.HasCode(err, dErrors.CodeGatewayUnavailable))
}
