package disclosure

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"cipherledger/internal/attest"
	"cipherledger/internal/ciphertext"
	"cipherledger/internal/sealing"
	dErrors "cipherledger/pkg/domain-errors"
	"cipherledger/pkg/platform/httputil"
)

type DisclosureSuite struct {
	suite.Suite
	encCtx  ciphertext.Context
	keyring *sealing.Keyring
}

func TestDisclosureSuite(t *testing.T) {
	suite.Run(t, new(DisclosureSuite))
}

func (s *DisclosureSuite) SetupTest() {
	s.encCtx = ciphertext.Context{ChainID: 31337, LedgerAddress: "spam-ledger"}
	s.keyring = sealing.NewKeyring([]byte("network-secret"))
}

func (s *DisclosureSuite) newOracle() *Oracle {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)
	return NewOracle(s.keyring, attest.NewSigner(priv))
}

func (s *DisclosureSuite) serve(o *Oracle) *httptest.Server {
	r := chi.NewRouter()
	NewHandler(o, o.PublicKey(), slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	srv := httptest.NewServer(r)
	s.T().Cleanup(srv.Close)
	return srv
}

func (s *DisclosureSuite) seal(v uint64) ciphertext.Handle {
	h, err := s.keyring.Seal(s.encCtx, ciphertext.Uint32, v)
	s.Require().NoError(err)
	return h
}

func (s *DisclosureSuite) TestOracle_SignsVerifiableDisclosure() {
	o := s.newOracle()
	h := s.seal(73)

	b, err := o.Disclose(context.Background(), s.encCtx, []ciphertext.Handle{h})
	s.Require().NoError(err)

	values, err := ciphertext.DecodeCleartexts(b.Cleartexts, []ciphertext.Width{ciphertext.Uint32})
	s.Require().NoError(err)
	s.Equal([]uint64{73}, values)

	v, err := attest.NewVerifier(1, o.PublicKey())
	s.Require().NoError(err)
	s.NoError(v.Verify(b.Digest(s.encCtx), b.Signatures))
}

func (s *DisclosureSuite) TestOracle_RefusesForeignContext() {
	o := s.newOracle()
	other := ciphertext.Context{ChainID: 1, LedgerAddress: "elsewhere"}
	_, err := o.Disclose(context.Background(), other, []ciphertext.Handle{s.seal(1)})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = o.Disclose(context.Background(), s.encCtx, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *DisclosureSuite) TestRequester_MergesThresholdSignatures() {
	a, b := s.newOracle(), s.newOracle()
	req := NewRequester([]string{s.serve(a).URL, s.serve(b).URL + "/"})

	h := s.seal(57)
	bundle, err := req.RequestProof(context.Background(), s.encCtx, []ciphertext.Handle{h})
	s.Require().NoError(err)
	s.Equal(ciphertext.EncodeCleartexts(57), bundle.Cleartexts)

	v, err := attest.NewVerifier(2, a.PublicKey(), b.PublicKey())
	s.Require().NoError(err)
	s.NoError(v.Verify(bundle.Digest(s.encCtx), bundle.Signatures))
}

func (s *DisclosureSuite) TestRequester_TimeoutIsProofTimeout() {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	req := NewRequester([]string{slow.URL}, WithTimeout(50*time.Millisecond))
	_, err := req.RequestProof(context.Background(), s.encCtx, []ciphertext.Handle{s.seal(1)})
	s.True(dErrors.HasCode(err, dErrors.CodeProofTimeout))
	s.False(dErrors.HasCode(err, dErrors.CodeInvalidProof))
}

func (s *DisclosureSuite) TestRequester_ServerErrorIsTransient() {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "down"))
	}))
	defer broken.Close()

	_, err := NewRequester([]string{broken.URL}).RequestProof(context.Background(), s.encCtx, []ciphertext.Handle{s.seal(1)})
	s.True(dErrors.IsTransient(err))
}

func (s *DisclosureSuite) TestRequester_RefusalPassesThrough() {
	o := s.newOracle()
	foreign := ciphertext.Context{ChainID: 5, LedgerAddress: "x"}
	_, err := NewRequester([]string{s.serve(o).URL}).RequestProof(context.Background(), foreign, []ciphertext.Handle{s.seal(1)})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *DisclosureSuite) TestRequester_DisagreementIsInvalidProof() {
	h := s.seal(9)
	liar := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, priv, _ := ed25519.GenerateKey(rand.Reader)
		b := ProofBundle{Handles: []ciphertext.Handle{h}, Cleartexts: ciphertext.EncodeCleartexts(10)}
		b.Signatures = attest.NewSigner(priv).Sign(b.Digest(s.encCtx))
		httputil.WriteJSON(w, http.StatusOK, b)
	}))
	defer liar.Close()

	req := NewRequester([]string{s.serve(s.newOracle()).URL, liar.URL})
	_, err := req.RequestProof(context.Background(), s.encCtx, []ciphertext.Handle{h})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidProof))
}

func (s *DisclosureSuite) TestHandler_PublishesKey() {
	o := s.newOracle()
	var resp KeyResponse
	_, err := httputil.Call(context.Background(), http.DefaultClient, http.MethodGet, s.serve(o).URL+"/v1/keys", "", nil, &resp)
	s.Require().NoError(err)
	s.Equal(base64.StdEncoding.EncodeToString(o.PublicKey()), resp.PublicKey)
}
