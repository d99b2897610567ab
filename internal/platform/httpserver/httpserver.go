package httpserver

import (
	"net/http"
	"time"
)

// DisclosureWriteTimeout covers a disclosure round-trip through the oracle
// plus verification on the ledger.
const DisclosureWriteTimeout = 60 * time.Second

// New returns a server for the ledger or oracle API. Header and body reads are
// bounded tightly; proofs and handles are small.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      DisclosureWriteTimeout,
		IdleTimeout:       90 * time.Second,
		MaxHeaderBytes:    16 << 10,
	}
}
