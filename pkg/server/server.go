package server

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dropforge/merkle-distributor-go/pkg/distributor"
	"github.com/dropforge/merkle-distributor-go/pkg/persistence"
)

/*
Server exposes the distributor over HTTP.

Claim Flow:
  POST /claim:
    - Request: { index, account, amount, totalEntitlement?, proof[] }
    - Bitmap variant: proof verified over (index, account, amount); the
      index is consumed and the full amount transferred to account.
    - Cumulative variant: proof verified over (index, account,
      totalEntitlement); amount is the partial claim, fee split applies.
    - Response: { index, account, amount, fee }

Read Flow:
  GET /root:            currently active merkle root
  GET /claimed:         ?index=N -> single-shot consumption state
  GET /claimed-amount:  ?account=0x.. -> cumulative claimed total
  GET /healthz:         claim-store health

Admin Flow (owner-gated, caller supplied in the request body):
  POST /admin/root:        rotate the published merkle root
  POST /admin/fee-address: change the fee recipient
  POST /admin/fee-amount:  change the fee rate in basis points

The server authenticates nothing itself: on a chain the caller is proven by
the transaction signature, and that transport concern stays outside this
core. Deploy behind an authenticating boundary.
*/

// Server handles HTTP requests for one distribution.
type Server struct {
	logger     *zap.Logger
	httpServer *http.Server
	limiter    *rate.Limiter
	store      persistence.IClaimStore

	// Exactly one of bitmap/cumulative is set
	bitmap     *distributor.BitmapDistributor
	cumulative *distributor.CumulativeDistributor
}

// Options configures a Server.
type Options struct {
	Port  int
	Store persistence.IClaimStore

	// ClaimRateLimit is the sustained claims/second admitted; zero disables
	// limiting. Bursts of up to twice the rate are allowed.
	ClaimRateLimit float64

	Bitmap     *distributor.BitmapDistributor
	Cumulative *distributor.CumulativeDistributor
}

// NewServer creates a server for exactly one distributor variant.
func NewServer(opts Options, logger *zap.Logger) (*Server, error) {
	if (opts.Bitmap == nil) == (opts.Cumulative == nil) {
		return nil, fmt.Errorf("exactly one distributor variant must be configured")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("claim store is required")
	}

	s := &Server{
		logger:     logger,
		store:      opts.Store,
		bitmap:     opts.Bitmap,
		cumulative: opts.Cumulative,
	}

	if opts.ClaimRateLimit > 0 {
		burst := int(opts.ClaimRateLimit * 2)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.ClaimRateLimit), burst)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/claim", s.handleClaim)
	mux.HandleFunc("/root", s.handleRoot)
	mux.HandleFunc("/claimed", s.handleClaimed)
	mux.HandleFunc("/claimed-amount", s.handleClaimedAmount)
	mux.HandleFunc("/healthz", s.handleHealth)

	mux.HandleFunc("/admin/root", s.handleSetRoot)
	mux.HandleFunc("/admin/fee-address", s.handleSetFeeAddress)
	mux.HandleFunc("/admin/fee-amount", s.handleSetFeeAmount)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: mux,
	}

	return s, nil
}

// Start starts the HTTP server in the background.
func (s *Server) Start() error {
	go func() {
		s.logger.Sugar().Infow("Starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Sugar().Errorw("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop() error {
	return s.httpServer.Close()
}

// GetHandler returns the HTTP handler (for testing).
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}
