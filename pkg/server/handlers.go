package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropforge/merkle-distributor-go/pkg/distributor"
)

// ClaimRequest is the wire form of a claim submission.
type ClaimRequest struct {
	Index   uint64       `json:"index"`
	Account string       `json:"account"`
	Amount  *hexutil.Big `json:"amount"`

	// TotalEntitlement is required for the cumulative variant: the full
	// entitlement the leaf commits to, of which Amount is claimed now.
	TotalEntitlement *hexutil.Big `json:"totalEntitlement,omitempty"`

	Proof []common.Hash `json:"proof"`
}

// ClaimResponse echoes the consumed claim.
type ClaimResponse struct {
	Index   uint64       `json:"index"`
	Account string       `json:"account"`
	Amount  *hexutil.Big `json:"amount"`
	Fee     *hexutil.Big `json:"fee"`
}

// AdminRequest carries an owner-gated parameter update. Caller identifies
// the submitting address; the distributor enforces ownership.
type AdminRequest struct {
	Caller      string       `json:"caller"`
	Root        *common.Hash `json:"root,omitempty"`
	Address     string       `json:"address,omitempty"`
	BasisPoints *uint64      `json:"basisPoints,omitempty"`
}

// statusForClaimError maps the distributor error taxonomy onto HTTP codes.
func statusForClaimError(err error) int {
	switch {
	case errors.Is(err, distributor.ErrInvalidProof):
		return http.StatusUnprocessableEntity
	case errors.Is(err, distributor.ErrAlreadyClaimed):
		return http.StatusConflict
	case errors.Is(err, distributor.ErrInvalidClaimAmount):
		return http.StatusBadRequest
	case errors.Is(err, distributor.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, distributor.ErrTransferFailed), errors.Is(err, distributor.ErrMintFailed):
		return http.StatusBadGateway
	case errors.Is(err, distributor.ErrDuplicateRoot),
		errors.Is(err, distributor.ErrDuplicateAddress),
		errors.Is(err, distributor.ErrSameFee),
		errors.Is(err, distributor.ErrInvalidAddress),
		errors.Is(err, distributor.ErrInvalidBasisPoints):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.limiter != nil && !s.limiter.Allow() {
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	requestID := uuid.NewString()

	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	if !common.IsHexAddress(req.Account) {
		http.Error(w, "account must be a hex address", http.StatusBadRequest)
		return
	}
	if req.Amount == nil {
		http.Error(w, "amount is required", http.StatusBadRequest)
		return
	}
	account := common.HexToAddress(req.Account)

	proof := make([][32]byte, len(req.Proof))
	for i, h := range req.Proof {
		proof[i] = [32]byte(h)
	}

	var fee *hexutil.Big
	var err error
	if s.bitmap != nil {
		err = s.bitmap.Claim(req.Index, account, req.Amount.ToInt(), proof)
		fee = (*hexutil.Big)(new(big.Int))
	} else {
		if req.TotalEntitlement == nil {
			http.Error(w, "totalEntitlement is required for cumulative claims", http.StatusBadRequest)
			return
		}
		var feeAmount *big.Int
		feeAmount, err = s.cumulative.Claim(account, req.Index, req.TotalEntitlement.ToInt(), req.Amount.ToInt(), proof)
		if feeAmount == nil {
			feeAmount = new(big.Int)
		}
		fee = (*hexutil.Big)(feeAmount)
	}

	if err != nil {
		s.logger.Sugar().Warnw("Claim rejected",
			"request_id", requestID, "index", req.Index, "account", account.Hex(), "error", err)
		http.Error(w, err.Error(), statusForClaimError(err))
		return
	}

	s.logger.Sugar().Infow("Claim accepted",
		"request_id", requestID, "index", req.Index, "account", account.Hex(), "amount", req.Amount.String())

	writeJSON(w, s.logger, ClaimResponse{
		Index:   req.Index,
		Account: account.Hex(),
		Amount:  req.Amount,
		Fee:     fee,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var root common.Hash
	if s.bitmap != nil {
		root = s.bitmap.MerkleRoot()
	} else {
		root = s.cumulative.MerkleRoot()
	}

	writeJSON(w, s.logger, map[string]string{"merkleRoot": root.Hex()})
}

func (s *Server) handleClaimed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.bitmap == nil {
		http.Error(w, "claimed-index queries require the bitmap variant", http.StatusNotFound)
		return
	}

	var index uint64
	if _, err := fmt.Sscanf(r.URL.Query().Get("index"), "%d", &index); err != nil {
		http.Error(w, "index query parameter is required", http.StatusBadRequest)
		return
	}

	claimed, err := s.bitmap.IsClaimed(index)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, s.logger, map[string]interface{}{"index": index, "claimed": claimed})
}

func (s *Server) handleClaimedAmount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.cumulative == nil {
		http.Error(w, "claimed-amount queries require the cumulative variant", http.StatusNotFound)
		return
	}

	accountParam := r.URL.Query().Get("account")
	if !common.IsHexAddress(accountParam) {
		http.Error(w, "account query parameter must be a hex address", http.StatusBadRequest)
		return
	}
	account := common.HexToAddress(accountParam)

	amount, err := s.cumulative.ClaimedAmount(account)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, s.logger, map[string]interface{}{
		"account":       account.Hex(),
		"claimedAmount": (*hexutil.Big)(amount),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.store.HealthCheck(); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

func (s *Server) handleSetRoot(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAdmin(w, r)
	if !ok {
		return
	}
	if req.Root == nil {
		http.Error(w, "root is required", http.StatusBadRequest)
		return
	}

	err := s.authority().SetMerkleRoot(common.HexToAddress(req.Caller), *req.Root)
	s.finishAdmin(w, "root", err)
}

func (s *Server) handleSetFeeAddress(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAdmin(w, r)
	if !ok {
		return
	}
	if !common.IsHexAddress(req.Address) {
		http.Error(w, "address must be a hex address", http.StatusBadRequest)
		return
	}

	err := s.authority().SetFeeAddress(common.HexToAddress(req.Caller), common.HexToAddress(req.Address))
	s.finishAdmin(w, "fee-address", err)
}

func (s *Server) handleSetFeeAmount(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAdmin(w, r)
	if !ok {
		return
	}
	if req.BasisPoints == nil {
		http.Error(w, "basisPoints is required", http.StatusBadRequest)
		return
	}

	err := s.authority().SetFeeAmount(common.HexToAddress(req.Caller), *req.BasisPoints)
	s.finishAdmin(w, "fee-amount", err)
}

// decodeAdmin parses and validates the shared admin request envelope.
func (s *Server) decodeAdmin(w http.ResponseWriter, r *http.Request) (*AdminRequest, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}

	var req AdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return nil, false
	}
	if !common.IsHexAddress(req.Caller) {
		http.Error(w, "caller must be a hex address", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func (s *Server) finishAdmin(w http.ResponseWriter, operation string, err error) {
	if err != nil {
		s.logger.Sugar().Warnw("Admin operation rejected", "operation", operation, "error", err)
		http.Error(w, err.Error(), statusForClaimError(err))
		return
	}
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

// authority returns the admin surface of whichever variant is configured.
func (s *Server) authority() distributor.Authority {
	if s.bitmap != nil {
		return s.bitmap
	}
	return s.cumulative
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar().Errorw("Failed to encode response", "error", err)
	}
}
