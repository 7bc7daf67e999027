package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/veilstar/wager-platform/internal/wallet-service/dto"
	"github.com/veilstar/wager-platform/internal/wallet-service/repo"
)

// Repo is the ledger surface the handlers need.
type Repo interface {
	Transfer(ctx context.Context, from, to string, amount int64, externalRef string) (transferID string, duplicate bool, err error)
	Mint(ctx context.Context, account string, amount int64) (newBalance int64, err error)
	Balance(ctx context.Context, account string) (int64, error)
}

type Server struct {
	log        *zap.Logger
	repo       Repo
	adminToken string
}

func NewServer(log *zap.Logger, r Repo, adminToken string) *Server {
	return &Server{log: log, repo: r, adminToken: adminToken}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ledger/transfer", s.transfer) // POST
	mux.HandleFunc("/ledger/balance", s.balance)   // GET ?account=...
	mux.HandleFunc("/ledger/mint", s.mint)         // POST (admin)
	return mux
}

func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.From == "" || req.To == "" || req.ExternalRef == "" {
		http.Error(w, "from, to and external_ref are required", http.StatusBadRequest)
		return
	}

	id, dup, err := s.repo.Transfer(r.Context(), req.From, req.To, req.Amount, req.ExternalRef)
	if err != nil {
		s.log.Warn("transfer refused",
			zap.String("from", req.From),
			zap.String("to", req.To),
			zap.Int64("amount", req.Amount),
			zap.Error(err))
		http.Error(w, err.Error(), transferStatus(err))
		return
	}
	writeJSON(w, dto.TransferResponse{TransferID: id, Duplicate: dup})
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	if account == "" {
		http.Error(w, "account required", http.StatusBadRequest)
		return
	}
	bal, err := s.repo.Balance(r.Context(), account)
	if err != nil {
		http.Error(w, err.Error(), transferStatus(err))
		return
	}
	writeJSON(w, dto.BalanceResponse{Account: account, Balance: bal})
}

func (s *Server) mint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.Header.Get("X-Admin-Token") != s.adminToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req dto.MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	bal, err := s.repo.Mint(r.Context(), req.Account, req.Amount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, dto.BalanceResponse{Account: req.Account, Balance: bal})
}

func transferStatus(err error) int {
	switch {
	case errors.Is(err, repo.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, repo.ErrInsufficientFunds):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
