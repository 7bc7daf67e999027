package http

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/veilstar/wager-platform/internal/pool-service/cache"
	"github.com/veilstar/wager-platform/internal/pool-service/dto"
	"github.com/veilstar/wager-platform/internal/pool-service/engine"
	"github.com/veilstar/wager-platform/internal/pool-service/store"
	"github.com/veilstar/wager-platform/pkg/commitment"
	"github.com/veilstar/wager-platform/pkg/contracts/events"
)

// Publisher emits pool lifecycle events. Emission is best effort; a broker
// outage never fails the request that already changed state.
type Publisher interface {
	PublishPoolCreated(ctx context.Context, e events.PoolCreated) error
	PublishBetCommitted(ctx context.Context, e events.BetCommitted) error
	PublishPoolLocked(ctx context.Context, e events.PoolLocked) error
	PublishBetRevealed(ctx context.Context, e events.BetRevealed) error
	PublishPoolSettled(ctx context.Context, e events.PoolSettled) error
	PublishPayoutClaimed(ctx context.Context, e events.PayoutClaimed) error
	PublishPoolRefunded(ctx context.Context, e events.PoolRefunded) error
	PublishTreasurySwept(ctx context.Context, e events.TreasurySwept) error
}

type Server struct {
	log        *zap.Logger
	eng        *engine.Engine
	pub        Publisher
	cache      *cache.RedisCache
	adminToken string
	treasury   string
}

func NewServer(log *zap.Logger, eng *engine.Engine, pub Publisher, c *cache.RedisCache, adminToken, treasury string) *Server {
	return &Server{log: log, eng: eng, pub: pub, cache: c, adminToken: adminToken, treasury: treasury}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/pools", s.createPool)                 // POST (admin)
	mux.HandleFunc("/pools/", s.dispatchPool)              // per-pool operations
	mux.HandleFunc("/admin/verifier", s.configureVerifier) // POST (admin)
	mux.HandleFunc("/admin/sweep", s.sweep)                // POST (admin)
	return mux
}

func (s *Server) admin(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("X-Admin-Token") != s.adminToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func (s *Server) dispatchPool(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/pools/")
	parts := strings.Split(rest, "/")
	poolID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "bad pool id", http.StatusBadRequest)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.getPool(w, r, poolID)
	case len(parts) == 2 && r.Method == http.MethodPost:
		switch parts[1] {
		case "commit":
			s.commitBet(w, r, poolID)
		case "reveal":
			s.revealBet(w, r, poolID)
		case "claim":
			s.claimPayout(w, r, poolID)
		case "lock":
			s.lockPool(w, r, poolID)
		case "settle":
			s.settlePool(w, r, poolID)
		case "settle-zk":
			s.settlePoolZK(w, r, poolID)
		case "refund":
			s.refundPool(w, r, poolID)
		case "admin-reveal":
			if s.admin(w, r) {
				s.revealBet(w, r, poolID)
			}
		case "admin-claim":
			if s.admin(w, r) {
				s.claimPayout(w, r, poolID)
			}
		default:
			http.NotFound(w, r)
		}
	case len(parts) == 3 && parts[1] == "bets" && r.Method == http.MethodGet:
		s.getBet(w, r, poolID, parts[2])
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) createPool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.admin(w, r) {
		return
	}
	var req dto.CreatePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	matchRef, ok := parseHex32(req.MatchRef)
	if !ok {
		http.Error(w, "match_ref must be 32 hex-encoded bytes", http.StatusBadRequest)
		return
	}

	id, err := s.eng.CreatePool(r.Context(), matchRef, req.Deadline)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.emit(r.Context(), func(ctx context.Context) error {
		return s.pub.PublishPoolCreated(ctx, events.PoolCreated{
			PoolID: id, MatchRef: req.MatchRef, Deadline: req.Deadline,
		})
	})
	s.snapshot(r.Context(), id)
	writeJSON(w, http.StatusCreated, dto.CreatePoolResponse{PoolID: id})
}

func (s *Server) commitBet(w http.ResponseWriter, r *http.Request, poolID int64) {
	var req dto.CommitBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Bettor == "" {
		http.Error(w, "bettor is required", http.StatusBadRequest)
		return
	}
	comm, ok := parseHex32(req.Commitment)
	if !ok {
		http.Error(w, "commitment must be 32 hex-encoded bytes", http.StatusBadRequest)
		return
	}

	fee, err := s.eng.CommitBet(r.Context(), poolID, req.Bettor, comm, req.Amount)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.emit(r.Context(), func(ctx context.Context) error {
		return s.pub.PublishBetCommitted(ctx, events.BetCommitted{
			PoolID: poolID, Bettor: req.Bettor, Amount: req.Amount, Fee: fee,
		})
	})
	s.snapshot(r.Context(), poolID)
	writeJSON(w, http.StatusCreated, dto.CommitBetResponse{PoolID: poolID, Fee: fee})
}

func (s *Server) lockPool(w http.ResponseWriter, r *http.Request, poolID int64) {
	if !s.admin(w, r) {
		return
	}
	if err := s.eng.LockPool(r.Context(), poolID); err != nil {
		s.fail(w, err)
		return
	}
	p, err := s.eng.GetPool(r.Context(), poolID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.emit(r.Context(), func(ctx context.Context) error {
		return s.pub.PublishPoolLocked(ctx, events.PoolLocked{PoolID: poolID, BetCount: p.BetCount})
	})
	s.snapshot(r.Context(), poolID)
	writeJSON(w, http.StatusOK, poolToDTO(p))
}

// revealBet takes the bettor identity from the request body without
// authenticating it. A reveal only succeeds with the bettor's own salt, so a
// third party cannot forge one; the admin-reveal route is the same handler
// behind the operator token, for revealing on a bettor's behalf. Callers that
// need caller-bound identity must put an authenticating gateway in front.
func (s *Server) revealBet(w http.ResponseWriter, r *http.Request, poolID int64) {
	var req dto.RevealBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	side, err := commitment.ParseSide(req.Side)
	if err != nil {
		http.Error(w, "side must be 0 or 1", http.StatusBadRequest)
		return
	}
	salt, ok := parseHex32(req.Salt)
	if !ok {
		http.Error(w, "salt must be 32 hex-encoded bytes", http.StatusBadRequest)
		return
	}

	if err := s.eng.RevealBet(r.Context(), poolID, req.Bettor, side, salt); err != nil {
		s.fail(w, err)
		return
	}
	s.emit(r.Context(), func(ctx context.Context) error {
		return s.pub.PublishBetRevealed(ctx, events.BetRevealed{
			PoolID: poolID, Bettor: req.Bettor, Side: side.String(),
		})
	})
	s.snapshot(r.Context(), poolID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) settlePool(w http.ResponseWriter, r *http.Request, poolID int64) {
	if !s.admin(w, r) {
		return
	}
	var req dto.SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	winner, err := commitment.ParseSide(req.Winner)
	if err != nil {
		http.Error(w, "winner must be 0 or 1", http.StatusBadRequest)
		return
	}

	if err := s.eng.SettlePool(r.Context(), poolID, winner); err != nil {
		s.fail(w, err)
		return
	}
	s.emit(r.Context(), func(ctx context.Context) error {
		return s.pub.PublishPoolSettled(ctx, events.PoolSettled{
			PoolID: poolID, Winner: winner.String(), ZkVerified: false,
		})
	})
	s.snapshot(r.Context(), poolID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) settlePoolZK(w http.ResponseWriter, r *http.Request, poolID int64) {
	if !s.admin(w, r) {
		return
	}
	var req dto.SettleZKRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	winner, err := commitment.ParseSide(req.Winner)
	if err != nil {
		http.Error(w, "winner must be 0 or 1", http.StatusBadRequest)
		return
	}
	vkID, ok := parseHex32(req.VkID)
	if !ok {
		http.Error(w, "vk_id must be 32 hex-encoded bytes", http.StatusBadRequest)
		return
	}
	proof, err := hex.DecodeString(req.Proof)
	if err != nil {
		http.Error(w, "proof must be hex-encoded", http.StatusBadRequest)
		return
	}

	if err := s.eng.SettlePoolZK(r.Context(), poolID, winner, vkID, proof); err != nil {
		s.fail(w, err)
		return
	}
	s.emit(r.Context(), func(ctx context.Context) error {
		return s.pub.PublishPoolSettled(ctx, events.PoolSettled{
			PoolID: poolID, Winner: winner.String(), ZkVerified: true,
		})
	})
	s.snapshot(r.Context(), poolID)
	w.WriteHeader(http.StatusNoContent)
}

// claimPayout likewise trusts the bettor named in the body. Payouts always go
// to that bettor's own ledger account, so a forged claim cannot redirect
// funds, but it can consume a forfeiting claim early; deployments that care
// must authenticate bettors at the gateway. admin-claim is this handler
// behind the operator token.
func (s *Server) claimPayout(w http.ResponseWriter, r *http.Request, poolID int64) {
	var req dto.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	payout, err := s.eng.ClaimPayout(r.Context(), poolID, req.Bettor)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.emit(r.Context(), func(ctx context.Context) error {
		return s.pub.PublishPayoutClaimed(ctx, events.PayoutClaimed{
			PoolID: poolID, Bettor: req.Bettor, Amount: payout,
		})
	})
	writeJSON(w, http.StatusOK, dto.ClaimResponse{PoolID: poolID, Bettor: req.Bettor, Payout: payout})
}

func (s *Server) refundPool(w http.ResponseWriter, r *http.Request, poolID int64) {
	if !s.admin(w, r) {
		return
	}
	if err := s.eng.RefundPool(r.Context(), poolID); err != nil {
		s.fail(w, err)
		return
	}
	p, err := s.eng.GetPool(r.Context(), poolID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.emit(r.Context(), func(ctx context.Context) error {
		return s.pub.PublishPoolRefunded(ctx, events.PoolRefunded{PoolID: poolID, BetCount: p.BetCount})
	})
	s.snapshot(r.Context(), poolID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) configureVerifier(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.admin(w, r) {
		return
	}
	var req dto.ConfigureVerifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	vkID, ok := parseHex32(req.VkID)
	if !ok {
		http.Error(w, "vk_id must be 32 hex-encoded bytes", http.StatusBadRequest)
		return
	}
	if err := s.eng.ConfigureVerifier(r.Context(), vkID); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.admin(w, r) {
		return
	}
	amount, err := s.eng.SweepTreasury(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.emit(r.Context(), func(ctx context.Context) error {
		return s.pub.PublishTreasurySwept(ctx, events.TreasurySwept{Amount: amount, Treasury: s.treasury})
	})
	writeJSON(w, http.StatusOK, dto.SweepResponse{Amount: amount})
}

func (s *Server) getPool(w http.ResponseWriter, r *http.Request, poolID int64) {
	if s.cache != nil {
		if p, err := s.cache.GetSnapshot(r.Context(), poolID); err == nil && p != nil {
			writeJSON(w, http.StatusOK, poolToDTO(p))
			return
		}
	}
	p, err := s.eng.GetPool(r.Context(), poolID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.snapshot(r.Context(), poolID)
	writeJSON(w, http.StatusOK, poolToDTO(p))
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request, poolID int64, bettor string) {
	b, err := s.eng.GetBet(r.Context(), poolID, bettor)
	if err != nil {
		s.fail(w, err)
		return
	}
	out := dto.BetResponse{
		PoolID:     b.PoolID,
		Bettor:     b.Bettor,
		Commitment: hex.EncodeToString(b.Commitment[:]),
		Amount:     b.Amount,
		FeePaid:    b.FeePaid,
		Revealed:   b.Revealed,
		Claimed:    b.Claimed,
	}
	if b.Side != nil {
		out.Side = b.Side.String()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) emit(ctx context.Context, publish func(context.Context) error) {
	if s.pub == nil {
		return
	}
	if err := publish(ctx); err != nil {
		s.log.Warn("event publish failed", zap.Error(err))
	}
}

func (s *Server) snapshot(ctx context.Context, poolID int64) {
	if s.cache == nil {
		return
	}
	p, err := s.eng.GetPool(ctx, poolID)
	if err != nil {
		return
	}
	if err := s.cache.SetSnapshot(ctx, p); err != nil {
		s.log.Warn("pool snapshot failed", zap.Error(err))
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), httpStatus(err))
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrPoolNotFound),
		errors.Is(err, store.ErrBetNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateBet),
		errors.Is(err, engine.ErrPoolNotOpen),
		errors.Is(err, engine.ErrPoolNotLocked),
		errors.Is(err, engine.ErrPoolNotSettled),
		errors.Is(err, engine.ErrPoolTerminal),
		errors.Is(err, engine.ErrAlreadyRevealed),
		errors.Is(err, engine.ErrAlreadyClaimed),
		errors.Is(err, engine.ErrDeadlinePassed),
		errors.Is(err, engine.ErrSweepTooSoon),
		errors.Is(err, engine.ErrNothingToSweep),
		errors.Is(err, engine.ErrVerifierNotConfigured):
		return http.StatusConflict
	case errors.Is(err, engine.ErrStakeTooSmall):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrCommitmentMismatch),
		errors.Is(err, engine.ErrNotWinner),
		errors.Is(err, engine.ErrNotRevealed),
		errors.Is(err, engine.ErrWrongVerificationKey),
		errors.Is(err, engine.ErrProofInvalid):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func poolToDTO(p *store.Pool) dto.PoolResponse {
	out := dto.PoolResponse{
		PoolID:       p.ID,
		MatchRef:     hex.EncodeToString(p.MatchRef[:]),
		Status:       p.Status.String(),
		Player1Total: p.Player1Total,
		Player2Total: p.Player2Total,
		TotalPool:    p.TotalPool,
		TotalFees:    p.TotalFees,
		BetCount:     p.BetCount,
		RevealCount:  p.RevealCount,
		Deadline:     p.Deadline,
	}
	if p.Winner != nil {
		out.Winner = p.Winner.String()
	}
	return out
}

func parseHex32(s string) ([32]byte, bool) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return out, false
	}
	copy(out[:], raw)
	return out, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
