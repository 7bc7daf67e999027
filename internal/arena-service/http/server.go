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

	"github.com/veilstar/wager-platform/internal/arena-service/dto"
	"github.com/veilstar/wager-platform/internal/arena-service/gate"
	"github.com/veilstar/wager-platform/internal/arena-service/store"
	"github.com/veilstar/wager-platform/pkg/commitment"
	"github.com/veilstar/wager-platform/pkg/contracts/events"
)

// Publisher emits arena lifecycle events, best effort.
type Publisher interface {
	PublishMatchStarted(ctx context.Context, e events.MatchStarted) error
	PublishMoveSubmitted(ctx context.Context, e events.MoveSubmitted) error
	PublishRoundCommitted(ctx context.Context, e events.RoundCommitted) error
	PublishRoundVerified(ctx context.Context, e events.RoundVerified) error
	PublishOutcomeBound(ctx context.Context, e events.OutcomeBound) error
	PublishMatchEnded(ctx context.Context, e events.MatchEnded) error
}

type Server struct {
	log        *zap.Logger
	gate       *gate.Gate
	pub        Publisher
	adminToken string
}

func NewServer(log *zap.Logger, g *gate.Gate, pub Publisher, adminToken string) *Server {
	return &Server{log: log, gate: g, pub: pub, adminToken: adminToken}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/matches", s.startMatch)               // POST (admin)
	mux.HandleFunc("/matches/", s.dispatchMatch)           // per-match operations
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

func (s *Server) dispatchMatch(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/matches/")
	parts := strings.Split(rest, "/")
	sessionID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "bad session id", http.StatusBadRequest)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.getMatch(w, r, sessionID)
	case len(parts) == 2 && r.Method == http.MethodPost:
		switch parts[1] {
		case "moves":
			s.submitMove(w, r, sessionID)
		case "round-commit":
			s.roundCommit(w, r, sessionID)
		case "round-verify":
			s.roundVerify(w, r, sessionID)
		case "outcome":
			s.bindOutcome(w, r, sessionID)
		case "finalize":
			s.finalize(w, r, sessionID)
		default:
			http.NotFound(w, r)
		}
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) startMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.admin(w, r) {
		return
	}
	var req dto.StartMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	ref, ok := parseHex32(req.MatchRef)
	if !ok {
		http.Error(w, "match_ref must be 32 hex-encoded bytes", http.StatusBadRequest)
		return
	}
	if req.Player1 == "" || req.Player2 == "" || req.Player1 == req.Player2 {
		http.Error(w, "two distinct players are required", http.StatusBadRequest)
		return
	}

	id, err := s.gate.StartMatch(r.Context(), ref, req.Player1, req.Player2, req.Stake, req.ZkGated)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.emit(r.Context(), func(ctx context.Context) error {
		return s.pub.PublishMatchStarted(ctx, events.MatchStarted{
			SessionID: id, Player1: req.Player1, Player2: req.Player2, ZkGated: req.ZkGated,
		})
	})
	writeJSON(w, http.StatusCreated, dto.StartMatchResponse{SessionID: id})
}

func (s *Server) submitMove(w http.ResponseWriter, r *http.Request, sessionID int64) {
	var req dto.SubmitMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	fee, turn, err := s.gate.SubmitMove(r.Context(), sessionID, req.Player)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.emit(r.Context(), func(ctx context.Context) error {
		return s.pub.PublishMoveSubmitted(ctx, events.MoveSubmitted{
			SessionID: sessionID, Player: req.Player, Move: req.Move, Turn: turn, Fee: fee,
		})
	})
	writeJSON(w, http.StatusOK, dto.SubmitMoveResponse{SessionID: sessionID, Turn: turn, Fee: fee})
}

func (s *Server) roundCommit(w http.ResponseWriter, r *http.Request, sessionID int64) {
	var req dto.RoundCommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	side, err := commitment.ParseSide(req.Side)
	if err != nil {
		http.Error(w, "side must be 0 or 1", http.StatusBadRequest)
		return
	}
	comm, ok := parseHex32(req.Commitment)
	if !ok {
		http.Error(w, "commitment must be 32 hex-encoded bytes", http.StatusBadRequest)
		return
	}

	key := store.SlotKey{SessionID: sessionID, Round: req.Round, Turn: req.Turn, Side: side}
	created, err := s.gate.SubmitRoundCommit(r.Context(), key, comm)
	if err != nil {
		s.fail(w, err)
		return
	}
	if created {
		s.emit(r.Context(), func(ctx context.Context) error {
			return s.pub.PublishRoundCommitted(ctx, events.RoundCommitted{
				SessionID: sessionID, Round: req.Round, Turn: req.Turn, Side: side.String(),
			})
		})
	}
	writeJSON(w, http.StatusOK, dto.RoundCommitResponse{Created: created})
}

func (s *Server) roundVerify(w http.ResponseWriter, r *http.Request, sessionID int64) {
	var req dto.RoundVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	side, err := commitment.ParseSide(req.Side)
	if err != nil {
		http.Error(w, "side must be 0 or 1", http.StatusBadRequest)
		return
	}
	opened, ok := parseHex32(req.Opened)
	if !ok {
		http.Error(w, "opened must be 32 hex-encoded bytes", http.StatusBadRequest)
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

	key := store.SlotKey{SessionID: sessionID, Round: req.Round, Turn: req.Turn, Side: side}
	created, err := s.gate.SubmitRoundVerification(r.Context(), key, req.Verifier, opened, vkID, proof)
	if err != nil {
		s.fail(w, err)
		return
	}
	if created {
		s.emit(r.Context(), func(ctx context.Context) error {
			return s.pub.PublishRoundVerified(ctx, events.RoundVerified{
				SessionID: sessionID, Round: req.Round, Turn: req.Turn,
				Side: side.String(), Verifier: req.Verifier,
			})
		})
	}
	writeJSON(w, http.StatusOK, dto.RoundVerifyResponse{Created: created})
}

func (s *Server) bindOutcome(w http.ResponseWriter, r *http.Request, sessionID int64) {
	var req dto.BindOutcomeRequest
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

	if err := s.gate.BindOutcome(r.Context(), sessionID, req.Verifier, winner, vkID, proof); err != nil {
		s.fail(w, err)
		return
	}
	s.emit(r.Context(), func(ctx context.Context) error {
		return s.pub.PublishOutcomeBound(ctx, events.OutcomeBound{
			SessionID: sessionID, Winner: winner.String(), Verifier: req.Verifier,
		})
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) finalize(w http.ResponseWriter, r *http.Request, sessionID int64) {
	if !s.admin(w, r) {
		return
	}
	var req dto.FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	winner, err := commitment.ParseSide(req.Winner)
	if err != nil {
		http.Error(w, "winner must be 0 or 1", http.StatusBadRequest)
		return
	}

	if err := s.gate.Finalize(r.Context(), sessionID, winner); err != nil {
		s.fail(w, err)
		return
	}
	s.emit(r.Context(), func(ctx context.Context) error {
		return s.pub.PublishMatchEnded(ctx, events.MatchEnded{
			SessionID: sessionID, Winner: winner.String(),
		})
	})
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
	if err := s.gate.ConfigureVerifier(r.Context(), vkID); err != nil {
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
	amount, err := s.gate.SweepTreasury(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SweepResponse{Amount: amount})
}

func (s *Server) getMatch(w http.ResponseWriter, r *http.Request, sessionID int64) {
	m, err := s.gate.GetMatch(r.Context(), sessionID)
	if err != nil {
		s.fail(w, err)
		return
	}
	out := dto.MatchResponse{
		SessionID: m.SessionID,
		MatchRef:  hex.EncodeToString(m.Ref[:]),
		Player1:   m.Player1,
		Player2:   m.Player2,
		Stake:     m.Stake,
		ZkGated:   m.ZkGated,
		Status:    m.Status.String(),
		MoveCount: m.MoveCount,
	}
	if m.Winner != nil {
		out.Winner = m.Winner.String()
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

func (s *Server) fail(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), httpStatus(err))
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrMatchNotFound),
		errors.Is(err, store.ErrCommitNotFound),
		errors.Is(err, store.ErrOutcomeNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrOutcomeAlreadyBound),
		errors.Is(err, gate.ErrMatchAlreadyEnded),
		errors.Is(err, gate.ErrSlotTaken),
		errors.Is(err, gate.ErrRoundsUnverified),
		errors.Is(err, gate.ErrNothingToSweep):
		return http.StatusConflict
	case errors.Is(err, gate.ErrNotPlayer):
		return http.StatusForbidden
	case errors.Is(err, gate.ErrOpenedMismatch),
		errors.Is(err, gate.ErrOutcomeMismatch),
		errors.Is(err, gate.ErrWrongVerificationKey),
		errors.Is(err, gate.ErrProofInvalid):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
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
