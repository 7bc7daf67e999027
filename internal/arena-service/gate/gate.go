package gate

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veilstar/wager-platform/internal/arena-service/store"
	"github.com/veilstar/wager-platform/pkg/commitment"
	"github.com/veilstar/wager-platform/pkg/fees"
)

var (
	ErrMatchAlreadyEnded    = errors.New("match already ended")
	ErrNotPlayer            = errors.New("account is not a player in this match")
	ErrSlotTaken            = errors.New("slot already holds a different commitment")
	ErrOpenedMismatch       = errors.New("opened value does not match slot commitment")
	ErrWrongVerificationKey = errors.New("verification key does not match configured key")
	ErrProofInvalid         = errors.New("round proof rejected")
	ErrOutcomeMismatch      = errors.New("claimed winner does not match bound outcome")
	ErrRoundsUnverified     = errors.New("both sides need at least one verified round")
	ErrNothingToSweep       = errors.New("no fees accrued")
)

// Hub holds the players' stakes for the duration of a match.
type Hub interface {
	StartGame(ctx context.Context, matchRef [32]byte, player1, player2 string, stake int64) error
	EndGame(ctx context.Context, matchRef [32]byte, winner string) error
}

type Ledger interface {
	Transfer(ctx context.Context, from, to string, amount int64, ref string) error
	Balance(ctx context.Context, account string) (int64, error)
}

type Verifier interface {
	VerifyProof(ctx context.Context, vkID [32]byte, proof []byte, publicInputs [][32]byte) (bool, error)
}

type Config struct {
	MoveSchedule    fees.Schedule
	EscrowAccount   string
	TreasuryAccount string
}

// Gate runs gated matches: move micro-charges, per-slot commit and verify
// records, the strictly-once outcome binding and the hub-ordered finalize.
// Slot records are idempotent on identical resubmission; the outcome record
// is not, a second bind is always rejected.
type Gate struct {
	log      *zap.Logger
	store    store.Store
	ledger   Ledger
	verifier Verifier
	hub      Hub
	cfg      Config

	mu    sync.Mutex
	locks map[int64]*sync.Mutex

	gateMu sync.Mutex
}

func New(log *zap.Logger, st store.Store, ledger Ledger, verifier Verifier, hub Hub, cfg Config) *Gate {
	return &Gate{
		log:      log,
		store:    st,
		ledger:   ledger,
		verifier: verifier,
		hub:      hub,
		cfg:      cfg,
		locks:    make(map[int64]*sync.Mutex),
	}
}

func (g *Gate) lockSession(id int64) func() {
	g.mu.Lock()
	l, ok := g.locks[id]
	if !ok {
		l = &sync.Mutex{}
		g.locks[id] = l
	}
	g.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// StartMatch registers a session after the hub confirms it locked both
// stakes. A hub failure means no session exists.
func (g *Gate) StartMatch(ctx context.Context, ref [32]byte, player1, player2 string, stake int64, zkGated bool) (int64, error) {
	if err := g.hub.StartGame(ctx, ref, player1, player2, stake); err != nil {
		return 0, fmt.Errorf("hub start: %w", err)
	}
	id, err := g.store.InsertMatch(ctx, &store.Match{
		Ref:     ref,
		Player1: player1,
		Player2: player2,
		Stake:   stake,
		ZkGated: zkGated,
		Status:  store.MatchActive,
	})
	if err != nil {
		return 0, err
	}
	g.log.Info("match started",
		zap.Int64("session_id", id),
		zap.String("player1", player1),
		zap.String("player2", player2),
		zap.Bool("zk_gated", zkGated))
	return id, nil
}

// SubmitMove charges the per-move fee against the player's own funds and
// advances the move counter. The move payload itself lives with the hub.
func (g *Gate) SubmitMove(ctx context.Context, sessionID int64, player string) (fee int64, turn int, err error) {
	unlock := g.lockSession(sessionID)
	defer unlock()

	m, err := g.store.GetMatch(ctx, sessionID)
	if err != nil {
		return 0, 0, err
	}
	if m.Status != store.MatchActive {
		return 0, 0, ErrMatchAlreadyEnded
	}
	if player != m.Player1 && player != m.Player2 {
		return 0, 0, ErrNotPlayer
	}

	fee = g.cfg.MoveSchedule.Fee(m.Stake)
	if fee > 0 {
		ref := fmt.Sprintf("arena:%d:move:%d", sessionID, m.MoveCount)
		if err := g.ledger.Transfer(ctx, player, g.cfg.EscrowAccount, fee, ref); err != nil {
			return 0, 0, fmt.Errorf("charge move fee: %w", err)
		}
	}

	turn = m.MoveCount
	m.MoveCount++
	if err := g.store.PutMatch(ctx, m); err != nil {
		return 0, 0, err
	}
	return fee, turn, nil
}

// SubmitRoundCommit records a hidden commitment for one slot. Resubmitting
// the identical commitment reports created=false and changes nothing; a
// different commitment for an occupied slot is refused.
func (g *Gate) SubmitRoundCommit(ctx context.Context, key store.SlotKey, comm [32]byte) (created bool, err error) {
	unlock := g.lockSession(key.SessionID)
	defer unlock()

	m, err := g.store.GetMatch(ctx, key.SessionID)
	if err != nil {
		return false, err
	}
	if m.Status != store.MatchActive {
		return false, ErrMatchAlreadyEnded
	}

	existing, err := g.store.GetCommit(ctx, key)
	if err == nil {
		if existing.Commitment == comm {
			return false, nil
		}
		return false, ErrSlotTaken
	}
	if !errors.Is(err, store.ErrCommitNotFound) {
		return false, err
	}

	if err := g.store.PutCommit(ctx, &store.RoundCommit{Key: key, Commitment: comm}); err != nil {
		return false, err
	}
	return true, nil
}

// SubmitRoundVerification opens a slot's commitment and backs it with a
// proof. The opened value must equal the stored commitment and the verifier
// service must accept the proof before anything is recorded. A slot already
// verified reports created=false without re-running the proof.
func (g *Gate) SubmitRoundVerification(ctx context.Context, key store.SlotKey, verifierID string, opened [32]byte, vkID [32]byte, proof []byte) (created bool, err error) {
	unlock := g.lockSession(key.SessionID)
	defer unlock()

	m, err := g.store.GetMatch(ctx, key.SessionID)
	if err != nil {
		return false, err
	}
	if m.Status != store.MatchActive {
		return false, ErrMatchAlreadyEnded
	}

	c, err := g.store.GetCommit(ctx, key)
	if err != nil {
		return false, err
	}
	if c.Commitment != opened {
		return false, ErrOpenedMismatch
	}
	if err := g.checkVkID(ctx, vkID); err != nil {
		return false, err
	}

	if _, err := g.store.GetVerification(ctx, key); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrVerificationNotFound) {
		return false, err
	}

	ok, err := g.verifier.VerifyProof(ctx, vkID, proof, RoundInputs(m.Ref, key, opened))
	if err != nil {
		return false, fmt.Errorf("verify round proof: %w", err)
	}
	if !ok {
		return false, ErrProofInvalid
	}

	if err := g.store.PutVerification(ctx, &store.RoundVerification{
		Key: key, Opened: opened, Verifier: verifierID, VkID: vkID,
	}); err != nil {
		return false, err
	}
	g.log.Info("round verified",
		zap.Int64("session_id", key.SessionID),
		zap.Int("round", key.Round),
		zap.Int("turn", key.Turn),
		zap.String("side", key.Side.String()))
	return true, nil
}

// BindOutcome records the proven winner for a match, exactly once. A second
// bind is rejected even if it carries the same winner.
func (g *Gate) BindOutcome(ctx context.Context, sessionID int64, verifierID string, winner commitment.Side, vkID [32]byte, proof []byte) error {
	unlock := g.lockSession(sessionID)
	defer unlock()

	m, err := g.store.GetMatch(ctx, sessionID)
	if err != nil {
		return err
	}
	if m.Status != store.MatchActive {
		return ErrMatchAlreadyEnded
	}
	if err := g.checkVkID(ctx, vkID); err != nil {
		return err
	}

	ok, err := g.verifier.VerifyProof(ctx, vkID, proof, OutcomeInputs(m.Ref, winner))
	if err != nil {
		return fmt.Errorf("verify outcome proof: %w", err)
	}
	if !ok {
		return ErrProofInvalid
	}

	if err := g.store.InsertOutcome(ctx, &store.MatchOutcome{
		SessionID: sessionID,
		Winner:    winner,
		Verifier:  verifierID,
		VkID:      vkID,
	}); err != nil {
		return err
	}
	g.log.Info("outcome bound",
		zap.Int64("session_id", sessionID),
		zap.String("winner", winner.String()),
		zap.String("verifier", verifierID))
	return nil
}

// Finalize ends a match. In gated mode the claim must match the bound
// outcome and each side needs at least one verified slot. The hub releases
// the stakes first; only after it confirms does the match record close.
func (g *Gate) Finalize(ctx context.Context, sessionID int64, winnerClaim commitment.Side) error {
	unlock := g.lockSession(sessionID)
	defer unlock()

	m, err := g.store.GetMatch(ctx, sessionID)
	if err != nil {
		return err
	}
	if m.Status != store.MatchActive {
		return ErrMatchAlreadyEnded
	}

	if m.ZkGated {
		outcome, err := g.store.GetOutcome(ctx, sessionID)
		if err != nil {
			return err
		}
		if outcome.Winner != winnerClaim {
			return ErrOutcomeMismatch
		}
		bySide, err := g.store.VerifiedBySide(ctx, sessionID)
		if err != nil {
			return err
		}
		if bySide[uint8(commitment.SidePlayer1)] == 0 || bySide[uint8(commitment.SidePlayer2)] == 0 {
			return ErrRoundsUnverified
		}
	}

	winnerAccount := m.Player1
	if winnerClaim == commitment.SidePlayer2 {
		winnerAccount = m.Player2
	}
	if err := g.hub.EndGame(ctx, m.Ref, winnerAccount); err != nil {
		return fmt.Errorf("hub end: %w", err)
	}

	m.Status = store.MatchEnded
	m.Winner = &winnerClaim
	if err := g.store.PutMatch(ctx, m); err != nil {
		return err
	}
	g.log.Info("match ended",
		zap.Int64("session_id", sessionID),
		zap.String("winner", winnerAccount))
	return nil
}

// ConfigureVerifier pins the verification key id all submissions must carry.
func (g *Gate) ConfigureVerifier(ctx context.Context, vkID [32]byte) error {
	g.gateMu.Lock()
	defer g.gateMu.Unlock()

	st, err := g.store.GetGate(ctx)
	if err != nil {
		return err
	}
	st.VkID = append([]byte(nil), vkID[:]...)
	if err := g.store.PutGate(ctx, st); err != nil {
		return err
	}
	g.log.Info("verifier configured", zap.Binary("vk_id", vkID[:4]))
	return nil
}

// SweepTreasury drains the accumulated move fees to the treasury. The arena
// escrow holds nothing but fees, so the whole balance moves.
func (g *Gate) SweepTreasury(ctx context.Context) (int64, error) {
	g.gateMu.Lock()
	defer g.gateMu.Unlock()

	balance, err := g.ledger.Balance(ctx, g.cfg.EscrowAccount)
	if err != nil {
		return 0, err
	}
	if balance <= 0 {
		return 0, ErrNothingToSweep
	}
	ref := fmt.Sprintf("arena-sweep:%d", time.Now().UnixNano())
	if err := g.ledger.Transfer(ctx, g.cfg.EscrowAccount, g.cfg.TreasuryAccount, balance, ref); err != nil {
		return 0, fmt.Errorf("sweep fees: %w", err)
	}
	g.log.Info("treasury swept", zap.Int64("amount", balance))
	return balance, nil
}

func (g *Gate) GetMatch(ctx context.Context, sessionID int64) (*store.Match, error) {
	return g.store.GetMatch(ctx, sessionID)
}

func (g *Gate) checkVkID(ctx context.Context, vkID [32]byte) error {
	st, err := g.store.GetGate(ctx)
	if err != nil {
		return err
	}
	if st.VkID != nil && !bytes.Equal(st.VkID, vkID[:]) {
		return ErrWrongVerificationKey
	}
	return nil
}

// RoundInputs is the public input layout a round proof commits to: the match
// reference, the slot coordinates packed big-endian into one word, and the
// opened commitment.
func RoundInputs(matchRef [32]byte, key store.SlotKey, opened [32]byte) [][32]byte {
	var slotWord [32]byte
	binary.BigEndian.PutUint64(slotWord[8:], uint64(key.Round))
	binary.BigEndian.PutUint64(slotWord[16:], uint64(key.Turn))
	slotWord[31] = byte(key.Side)
	return [][32]byte{matchRef, slotWord, opened}
}

// OutcomeInputs is the public input layout an outcome proof commits to.
func OutcomeInputs(matchRef [32]byte, winner commitment.Side) [][32]byte {
	var sideWord [32]byte
	sideWord[31] = byte(winner)
	return [][32]byte{matchRef, sideWord}
}
