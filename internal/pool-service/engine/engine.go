package engine

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veilstar/wager-platform/internal/pool-service/store"
	"github.com/veilstar/wager-platform/pkg/commitment"
	"github.com/veilstar/wager-platform/pkg/fees"
)

var (
	ErrPoolNotOpen           = errors.New("pool is not open for bets")
	ErrPoolNotLocked         = errors.New("pool is not locked")
	ErrPoolNotSettled        = errors.New("pool is not settled")
	ErrPoolTerminal          = errors.New("pool already reached a terminal state")
	ErrDeadlinePassed        = errors.New("betting deadline has passed")
	ErrStakeTooSmall         = errors.New("stake below minimum")
	ErrAlreadyRevealed       = errors.New("bet already revealed")
	ErrNotRevealed           = errors.New("bet was never revealed")
	ErrCommitmentMismatch    = errors.New("reveal does not match commitment")
	ErrNotWinner             = errors.New("bet did not back the winning side")
	ErrAlreadyClaimed        = errors.New("payout already claimed")
	ErrProofInvalid          = errors.New("settlement proof rejected")
	ErrWrongVerificationKey  = errors.New("verification key does not match configured key")
	ErrVerifierNotConfigured = errors.New("no verification key configured")
	ErrSweepTooSoon          = errors.New("sweep interval has not elapsed")
	ErrNothingToSweep        = errors.New("no fees accrued")
)

// Ledger moves funds between accounts. ref deduplicates retries.
type Ledger interface {
	Transfer(ctx context.Context, from, to string, amount int64, ref string) error
	Balance(ctx context.Context, account string) (int64, error)
}

// Verifier checks a settlement proof against the configured key.
type Verifier interface {
	VerifyProof(ctx context.Context, vkID [32]byte, proof []byte, publicInputs [][32]byte) (bool, error)
}

type Config struct {
	MinStake        int64
	Schedule        fees.Schedule
	EscrowAccount   string
	TreasuryAccount string
	SweepInterval   time.Duration
}

// Engine runs the pool lifecycle. Every mutating operation serializes on a
// per-pool lock and performs its ledger or verifier call before touching
// stored state, so a failed external call leaves the pool untouched.
type Engine struct {
	log      *zap.Logger
	store    store.Store
	ledger   Ledger
	verifier Verifier
	cfg      Config
	now      func() time.Time

	mu    sync.Mutex
	locks map[int64]*sync.Mutex

	platformMu sync.Mutex
}

func New(log *zap.Logger, st store.Store, ledger Ledger, verifier Verifier, cfg Config) *Engine {
	return &Engine{
		log:      log,
		store:    st,
		ledger:   ledger,
		verifier: verifier,
		cfg:      cfg,
		now:      time.Now,
		locks:    make(map[int64]*sync.Mutex),
	}
}

func (e *Engine) lockPool(id int64) func() {
	e.mu.Lock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// CreatePool opens a new pool over matchRef. deadline is a unix timestamp
// after which commits are refused; 0 disables the cutoff.
func (e *Engine) CreatePool(ctx context.Context, matchRef [32]byte, deadline int64) (int64, error) {
	p := &store.Pool{MatchRef: matchRef, Status: store.StatusOpen, Deadline: deadline}
	id, err := e.store.CreatePool(ctx, p)
	if err != nil {
		return 0, err
	}
	e.log.Info("pool created", zap.Int64("pool_id", id), zap.Int64("deadline", deadline))
	return id, nil
}

// CommitBet escrows amount plus the betting fee and records the hidden
// commitment. One bet per bettor per pool.
func (e *Engine) CommitBet(ctx context.Context, poolID int64, bettor string, comm [32]byte, amount int64) (int64, error) {
	unlock := e.lockPool(poolID)
	defer unlock()

	p, err := e.store.GetPool(ctx, poolID)
	if err != nil {
		return 0, err
	}
	if p.Status != store.StatusOpen {
		return 0, ErrPoolNotOpen
	}
	if p.Deadline != 0 && e.now().Unix() > p.Deadline {
		return 0, ErrDeadlinePassed
	}
	if amount < e.cfg.MinStake {
		return 0, ErrStakeTooSmall
	}
	if _, err := e.store.GetBet(ctx, poolID, bettor); err == nil {
		return 0, store.ErrDuplicateBet
	} else if !errors.Is(err, store.ErrBetNotFound) {
		return 0, err
	}

	fee := e.cfg.Schedule.Fee(amount)
	ref := fmt.Sprintf("pool:%d:commit:%s", poolID, bettor)
	if err := e.ledger.Transfer(ctx, bettor, e.cfg.EscrowAccount, amount+fee, ref); err != nil {
		return 0, fmt.Errorf("escrow stake: %w", err)
	}

	if err := e.store.InsertBet(ctx, &store.BetCommit{
		PoolID:     poolID,
		Bettor:     bettor,
		Commitment: comm,
		Amount:     amount,
		FeePaid:    fee,
	}); err != nil {
		return 0, err
	}

	p.TotalPool += amount
	p.TotalFees += fee
	p.BetCount++
	if err := e.store.PutPool(ctx, p); err != nil {
		return 0, err
	}

	e.log.Info("bet committed",
		zap.Int64("pool_id", poolID),
		zap.String("bettor", bettor),
		zap.Int64("amount", amount),
		zap.Int64("fee", fee))
	return fee, nil
}

// LockPool closes the pool to new bets and opens the reveal phase.
func (e *Engine) LockPool(ctx context.Context, poolID int64) error {
	unlock := e.lockPool(poolID)
	defer unlock()

	p, err := e.store.GetPool(ctx, poolID)
	if err != nil {
		return err
	}
	if p.Status != store.StatusOpen {
		if p.Status.Terminal() {
			return ErrPoolTerminal
		}
		return ErrPoolNotOpen
	}
	p.Status = store.StatusLocked
	if err := e.store.PutPool(ctx, p); err != nil {
		return err
	}
	e.log.Info("pool locked", zap.Int64("pool_id", poolID))
	return nil
}

// RevealBet opens a commitment. The revealed side and salt must hash back to
// the stored commitment; a mismatch leaves the bet unrevealed.
func (e *Engine) RevealBet(ctx context.Context, poolID int64, bettor string, side commitment.Side, salt [32]byte) error {
	unlock := e.lockPool(poolID)
	defer unlock()

	p, err := e.store.GetPool(ctx, poolID)
	if err != nil {
		return err
	}
	if p.Status != store.StatusLocked {
		return ErrPoolNotLocked
	}
	b, err := e.store.GetBet(ctx, poolID, bettor)
	if err != nil {
		return err
	}
	if b.Revealed {
		return ErrAlreadyRevealed
	}
	if !commitment.Open(b.Commitment, side, salt) {
		return ErrCommitmentMismatch
	}

	b.Revealed = true
	b.Side = &side
	if err := e.store.PutBet(ctx, b); err != nil {
		return err
	}

	switch side {
	case commitment.SidePlayer1:
		p.Player1Total += b.Amount
	case commitment.SidePlayer2:
		p.Player2Total += b.Amount
	}
	p.RevealCount++
	if err := e.store.PutPool(ctx, p); err != nil {
		return err
	}

	e.log.Info("bet revealed",
		zap.Int64("pool_id", poolID),
		zap.String("bettor", bettor),
		zap.String("side", side.String()))
	return nil
}

// SettlePool records the winning side directly, trusting the caller. Settling
// does not require a prior lock; only terminal pools are rejected. Settlement
// moves the pool's collected fees into the platform accrual.
func (e *Engine) SettlePool(ctx context.Context, poolID int64, winner commitment.Side) error {
	unlock := e.lockPool(poolID)
	defer unlock()
	return e.settleLocked(ctx, poolID, winner)
}

// SettlePoolZK settles only if the configured verifier accepts the proof for
// exactly this pool, match and winner. The claimed outcome is bound into the
// public inputs, so a proof for one pool cannot settle another.
func (e *Engine) SettlePoolZK(ctx context.Context, poolID int64, winner commitment.Side, vkID [32]byte, proof []byte) error {
	unlock := e.lockPool(poolID)
	defer unlock()

	p, err := e.store.GetPool(ctx, poolID)
	if err != nil {
		return err
	}
	if p.Status.Terminal() {
		return ErrPoolTerminal
	}

	plat, err := e.store.GetPlatform(ctx)
	if err != nil {
		return err
	}
	if len(plat.VerifierVkID) != 32 {
		return ErrVerifierNotConfigured
	}
	if !bytes.Equal(vkID[:], plat.VerifierVkID) {
		return ErrWrongVerificationKey
	}

	ok, err := e.verifier.VerifyProof(ctx, vkID, proof, SettlementInputs(p.MatchRef, poolID, winner))
	if err != nil {
		return fmt.Errorf("verify settlement proof: %w", err)
	}
	if !ok {
		return ErrProofInvalid
	}
	return e.settleLocked(ctx, poolID, winner)
}

func (e *Engine) settleLocked(ctx context.Context, poolID int64, winner commitment.Side) error {
	p, err := e.store.GetPool(ctx, poolID)
	if err != nil {
		return err
	}
	if p.Status.Terminal() {
		return ErrPoolTerminal
	}
	p.Status = store.StatusSettled
	p.Winner = &winner
	if err := e.store.PutPool(ctx, p); err != nil {
		return err
	}
	if p.TotalFees > 0 {
		if err := e.accrueFees(ctx, p.TotalFees); err != nil {
			return err
		}
	}
	e.log.Info("pool settled",
		zap.Int64("pool_id", poolID),
		zap.String("winner", winner.String()))
	return nil
}

// SettlementInputs builds the public input layout the settlement circuit
// commits to: the match reference, the pool id and the winning side, each
// widened to a 32 byte big-endian word.
func SettlementInputs(matchRef [32]byte, poolID int64, winner commitment.Side) [][32]byte {
	var idWord, sideWord [32]byte
	binary.BigEndian.PutUint64(idWord[24:], uint64(poolID))
	sideWord[31] = byte(winner)
	return [][32]byte{matchRef, idWord, sideWord}
}

// ClaimPayout pays a revealed winning bet double its stake. Unrevealed and
// losing stakes stay in escrow and are forfeited; a forfeiting claim is still
// consumed, so the bettor cannot claim again.
func (e *Engine) ClaimPayout(ctx context.Context, poolID int64, bettor string) (int64, error) {
	unlock := e.lockPool(poolID)
	defer unlock()

	p, err := e.store.GetPool(ctx, poolID)
	if err != nil {
		return 0, err
	}
	if p.Status != store.StatusSettled {
		return 0, ErrPoolNotSettled
	}
	b, err := e.store.GetBet(ctx, poolID, bettor)
	if err != nil {
		return 0, err
	}
	if b.Claimed {
		return 0, ErrAlreadyClaimed
	}
	if !b.Revealed {
		b.Claimed = true
		if err := e.store.PutBet(ctx, b); err != nil {
			return 0, err
		}
		return 0, ErrNotRevealed
	}
	if p.Winner == nil || *b.Side != *p.Winner {
		b.Claimed = true
		if err := e.store.PutBet(ctx, b); err != nil {
			return 0, err
		}
		return 0, ErrNotWinner
	}

	payout := 2 * b.Amount
	ref := fmt.Sprintf("pool:%d:payout:%s", poolID, bettor)
	if err := e.ledger.Transfer(ctx, e.cfg.EscrowAccount, bettor, payout, ref); err != nil {
		return 0, fmt.Errorf("pay out: %w", err)
	}

	b.Claimed = true
	if err := e.store.PutBet(ctx, b); err != nil {
		return 0, err
	}
	e.log.Info("payout claimed",
		zap.Int64("pool_id", poolID),
		zap.String("bettor", bettor),
		zap.Int64("payout", payout))
	return payout, nil
}

// RefundPool cancels a non-terminal pool and returns every outstanding stake
// together with the fee paid on it. Nothing is accrued from a refunded pool.
func (e *Engine) RefundPool(ctx context.Context, poolID int64) error {
	unlock := e.lockPool(poolID)
	defer unlock()

	p, err := e.store.GetPool(ctx, poolID)
	if err != nil {
		return err
	}
	if p.Status.Terminal() {
		return ErrPoolTerminal
	}

	bets, err := e.store.ListBets(ctx, poolID)
	if err != nil {
		return err
	}
	for _, b := range bets {
		if b.Claimed {
			continue
		}
		ref := fmt.Sprintf("pool:%d:refund:%s", poolID, b.Bettor)
		if err := e.ledger.Transfer(ctx, e.cfg.EscrowAccount, b.Bettor, b.Amount+b.FeePaid, ref); err != nil {
			return fmt.Errorf("refund %s: %w", b.Bettor, err)
		}
		b.Claimed = true
		if err := e.store.PutBet(ctx, b); err != nil {
			return err
		}
	}

	p.Status = store.StatusRefunded
	if err := e.store.PutPool(ctx, p); err != nil {
		return err
	}
	e.log.Info("pool refunded", zap.Int64("pool_id", poolID), zap.Int("bets", len(bets)))
	return nil
}

// ConfigureVerifier pins the verification key id used for zk settlement.
func (e *Engine) ConfigureVerifier(ctx context.Context, vkID [32]byte) error {
	e.platformMu.Lock()
	defer e.platformMu.Unlock()

	plat, err := e.store.GetPlatform(ctx)
	if err != nil {
		return err
	}
	plat.VerifierVkID = append([]byte(nil), vkID[:]...)
	if err := e.store.PutPlatform(ctx, plat); err != nil {
		return err
	}
	e.log.Info("verifier configured", zap.Binary("vk_id", vkID[:4]))
	return nil
}

// SweepTreasury moves accrued fees from escrow to the treasury account, at
// most once per configured interval.
func (e *Engine) SweepTreasury(ctx context.Context) (int64, error) {
	e.platformMu.Lock()
	defer e.platformMu.Unlock()

	plat, err := e.store.GetPlatform(ctx)
	if err != nil {
		return 0, err
	}
	now := e.now()
	if plat.LastSweep != 0 && now.Sub(time.Unix(plat.LastSweep, 0)) < e.cfg.SweepInterval {
		return 0, ErrSweepTooSoon
	}
	if plat.FeeAccrued <= 0 {
		return 0, ErrNothingToSweep
	}

	amount := plat.FeeAccrued
	ref := fmt.Sprintf("sweep:%d", now.Unix())
	if err := e.ledger.Transfer(ctx, e.cfg.EscrowAccount, e.cfg.TreasuryAccount, amount, ref); err != nil {
		return 0, fmt.Errorf("sweep fees: %w", err)
	}

	plat.FeeAccrued = 0
	plat.LastSweep = now.Unix()
	if err := e.store.PutPlatform(ctx, plat); err != nil {
		return 0, err
	}
	e.log.Info("treasury swept", zap.Int64("amount", amount))
	return amount, nil
}

func (e *Engine) accrueFees(ctx context.Context, fee int64) error {
	e.platformMu.Lock()
	defer e.platformMu.Unlock()

	plat, err := e.store.GetPlatform(ctx)
	if err != nil {
		return err
	}
	plat.FeeAccrued += fee
	return e.store.PutPlatform(ctx, plat)
}

func (e *Engine) GetPool(ctx context.Context, poolID int64) (*store.Pool, error) {
	return e.store.GetPool(ctx, poolID)
}

func (e *Engine) GetBet(ctx context.Context, poolID int64, bettor string) (*store.BetCommit, error) {
	return e.store.GetBet(ctx, poolID, bettor)
}

func (e *Engine) Platform(ctx context.Context) (*store.PlatformState, error) {
	return e.store.GetPlatform(ctx)
}
