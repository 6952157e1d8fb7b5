package duel

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Phase is where the local player is in a duel.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseWaiting
	PhasePlaying
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseWaiting:
		return "waiting"
	case PhasePlaying:
		return "playing"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// View is a consistent copy of the flow's state for drawing.
type View struct {
	Phase     Phase
	DuelID    uint64
	Status    string
	Score     int
	HasScore  bool
	Submitted bool
	Busy      bool
	Account   string

	// Wallet is zero until the first successful RefreshWallet.
	Wallet    Wallet
	HasWallet bool
}

// Wallet is the connected account's stake token position and the duels it
// could join.
type Wallet struct {
	Balance   string
	Allowance string
	OpenDuels []uint64
}

// Flow walks the local player through creating or joining a duel, playing,
// and claiming the win. Calls block on the ledger; hosts run them off the
// frame loop. The flow is safe for concurrent use.
type Flow struct {
	ledger Ledger

	mu        sync.Mutex
	phase     Phase
	duelID    uint64
	status    string
	score     int
	hasScore  bool
	submitted bool
	busy      bool
	wallet    Wallet
	hasWallet bool
}

func NewFlow(l Ledger) *Flow {
	return &Flow{ledger: l}
}

func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := View{
		Phase:     f.phase,
		DuelID:    f.duelID,
		Status:    f.status,
		Score:     f.score,
		HasScore:  f.hasScore,
		Submitted: f.submitted,
		Busy:      f.busy,
		Wallet:    f.wallet,
		HasWallet: f.hasWallet,
	}
	v.Wallet.OpenDuels = append([]uint64(nil), f.wallet.OpenDuels...)
	if f.ledger != nil {
		v.Account = f.ledger.Address()
	}
	return v
}

func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

func (f *Flow) Status() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *Flow) DuelID() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duelID
}

// begin marks a call in flight and shows its pending status.
func (f *Flow) begin(pending string) error {
	if f.ledger == nil {
		return ErrNotConnected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return ErrBusy
	}
	f.busy = true
	f.status = pending
	return nil
}

// fail records err as status text and leaves the phase alone.
func (f *Flow) fail(op string, err error) error {
	f.mu.Lock()
	f.busy = false
	f.status = "Error: " + err.Error()
	f.mu.Unlock()
	log.Error().Err(err).Str("op", op).Msg("duel call failed")
	return fmt.Errorf("duel: %s: %w", op, err)
}

// Create opens a new duel with the given stake and waits for an opponent.
func (f *Flow) Create(ctx context.Context, stake string) error {
	amount, err := ParseAmount(stake)
	if err != nil {
		f.setStatus("Error: " + err.Error())
		return err
	}
	if err := f.begin("Creating duel..."); err != nil {
		return err
	}

	id, err := f.ledger.CreateDuel(ctx, amount)
	if err != nil {
		return f.fail("create", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	f.duelID = id
	f.phase = PhaseWaiting
	f.resetRound()
	f.status = "Duel created!"
	log.Info().Uint64("duel", id).Str("stake", FormatAmount(amount)).Msg("duel created")
	return nil
}

// Join enters an existing duel; the round can start immediately.
func (f *Flow) Join(ctx context.Context, id uint64) error {
	if id == 0 {
		f.setStatus("Error: " + ErrNoDuel.Error())
		return ErrNoDuel
	}
	if err := f.begin("Joining duel..."); err != nil {
		return err
	}

	if err := f.ledger.JoinDuel(ctx, id); err != nil {
		return f.fail("join", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	f.duelID = id
	f.phase = PhasePlaying
	f.resetRound()
	f.status = "Joined duel!"
	log.Info().Uint64("duel", id).Msg("duel joined")
	return nil
}

// Refresh polls the active duel and follows its on-chain state.
func (f *Flow) Refresh(ctx context.Context) (Duel, error) {
	if f.ledger == nil {
		return Duel{}, ErrNotConnected
	}
	id := f.DuelID()
	if id == 0 {
		return Duel{}, ErrNoDuel
	}

	d, err := f.ledger.Duel(ctx, id)
	if err != nil {
		return Duel{}, fmt.Errorf("duel: refresh %d: %w", id, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.duelID != id {
		return d, nil
	}
	switch {
	case d.State == StateJoined && d.HasOpponent() && f.phase == PhaseWaiting:
		f.phase = PhasePlaying
		f.status = "Opponent joined!"
	case d.State == StateFinished && f.phase != PhaseFinished:
		f.phase = PhaseFinished
	case d.State == StateCancelled:
		f.phase = PhaseLobby
		f.duelID = 0
		f.status = "Duel cancelled"
	}
	return d, nil
}

// RefreshWallet reads the token balance, the allowance granted to the duel
// contract and the open duels. It does not touch the phase or the status.
func (f *Flow) RefreshWallet(ctx context.Context) (Wallet, error) {
	if f.ledger == nil {
		return Wallet{}, ErrNotConnected
	}
	bal, err := f.ledger.Balance(ctx)
	if err != nil {
		return Wallet{}, fmt.Errorf("duel: balance: %w", err)
	}
	allowance, err := f.ledger.Allowance(ctx)
	if err != nil {
		return Wallet{}, fmt.Errorf("duel: allowance: %w", err)
	}
	duels, err := Duels(ctx, f.ledger)
	if err != nil {
		return Wallet{}, err
	}

	w := Wallet{Balance: FormatAmount(bal), Allowance: FormatAmount(allowance)}
	for _, d := range Open(duels) {
		if d.Player1 != f.ledger.Address() {
			w.OpenDuels = append(w.OpenDuels, d.ID)
		}
	}

	f.mu.Lock()
	f.wallet = w
	f.hasWallet = true
	f.mu.Unlock()
	return w, nil
}

// GameEnded records the local round's final score.
func (f *Flow) GameEnded(score int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.score = score
	f.hasScore = true
	f.phase = PhaseFinished
}

// SubmitWinner claims the active duel for the connected account.
func (f *Flow) SubmitWinner(ctx context.Context) error {
	id := f.DuelID()
	if id == 0 {
		return ErrNoDuel
	}
	if err := f.begin("Submitting winner..."); err != nil {
		return err
	}

	if err := f.ledger.SubmitWinner(ctx, id, f.ledger.Address()); err != nil {
		return f.fail("submit winner", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	f.submitted = true
	f.status = "Winner submitted!"
	log.Info().Uint64("duel", id).Int("score", f.score).Msg("winner submitted")
	return nil
}

// Approve lets the duel contract pull up to amount of the stake token.
func (f *Flow) Approve(ctx context.Context, amount string) error {
	v, err := ParseAmount(amount)
	if err != nil {
		f.setStatus("Error: " + err.Error())
		return err
	}
	if err := f.begin("Approving token..."); err != nil {
		return err
	}

	if err := f.ledger.Approve(ctx, v); err != nil {
		return f.fail("approve", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	f.status = "Token approved!"
	return nil
}

// Leave drops the active duel and returns to the lobby.
func (f *Flow) Leave() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phase = PhaseLobby
	f.duelID = 0
	f.resetRound()
	f.status = ""
}

func (f *Flow) setStatus(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

// resetRound clears per-duel results. Callers hold mu.
func (f *Flow) resetRound() {
	f.score = 0
	f.hasScore = false
	f.submitted = false
}
