// Package duel is the client side of the staked duel contract: the calls the
// game makes against it and the lobby flow built on top of them.
package duel

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrNoDuel        = errors.New("duel: no active duel")
	ErrNotConnected  = errors.New("duel: ledger not connected")
	ErrInvalidAmount = errors.New("duel: invalid amount")
	ErrBusy          = errors.New("duel: another call is in flight")
)

// ZeroAddress is what the contract reports for an empty player or winner slot.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// State mirrors the contract's duel state enum.
type State uint8

const (
	StateOpen State = iota
	StateJoined
	StateFinished
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "Open"
	case StateJoined:
		return "Joined"
	case StateFinished:
		return "Finished"
	case StateCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

type Duel struct {
	ID      uint64
	Player1 string
	Player2 string
	Stake   *big.Int
	Winner  string
	State   State
}

// HasOpponent reports whether a second player has joined.
func (d Duel) HasOpponent() bool {
	return !isZeroAddress(d.Player2)
}

func (d Duel) HasWinner() bool {
	return !isZeroAddress(d.Winner)
}

func isZeroAddress(a string) bool {
	return a == "" || strings.EqualFold(a, ZeroAddress)
}

// Ledger is the external call surface of the duel contract and its stake
// token. Write calls block until the transaction is mined.
type Ledger interface {
	// Address is the connected account.
	Address() string

	CreateDuel(ctx context.Context, stake *big.Int) (uint64, error)
	JoinDuel(ctx context.Context, id uint64) error
	SubmitWinner(ctx context.Context, id uint64, winner string) error
	Duel(ctx context.Context, id uint64) (Duel, error)
	DuelCount(ctx context.Context) (uint64, error)

	Balance(ctx context.Context) (*big.Int, error)
	Allowance(ctx context.Context) (*big.Int, error)
	Approve(ctx context.Context, amount *big.Int) error
}

// Duels lists every duel the contract knows about, oldest first.
func Duels(ctx context.Context, l Ledger) ([]Duel, error) {
	if l == nil {
		return nil, ErrNotConnected
	}
	n, err := l.DuelCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("duel: count: %w", err)
	}
	out := make([]Duel, 0, n)
	for id := uint64(1); id <= n; id++ {
		d, err := l.Duel(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("duel: read %d: %w", id, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Open filters duels waiting for a second player.
func Open(duels []Duel) []Duel {
	var out []Duel
	for _, d := range duels {
		if d.State == StateOpen && !d.HasOpponent() {
			out = append(out, d)
		}
	}
	return out
}
