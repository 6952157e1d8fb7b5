package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/milk9111/goldrush/duel"
	"github.com/milk9111/goldrush/session"
	"github.com/milk9111/goldrush/store"
)

// lobbyState is what the overlay shows between rounds.
type lobbyState struct {
	Title     string
	Info      string
	Status    string
	History   string
	PlayLabel string

	ShowPlay    bool
	ShowForms   bool // create, join and approve
	ShowCopy    bool
	ShowLeave   bool
	ShowSubmit  bool
	Interactive bool
}

// buildLobby derives the overlay from the session and, in duel mode, the
// duel flow. fv is nil in practice mode.
func buildLobby(phase session.Phase, lastScore int, fv *duel.View, recent []store.Result) lobbyState {
	st := lobbyState{
		Title:       "Gold Rush",
		PlayLabel:   "Start Game",
		Interactive: true,
		History:     formatHistory(recent),
	}
	if phase == session.PhaseEnded {
		st.PlayLabel = "Play Again"
		st.Info = fmt.Sprintf("Final Score: %d", lastScore)
	}

	if fv == nil {
		st.ShowPlay = true
		return st
	}

	st.Title = "Gold Rush Duel"
	st.Status = fv.Status
	st.Interactive = !fv.Busy

	switch fv.Phase {
	case duel.PhaseLobby:
		st.ShowForms = true
		st.Info = walletInfo(fv)
	case duel.PhaseWaiting:
		st.Info = fmt.Sprintf("Waiting for opponent... Duel ID: %d", fv.DuelID)
		st.ShowCopy = true
		st.ShowLeave = true
	case duel.PhasePlaying:
		st.Info = fmt.Sprintf("Duel %d: play your round", fv.DuelID)
		st.PlayLabel = "Start Game"
		st.ShowPlay = true
		st.ShowCopy = true
	case duel.PhaseFinished:
		if fv.HasScore {
			st.Info = fmt.Sprintf("Game over! Your score: %d", fv.Score)
		} else {
			st.Info = fmt.Sprintf("Duel %d is finished", fv.DuelID)
		}
		st.ShowSubmit = fv.HasScore && !fv.Submitted
		st.ShowLeave = true
	}
	return st
}

func walletInfo(fv *duel.View) string {
	var lines []string
	if fv.Account != "" {
		lines = append(lines, "Account: "+shortAddress(fv.Account))
	}
	if fv.HasWallet {
		lines = append(lines, fmt.Sprintf("Balance: %s    Allowance: %s", fv.Wallet.Balance, fv.Wallet.Allowance))
		if len(fv.Wallet.OpenDuels) == 0 {
			lines = append(lines, "Open duels: none")
		} else {
			ids := make([]string, len(fv.Wallet.OpenDuels))
			for i, id := range fv.Wallet.OpenDuels {
				ids[i] = strconv.FormatUint(id, 10)
			}
			lines = append(lines, "Open duels: "+strings.Join(ids, ", "))
		}
	}
	return strings.Join(lines, "\n")
}

func formatHistory(recent []store.Result) string {
	if len(recent) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Recent rounds:")
	for _, r := range recent {
		b.WriteString("\n  ")
		b.WriteString(r.FinishedAt.Format("Jan 2 15:04"))
		fmt.Fprintf(&b, "  score %d", r.Score)
		if r.DuelID != 0 {
			fmt.Fprintf(&b, "  duel %d", r.DuelID)
			if r.Submitted {
				b.WriteString(" (submitted)")
			}
		}
	}
	return b.String()
}

func shortAddress(a string) string {
	if len(a) <= 12 {
		return a
	}
	return a[:6] + "..." + a[len(a)-4:]
}
