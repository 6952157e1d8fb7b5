package main

import (
	"context"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/rs/zerolog/log"

	"github.com/milk9111/goldrush/duel"
	"github.com/milk9111/goldrush/engine"
	"github.com/milk9111/goldrush/prefabs"
	"github.com/milk9111/goldrush/session"
	"github.com/milk9111/goldrush/store"
)

const (
	pollInterval = 3 * time.Second
	recentRounds = 5
)

var defaultBackground = color.NRGBA{R: 0xf8, G: 0xf8, B: 0xe8, A: 0xff}

type asyncResult struct {
	op  string
	err error
}

type GameOptions struct {
	Tuning     prefabs.Tuning
	TuningName string
	Debug      bool
	Seed       uint64

	// Ledger is nil in practice mode.
	Ledger  duel.Ledger
	Journal *store.Journal
	Watcher *prefabs.TuningWatcher
}

type Game struct {
	frames int
	debug  bool

	tuning     prefabs.Tuning
	tuningName string

	session  *session.Controller
	keyboard *Keyboard
	lobby    *LobbyUI
	clip     *Clipboard

	flow    *duel.Flow
	journal *store.Journal
	watcher *prefabs.TuningWatcher
	recent  []store.Result

	ctx      context.Context
	cancel   context.CancelFunc
	results  chan asyncResult
	polling  bool
	lastPoll time.Time
	fetching bool
}

func NewGame(opts GameOptions) *Game {
	ctx, cancel := context.WithCancel(context.Background())
	g := &Game{
		debug:      opts.Debug,
		tuning:     opts.Tuning,
		tuningName: opts.TuningName,
		keyboard:   NewKeyboard(),
		clip:       NewClipboard(),
		journal:    opts.Journal,
		watcher:    opts.Watcher,
		ctx:        ctx,
		cancel:     cancel,
		results:    make(chan asyncResult, 8),
	}
	if opts.Ledger != nil {
		g.flow = duel.NewFlow(opts.Ledger)
	}

	var engineOpts []engine.Option
	if opts.Seed != 0 {
		engineOpts = append(engineOpts, engine.WithSeed(opts.Seed))
	}
	g.session = session.NewController(opts.Tuning, g, engineOpts...)

	w, h := g.size()
	g.lobby = NewLobbyUI(w, h, LobbyActions{
		Play:    g.play,
		Create:  g.createDuel,
		Join:    g.joinDuel,
		Approve: g.approve,
		Copy:    g.copyDuelID,
		Paste:   g.paste,
		Leave:   g.leaveDuel,
		Submit:  g.submitWinner,
	})
	g.loadRecent()
	g.refreshWallet()
	g.refreshLobby()
	return g
}

func (g *Game) size() (int, int) {
	return int(g.tuning.Playfield.Width), int(g.tuning.Playfield.Height)
}

func (g *Game) Update() error {
	g.frames++

	g.drainWatcher()
	g.drainResults()
	g.pollDuel()

	if g.session.Playing() {
		for _, action := range g.keyboard.Poll() {
			g.session.HandleInput(action)
		}
	}
	g.session.Update()

	if !g.roundInProgress() {
		g.refreshLobby()
		g.lobby.UI.Update()
	}
	return nil
}

// roundInProgress is true from Start until the round reports its score.
func (g *Game) roundInProgress() bool {
	return g.session.Phase() == session.PhaseRunning
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.session.Engine().Tuning().Playfield.Background.OrDefault(defaultBackground))
	g.session.Draw(screenSurface{dst: screen})

	if !g.roundInProgress() {
		g.lobby.UI.Draw(screen)
	}

	if g.debug {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Frames: %d    FPS: %.2f    TPS: %.2f", g.frames, ebiten.ActualFPS(), ebiten.ActualTPS()), 0, g.debugLine(0))
		eng := g.session.Engine()
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Session: %s    Rounds: %d    Pieces: %d/%d/%d    Ending: %t    Tuning: %s",
			g.session.Phase(), g.session.Rounds(), len(eng.Collectibles()), eng.Spawned(), eng.Escaped(), eng.Ending(), g.tuningName), 0, g.debugLine(1))
	}
}

func (g *Game) debugLine(i int) int {
	_, h := g.size()
	return h - 32 + 16*i
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return g.tuning.Playfield.Width, g.tuning.Playfield.Height
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}

// RoundEnded implements session.Reporter.
func (g *Game) RoundEnded(score int) {
	var duelID uint64
	player := ""
	if g.flow != nil {
		v := g.flow.View()
		if v.Phase == duel.PhasePlaying {
			duelID = v.DuelID
			g.flow.GameEnded(score)
		}
		player = v.Account
	}

	if g.journal != nil {
		if _, err := g.journal.Record(g.ctx, store.Result{DuelID: duelID, Player: player, Score: score}); err != nil {
			log.Error().Err(err).Msg("failed to record round")
		}
		g.loadRecent()
	}
	g.refreshLobby()
}

func (g *Game) play() {
	if g.flow != nil && g.flow.Phase() != duel.PhasePlaying {
		return
	}
	g.session.Start()
}

func (g *Game) loadRecent() {
	if g.journal == nil {
		return
	}
	recent, err := g.journal.Recent(g.ctx, recentRounds)
	if err != nil {
		log.Error().Err(err).Msg("failed to read recent rounds")
		return
	}
	g.recent = recent
}

func (g *Game) refreshLobby() {
	var fv *duel.View
	if g.flow != nil {
		v := g.flow.View()
		fv = &v
	}
	g.lobby.Apply(buildLobby(g.session.Phase(), g.session.LastScore(), fv, g.recent))
}

// async runs a ledger call off the frame loop and reports back through
// results, which Update drains.
func (g *Game) async(op string, fn func(ctx context.Context) error) {
	go func() {
		err := fn(g.ctx)
		select {
		case g.results <- asyncResult{op: op, err: err}:
		case <-g.ctx.Done():
		}
	}()
}

func (g *Game) drainResults() {
	for {
		select {
		case res := <-g.results:
			g.handleResult(res)
		default:
			return
		}
	}
}

func (g *Game) handleResult(res asyncResult) {
	switch res.op {
	case "refresh":
		g.polling = false
	case "wallet":
		g.fetching = false
	}
	if res.err != nil {
		log.Warn().Err(res.err).Str("op", res.op).Msg("duel call failed")
		return
	}
	switch res.op {
	case "create", "join", "approve", "submit":
		g.refreshWallet()
	}
	if res.op == "submit" && g.journal != nil {
		if _, err := g.journal.MarkSubmitted(g.ctx, g.flow.DuelID()); err != nil {
			log.Error().Err(err).Msg("failed to mark round submitted")
		}
		g.loadRecent()
	}
}

// pollDuel refreshes the active duel while waiting for an opponent.
func (g *Game) pollDuel() {
	if g.flow == nil || g.polling || g.flow.Phase() != duel.PhaseWaiting {
		return
	}
	if time.Since(g.lastPoll) < pollInterval {
		return
	}
	g.polling = true
	g.lastPoll = time.Now()
	g.async("refresh", func(ctx context.Context) error {
		_, err := g.flow.Refresh(ctx)
		return err
	})
}

// refreshWallet reloads the balance, allowance and open duels shown in the
// lobby.
func (g *Game) refreshWallet() {
	if g.flow == nil || g.fetching {
		return
	}
	g.fetching = true
	g.async("wallet", func(ctx context.Context) error {
		_, err := g.flow.RefreshWallet(ctx)
		return err
	})
}

func (g *Game) createDuel(stake string) {
	if g.flow == nil {
		return
	}
	g.async("create", func(ctx context.Context) error { return g.flow.Create(ctx, stake) })
}

func (g *Game) joinDuel(idText string) {
	if g.flow == nil {
		return
	}
	id, err := strconv.ParseUint(strings.TrimSpace(idText), 10, 64)
	if err != nil {
		id = 0
	}
	g.async("join", func(ctx context.Context) error { return g.flow.Join(ctx, id) })
}

func (g *Game) approve(amount string) {
	if g.flow == nil {
		return
	}
	g.async("approve", func(ctx context.Context) error { return g.flow.Approve(ctx, amount) })
}

func (g *Game) submitWinner() {
	if g.flow == nil {
		return
	}
	g.async("submit", func(ctx context.Context) error { return g.flow.SubmitWinner(ctx) })
}

func (g *Game) leaveDuel() {
	if g.flow == nil {
		return
	}
	g.flow.Leave()
	g.refreshWallet()
}

func (g *Game) copyDuelID() {
	if g.flow == nil || g.flow.DuelID() == 0 {
		return
	}
	if err := g.clip.Copy(strconv.FormatUint(g.flow.DuelID(), 10)); err != nil {
		log.Warn().Err(err).Msg("copy duel id")
	}
}

func (g *Game) paste() string {
	s, err := g.clip.Paste()
	if err != nil {
		log.Warn().Err(err).Msg("paste")
		return ""
	}
	return strings.TrimSpace(s)
}

// drainWatcher applies tuning reloads. The new values apply from the next
// round; a file that fails to validate or resizes the playfield leaves the
// current tuning in place.
func (g *Game) drainWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case r, ok := <-g.watcher.Reloads:
			if !ok {
				g.watcher = nil
				return
			}
			if r.Err != nil {
				log.Error().Err(r.Err).Str("file", r.Path).Msg("tuning reload failed")
				continue
			}
			if err := g.tuning.CheckReload(r.Tuning); err != nil {
				log.Warn().Err(err).Str("file", r.Path).Msg("tuning reload ignored")
				continue
			}
			g.session.ApplyTuning(r.Tuning)
			log.Info().Str("file", r.Path).Str("tuning", r.Tuning.Name).Msg("tuning reloaded")
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return
			}
			log.Warn().Err(err).Msg("tuning watcher")
		default:
			return
		}
	}
}

// Close stops background work and the round. It does not close the journal,
// watcher or ledger, which belong to the caller.
func (g *Game) Close() {
	g.cancel()
	g.session.Close()
}

var _ session.Reporter = (*Game)(nil)
