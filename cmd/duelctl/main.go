// duelctl inspects and drives the duel contract from the command line, and
// prints the local results journal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/milk9111/goldrush/config"
	"github.com/milk9111/goldrush/duel"
	"github.com/milk9111/goldrush/duel/ethledger"
	"github.com/milk9111/goldrush/store"
)

const usage = `usage: duelctl [flags] <command> [args]

commands:
  list [-open]          list duels
  create <stake>        create a duel staking <stake> tokens
  join <id>             join duel <id>
  submit <id> <addr>    report <addr> as the winner of duel <id>
  balance               show token balance and allowance
  approve <amount>      approve the duel contract to spend <amount> tokens
  history [n]           show the last n recorded rounds
`

func main() {
	envFile := flag.String("env", ".env", "environment file to load")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		config.SetupLogging(zerolog.InfoLevel, true, os.Stderr)
		log.Fatal().Err(err).Msg("failed to load config")
	}
	level := cfg.LogLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	config.SetupLogging(level, true, os.Stderr)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(context.Background(), cfg, args, os.Stdout); err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("duelctl failed")
	}
}

func run(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	cmd, rest := args[0], args[1:]
	if cmd == "history" {
		return history(ctx, cfg, rest, out)
	}

	if !cfg.LedgerConfigured() {
		return fmt.Errorf("%s, %s and %s must be set", config.EnvRPCURL, config.EnvPrivateKey, config.EnvDuelAddress)
	}
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	l, err := ethledger.Dial(dialCtx, cfg.Ledger())
	cancel()
	if err != nil {
		return err
	}
	defer l.Close()
	log.Debug().Str("account", l.Address()).Msg("connected")

	switch cmd {
	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		openOnly := fs.Bool("open", false, "only duels waiting for an opponent")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		duels, err := duel.Duels(ctx, l)
		if err != nil {
			return err
		}
		if *openOnly {
			duels = duel.Open(duels)
		}
		return printDuels(out, duels)

	case "create":
		if len(rest) != 1 {
			return fmt.Errorf("create takes one argument")
		}
		stake, err := duel.ParseAmount(rest[0])
		if err != nil {
			return err
		}
		id, err := l.CreateDuel(ctx, stake)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created duel %d\n", id)
		return nil

	case "join":
		if len(rest) != 1 {
			return fmt.Errorf("join takes one argument")
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		if err := l.JoinDuel(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(out, "joined duel %d\n", id)
		return nil

	case "submit":
		if len(rest) != 2 {
			return fmt.Errorf("submit takes two arguments")
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		if err := l.SubmitWinner(ctx, id, rest[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "submitted winner of duel %d\n", id)
		return nil

	case "balance":
		bal, err := l.Balance(ctx)
		if err != nil {
			return err
		}
		allowance, err := l.Allowance(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "account:   %s\nbalance:   %s\nallowance: %s\n", l.Address(), duel.FormatAmount(bal), duel.FormatAmount(allowance))
		return nil

	case "approve":
		if len(rest) != 1 {
			return fmt.Errorf("approve takes one argument")
		}
		amount, err := duel.ParseAmount(rest[0])
		if err != nil {
			return err
		}
		if err := l.Approve(ctx, amount); err != nil {
			return err
		}
		fmt.Fprintf(out, "approved %s\n", duel.FormatAmount(amount))
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid duel id %q", s)
	}
	return id, nil
}

func printDuels(out io.Writer, duels []duel.Duel) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLAYER 1\tPLAYER 2\tSTAKE\tSTATE\tWINNER")
	for _, d := range duels {
		p2, winner := "-", "-"
		if d.HasOpponent() {
			p2 = d.Player2
		}
		if d.HasWinner() {
			winner = d.Winner
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", d.ID, d.Player1, p2, duel.FormatAmount(d.Stake), d.State, winner)
	}
	return tw.Flush()
}

func history(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	n := 10
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return fmt.Errorf("invalid count %q", args[0])
		}
		n = v
	}

	j, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer j.Close()

	results, err := j.Recent(ctx, n)
	if err != nil {
		return err
	}
	best, ok, err := j.Best(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FINISHED\tSCORE\tDUEL\tSUBMITTED")
	for _, r := range results {
		duelID := "-"
		if r.DuelID != 0 {
			duelID = strconv.FormatUint(r.DuelID, 10)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%t\n", r.FinishedAt.Local().Format(time.DateTime), r.Score, duelID, r.Submitted)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(out, "best: %d\n", best.Score)
	}
	return nil
}
