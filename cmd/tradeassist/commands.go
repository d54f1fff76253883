package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alanyoungcy/tradeassist/internal/digest"
	"github.com/alanyoungcy/tradeassist/internal/domain"
	"github.com/alanyoungcy/tradeassist/internal/service"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.app.Run(cmd.Context())
		},
	}
}

func newPositionsCmd(opts *rootOptions) *cobra.Command {
	var profitable bool

	cmd := &cobra.Command{
		Use:   "positions",
		Short: "List open positions with live unrealized PnL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := opts.app.Dependencies(cmd.Context())
			if err != nil {
				return err
			}
			positions, err := deps.Trading.OpenPositions(cmd.Context(), opts.resolveTarget(deps))
			if err != nil {
				return err
			}

			if profitable {
				kept := positions[:0]
				for _, p := range positions {
					if p.UnrealizedPnL.Positive() {
						kept = append(kept, p)
					}
				}
				positions = kept
				if opts.digest {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), digest.Profitable(positions))
					return err
				}
			}

			if opts.digest {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), digest.Positions(positions))
				return err
			}
			return printJSON(cmd.OutOrStdout(), positions)
		},
	}
	cmd.Flags().BoolVar(&profitable, "profitable", false, "only positions currently in profit")
	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the most recent closed trades",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := opts.app.Dependencies(cmd.Context())
			if err != nil {
				return err
			}
			trades, err := deps.Trading.TradeHistory(cmd.Context(), opts.resolveTarget(deps), limit)
			if err != nil {
				return err
			}
			if opts.digest {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), digest.Trades(trades))
				return err
			}
			return printJSON(cmd.OutOrStdout(), trades)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", service.DefaultHistoryLimit, "maximum number of trades")
	return cmd
}

func newQueryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql> [params...]",
		Short: "Run a read-only SELECT against the positions database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := opts.app.Dependencies(cmd.Context())
			if err != nil {
				return err
			}

			params := make([]any, 0, len(args)-1)
			for _, p := range args[1:] {
				params = append(params, p)
			}

			rows, err := deps.Trading.RunAnalyticalQuery(cmd.Context(), opts.resolveTarget(deps), args[0], params...)
			if err != nil {
				return err
			}

			budget := digest.Budget{
				Limit:         opts.cfg.Analysis.TokenLimit,
				CharsPerToken: opts.cfg.Analysis.CharsPerToken,
			}
			tokens, fits, err := budget.Fits(rows)
			if err != nil {
				return err
			}
			if !fits {
				return fmt.Errorf("result is estimated at %d tokens, above the limit of %d", tokens, budget.Limit)
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
}

func newPriceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "price <symbol>",
		Short: "Resolve the current price of a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := opts.app.Dependencies(cmd.Context())
			if err != nil {
				return err
			}
			q, ok := deps.Prices.Resolve(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrUnresolved, args[0])
			}
			if opts.digest {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %v (%s)\n", q.Symbol, q.Price, q.Source)
				return err
			}
			return printJSON(cmd.OutOrStdout(), q)
		},
	}
}

func newSnapshotCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <symbol>",
		Short: "Fetch spot, 24h and DEX market data for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := opts.app.Dependencies(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := deps.Market.Snapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !snap.HasData() {
				return errors.New("no market data found for " + args[0])
			}
			return printJSON(cmd.OutOrStdout(), snap)
		},
	}
}
