package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"arena-ledger/internal/auth"
	"arena-ledger/internal/config"
	"arena-ledger/internal/keys"
	"arena-ledger/internal/ledger"
	"arena-ledger/internal/models"

	"github.com/spf13/cobra"
)

// openerFunc returns a ledger for env plus a func releasing its store.
type openerFunc func(env string) (*ledger.Ledger, *config.Config, func(), error)

type cli struct {
	open     openerFunc
	env      string
	identity string
	timeout  time.Duration
}

func newRootCmd(open openerFunc) *cobra.Command {
	c := &cli{open: open}

	rootCmd := &cobra.Command{
		Use:           "arenactl",
		Short:         "Operate the arena ledger",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&c.env, "env", config.GetEnv(), "Config environment (configs/config.<env>.json)")
	rootCmd.PersistentFlags().StringVar(&c.identity, "as", "", "Caller identity for write commands")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 30*time.Second, "Per-command timeout")

	rootCmd.AddCommand(c.initCmd(), c.registerCmd(), c.battleCmd(), c.betCmd(),
		c.leaderboardCmd(), c.oddsCmd(), c.tokenCmd())
	return rootCmd
}

// run opens the ledger and calls fn with a bounded context.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, l *ledger.Ledger, cfg *config.Config) (any, error)) error {
	l, cfg, closeFn, err := c.open(c.env)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	out, err := fn(ctx, l, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", ledger.Code(err), err)
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func (c *cli) caller() (models.Identity, error) {
	if c.identity == "" {
		return "", errors.New("--as is required for write commands")
	}
	return models.Identity(c.identity), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the arena registry with the caller as administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, l *ledger.Ledger, _ *config.Config) (any, error) {
				return l.InitializeRegistry(ctx, caller)
			})
		},
	}
}

func (c *cli) registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <external-id> <name>",
		Short: "Register an agent owned by the caller",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, l *ledger.Ledger, _ *config.Config) (any, error) {
				return l.RegisterAgent(ctx, caller, args[1], args[0])
			})
		},
	}
}

func (c *cli) battleCmd() *cobra.Command {
	var (
		battleType      string
		winner          string
		challengerScore uint32
		defenderScore   uint32
		rounds          uint8
	)
	cmd := &cobra.Command{
		Use:   "battle <battle-id> <challenger> <defender>",
		Short: "Record a finished battle between two agents",
		Long:  "Agents are given by external id or hex location.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return err
			}
			bt, err := models.ParseBattleType(battleType)
			if err != nil {
				return err
			}
			side, err := models.ParseWinnerSide(winner)
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, l *ledger.Ledger, _ *config.Config) (any, error) {
				return l.RecordBattle(ctx, caller, ledger.BattleParams{
					BattleID:        args[0],
					BattleType:      bt,
					WinnerSide:      side,
					ChallengerScore: challengerScore,
					DefenderScore:   defenderScore,
					Rounds:          rounds,
					Challenger:      keys.AgentRef(args[1]),
					Defender:        keys.AgentRef(args[2]),
				})
			})
		},
	}
	cmd.Flags().StringVar(&battleType, "type", string(models.BattleTypeReasoning), "Battle type (reasoning, debate, speed, strategy)")
	cmd.Flags().StringVar(&winner, "winner", "", "Winner side (challenger, defender, draw)")
	cmd.Flags().Uint32Var(&challengerScore, "challenger-score", 0, "Challenger score")
	cmd.Flags().Uint32Var(&defenderScore, "defender-score", 0, "Defender score")
	cmd.Flags().Uint8Var(&rounds, "rounds", 0, "Rounds fought")
	_ = cmd.MarkFlagRequired("winner")
	return cmd
}

func (c *cli) betCmd() *cobra.Command {
	var amount uint64
	cmd := &cobra.Command{
		Use:   "bet <battle-id> <predicted-winner>",
		Short: "Place the caller's bet on a battle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := c.caller()
			if err != nil {
				return err
			}
			if amount == 0 {
				return errors.New("--amount must be positive")
			}
			predicted := models.Identity(keys.AgentRef(args[1]))
			return c.run(cmd, func(ctx context.Context, l *ledger.Ledger, _ *config.Config) (any, error) {
				return l.PlaceBet(ctx, caller, args[0], predicted, amount)
			})
		},
	}
	cmd.Flags().Uint64Var(&amount, "amount", 0, "Wager in the smallest currency unit")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (c *cli) leaderboardCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show agents by rating",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, l *ledger.Ledger, _ *config.Config) (any, error) {
				return l.Leaderboard(ctx, limit)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", ledger.DefaultLeaderboardLimit, "Number of agents to show (max 100)")
	return cmd
}

func (c *cli) oddsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "odds <battle-id>",
		Short: "Quote current odds for a battle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, l *ledger.Ledger, _ *config.Config) (any, error) {
				return l.Odds(ctx, args[0])
			})
		},
	}
}

func (c *cli) tokenCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "token <identity>",
		Short: "Mint a signed identity token for the HTTP API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(_ context.Context, _ *ledger.Ledger, cfg *config.Config) (any, error) {
				jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.TTL)*time.Minute)
				tok, err := jwtService.GenerateToken(models.Identity(args[0]), name)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"token":     tok,
					"identity":  args[0],
					"expiresAt": time.Now().Add(jwtService.TTL()).UTC().Format(time.RFC3339),
				}, nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name embedded in the token")
	return cmd
}
