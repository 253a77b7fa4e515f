package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bufl/ledger/internal/adapter/http/dto"
	postgresRepo "github.com/bufl/ledger/internal/adapter/repository/postgres"
	"github.com/bufl/ledger/internal/infrastructure/config"
	"github.com/bufl/ledger/internal/infrastructure/postgres"
	"github.com/bufl/ledger/internal/usecase"
)

func main() {
	// Missing .env is fine; flags and the environment still apply.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	baseURL string
	userID  string
	timeout time.Duration
}

func (o *rootOptions) client() *apiClient {
	return newAPIClient(o.baseURL, o.userID, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "ledger-cli",
		Short:         "Ledger CLI tool",
		Long:          `A command line interface for the salary-split ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("LEDGER_URL", "http://localhost:8080"), "Base URL of the ledger API")
	rootCmd.PersistentFlags().StringVar(&opts.userID, "user", os.Getenv("LEDGER_USER_ID"), "User ID sent as X-User-ID")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		ledgerCmd(opts),
		scheduleCmd(opts),
		salaryCmd(opts),
		goalCmd(opts),
	)

	return rootCmd
}

func ledgerCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.ConsistencyResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/ledger/consistency", nil, &report); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !report.Consistent {
				fmt.Fprintf(out, "Consistency check FAILED\n")
				printJSON(out, report)
				return fmt.Errorf("ledger is inconsistent")
			}

			fmt.Fprintf(out, "Consistency check PASSED\n")
			fmt.Fprintf(out, "Accounts: %d\n", report.AccountCount)
			fmt.Fprintf(out, "Total balance: %d\n", report.TotalBalance)
			return nil
		},
	})

	cmd.AddCommand(reconcileCmd())

	return cmd
}

// reconcileCmd replays every account straight from the database. It needs
// DATABASE_URL rather than the API.
func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Replay every account log against its stored balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			recon := usecase.NewReconciliationUseCase(
				postgresRepo.NewAccountRepository(pool),
				postgresRepo.NewEntryRepository(pool),
				postgresRepo.NewLedgerRepository(pool),
			)

			report, err := recon.GenerateReconciliationReport(ctx)
			if err != nil {
				return err
			}

			return printReconciliation(cmd.OutOrStdout(), report)
		},
	}
}

func printReconciliation(out io.Writer, report *usecase.ReconciliationReport) error {
	fmt.Fprintf(out, "Accounts reconciled: %d/%d\n", report.ReconciledAccounts, report.TotalAccounts)
	for _, d := range report.Discrepancies {
		fmt.Fprintf(out, "  %s recorded=%d calculated=%d diff=%d\n",
			d.AccountID, d.RecordedBalance, d.CalculatedBalance, d.Difference)
	}

	if !report.LedgerConsistent || len(report.Discrepancies) > 0 {
		return fmt.Errorf("reconciliation found %d discrepancies", len(report.Discrepancies))
	}

	fmt.Fprintln(out, "Ledger consistent")
	return nil
}

func scheduleCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Scheduled transfer operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status <id>",
		Short: "Show a scheduled transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var st dto.ScheduleResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/schedules/"+args[0], nil, &st); err != nil {
				return err
			}
			printSchedule(cmd.OutOrStdout(), &st)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a pending scheduled transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var st dto.ScheduleResponse
			if err := opts.client().do(cmd.Context(), http.MethodDelete, "/api/v1/schedules/"+args[0], nil, &st); err != nil {
				return err
			}
			printSchedule(cmd.OutOrStdout(), &st)
			return nil
		},
	})

	return cmd
}

func salaryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "salary",
		Short: "Salary operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "split",
		Short: "Schedule the salary split into linked category accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var schedules []dto.ScheduleResponse
			if err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/salary/split", nil, &schedules); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scheduled %d transfers\n", len(schedules))
			for i := range schedules {
				printSchedule(out, &schedules[i])
			}
			return nil
		},
	})

	return cmd
}

func goalCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Savings goal operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "contribute <goal-id> <amount>",
		Short: "Contribute to a goal now (amount in minor units)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || amount <= 0 {
				return fmt.Errorf("invalid amount %q", args[1])
			}

			var result dto.ContributionResponse
			if err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/goals/"+args[0]+"/contributions",
				dto.ContributeRequest{Amount: amount}, &result); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Goal %s: %d/%d\n",
				result.Goal.ID, result.Goal.CurrentAmount, result.Goal.TargetAmount)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "transactions <goal-id>",
		Short: "List the entries written by a goal's contributions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []dto.EntryResponse
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/goals/"+args[0]+"/transactions", nil, &entries); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%6d %-26s %-3s %10d  %s -> %s\n",
					e.Sequence, truncate(e.TransferID, 26), e.Direction, e.Amount, e.FromAccountNumber, e.ToAccountNumber)
			}
			return nil
		},
	})

	return cmd
}

func printSchedule(out io.Writer, st *dto.ScheduleResponse) {
	fmt.Fprintf(out, "%-26s %-10s %10d  %s -> %s  %s\n",
		truncate(st.ID, 26), st.Status, st.Amount, st.FromAccountID, st.ToAccountID, st.FireAt.Format(time.RFC3339))
	if st.FailureReason != "" {
		fmt.Fprintf(out, "  reason: %s\n", st.FailureReason)
	}
}

func printJSON(out io.Writer, v any) {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
