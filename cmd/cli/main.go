package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/payflow/internal/adapter/http/dto"
	"github.com/iho/payflow/internal/infrastructure/config"
	"github.com/iho/payflow/internal/infrastructure/logger"
	"github.com/iho/payflow/internal/infrastructure/postgres"
	"github.com/iho/payflow/internal/usecase"
)

var (
	baseURL string
	timeout time.Duration
)

// migrate functions are swapped out in tests.
var (
	migrateUp   = postgres.RunMigrations
	migrateDown = postgres.RunMigrationsDown
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "payflow-cli",
		Short:         "Payflow CLI tool",
		Long:          `A command line interface for evaluating payment instructions locally or against a Payflow server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Payflow API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(processCmd(), submitCmd(), getCmd(), migrateCmd())

	return rootCmd
}

func processCmd() *cobra.Command {
	var instruction, accountsFile string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Evaluate an instruction in-process and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := loadInput(instruction, accountsFile)
			if err != nil {
				return err
			}

			uc := usecase.NewPaymentInstructionUseCase(zerolog.Nop())
			out := uc.ProcessInstruction(cmd.Context(), input)

			return printJSON(cmd.OutOrStdout(), dto.InstructionFromResult(out.Result))
		},
	}

	cmd.Flags().StringVar(&instruction, "instruction", "", "Instruction text")
	cmd.Flags().StringVar(&accountsFile, "accounts", "", "Path to a JSON file with the account snapshot")
	_ = cmd.MarkFlagRequired("instruction")
	_ = cmd.MarkFlagRequired("accounts")

	return cmd
}

func submitCmd() *cobra.Command {
	var instruction, accountsFile, idempotencyKey string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Send an instruction to a Payflow server",
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := readAccounts(accountsFile)
			if err != nil {
				return err
			}

			body, err := json.Marshal(map[string]any{
				"instruction": instruction,
				"accounts":    accounts,
			})
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, baseURL+"/payment-instructions", bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			if idempotencyKey != "" {
				req.Header.Set("Idempotency-Key", idempotencyKey)
			}

			return doRequest(cmd.OutOrStdout(), req, http.StatusOK, http.StatusBadRequest)
		},
	}

	cmd.Flags().StringVar(&instruction, "instruction", "", "Instruction text")
	cmd.Flags().StringVar(&accountsFile, "accounts", "", "Path to a JSON file with the account snapshot")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header value")
	_ = cmd.MarkFlagRequired("instruction")
	_ = cmd.MarkFlagRequired("accounts")

	return cmd
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a recorded instruction outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, baseURL+"/payment-instructions/"+url.PathEscape(args[0]), nil)
			if err != nil {
				return err
			}
			return doRequest(cmd.OutOrStdout(), req, http.StatusOK)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back the recording schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.RecordingEnabled() {
				return fmt.Errorf("DATABASE_URL is not set")
			}

			log := logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Format: "console"}, cmd.ErrOrStderr())

			if args[0] == "down" {
				return migrateDown(cfg.DatabaseURL, cfg.MigrationsPath, log)
			}
			return migrateUp(cfg.DatabaseURL, cfg.MigrationsPath, log)
		},
	}

	return cmd
}

// readAccounts loads the snapshot file as raw JSON so the server sees the
// caller's exact types.
func readAccounts(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("read accounts: %s is not valid JSON", path)
	}
	return json.RawMessage(data), nil
}

// loadInput applies the same shape checks as the HTTP endpoint.
func loadInput(instruction, accountsFile string) (usecase.ProcessInstructionInput, error) {
	accounts, err := readAccounts(accountsFile)
	if err != nil {
		return usecase.ProcessInstructionInput{}, err
	}

	req := dto.ProcessInstructionRequest{Instruction: &instruction}
	if err := json.Unmarshal(accounts, &req.Accounts); err != nil {
		return usecase.ProcessInstructionInput{}, fmt.Errorf("%w: accounts %v", dto.ErrInvalidRequest, err)
	}

	return req.ToUseCaseInput("")
}

func doRequest(w io.Writer, req *http.Request, accepted ...int) error {
	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	defer cancel()

	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if id := resp.Header.Get("X-Instruction-ID"); id != "" {
		fmt.Fprintf(w, "instruction id: %s\n", id)
	}

	ok := false
	for _, code := range accepted {
		if resp.StatusCode == code {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(strings.TrimSpace(string(body)), 200))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		_, err = w.Write(body)
		return err
	}
	pretty.WriteByte('\n')
	_, err = pretty.WriteTo(w)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
