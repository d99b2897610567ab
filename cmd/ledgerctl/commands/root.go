// Package commands implements ledgerctl, a client that runs the submit and
// disclose workflows against a ledger server and an oracle.
package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"cipherledger/internal/authz"
	"cipherledger/internal/ciphertext"
	"cipherledger/internal/disclosure"
	"cipherledger/internal/gateway"
	"cipherledger/internal/ledger/client"
	"cipherledger/internal/orchestrator"
	"cipherledger/internal/platform/config"
	"cipherledger/internal/platform/logger"
	id "cipherledger/pkg/domain"
	"cipherledger/pkg/platform/circuit"
)

var (
	ledgerURL  string
	gatewayURL string
	oracleURLs []string
	identity   string
	assumeYes  bool
	verbose    bool

	app *App
)

// App holds what the commands share.
type App struct {
	Orchestrator *orchestrator.Orchestrator
	Ledger       *client.Client
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Submit encrypted records and request their disclosure",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			app, err = newApp(cmd, cfg)
			return err
		},
	}

	root.PersistentFlags().StringVar(&ledgerURL, "ledger", "", "ledger base URL (default $LEDGER_URL)")
	root.PersistentFlags().StringVar(&gatewayURL, "gateway", "", "encryption relayer URL (default $GATEWAY_URL or the first oracle)")
	root.PersistentFlags().StringSliceVar(&oracleURLs, "oracle", nil, "decryption oracle URLs (default $ORACLE_URLS)")
	root.PersistentFlags().StringVarP(&identity, "identity", "i", "", "caller identity, for example a wallet address")
	root.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "authorize ledger actions without prompting")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log workflow details")

	root.AddCommand(submitCmd(), discloseCmd(), listCmd(), showCmd(), keygenCmd())
	return root
}

func newApp(cmd *cobra.Command, cfg config.Server) (*App, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), level)

	if ledgerURL == "" {
		ledgerURL = cfg.Orchestrator.LedgerURL
	}
	if len(oracleURLs) == 0 {
		oracleURLs = cfg.Orchestrator.OracleURLs
	}
	if gatewayURL == "" {
		gatewayURL = cfg.Orchestrator.GatewayURL
	}
	if gatewayURL == "" && len(oracleURLs) > 0 {
		gatewayURL = oracleURLs[0]
	}
	if gatewayURL == "" {
		return nil, fmt.Errorf("no gateway URL configured")
	}

	ledger := client.New(ledgerURL)
	tokens := authz.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer)
	approve := authz.ApproveAll
	if !assumeYes {
		approve = prompt(cmd.InOrStdin(), cmd.ErrOrStderr())
	}

	orch := orchestrator.New(
		gateway.NewRemote(gatewayURL,
			gateway.WithBreaker(circuit.New("gateway")),
			gateway.WithLogger(log),
		),
		ledger,
		disclosure.NewRequester(oracleURLs, disclosure.WithTimeout(cfg.Orchestrator.ProofTimeout)),
		authz.NewTokenAuthorizer(tokens, cfg.Auth.TokenTTL, approve),
		ciphertext.Context{ChainID: cfg.Ledger.ChainID, LedgerAddress: cfg.Ledger.LedgerAddress},
		orchestrator.WithIdentity(id.Identity(identity)),
		orchestrator.WithMaxAttempts(cfg.Orchestrator.MaxAttempts),
		orchestrator.WithProofTimeout(cfg.Orchestrator.ProofTimeout),
		orchestrator.WithWorkflowTimeout(cfg.Orchestrator.WorkflowTimeout),
		orchestrator.WithLogger(log),
		orchestrator.WithObserver(progress(cmd.ErrOrStderr())),
	)
	return &App{Orchestrator: orch, Ledger: ledger}, nil
}

// prompt asks on the terminal before each ledger action.
func prompt(in io.Reader, out io.Writer) authz.Approver {
	reader := bufio.NewReader(in)
	return func(_ context.Context, caller id.Identity, action string) bool {
		fmt.Fprintf(out, "Authorize %s as %s? [y/N] ", action, caller)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

func progress(out io.Writer) orchestrator.StateObserver {
	return orchestrator.ObserverFunc(func(_ context.Context, t orchestrator.Transition) {
		switch t.To {
		case orchestrator.StateAwaitingExternalProof:
			fmt.Fprintf(out, "%s: waiting for decryption proof...\n", t.RecordID)
		case orchestrator.StateFailed:
			fmt.Fprintf(out, "%s: %s failed\n", t.RecordID, t.Workflow)
		default:
			if verbose {
				fmt.Fprintf(out, "%s: %s -> %s\n", t.RecordID, t.From, t.To)
			}
		}
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
