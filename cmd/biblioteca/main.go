package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"biblioteca/pkg/apiclient"
	"biblioteca/pkg/circuitbreaker"
	"biblioteca/pkg/config"
	"biblioteca/pkg/healthcheck"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type services struct {
	cfg     *config.Config
	client  *apiclient.Client
	checker *healthcheck.Checker
}

func setup(stderr io.Writer) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	opts := []apiclient.Option{
		apiclient.WithMaxAttempts(cfg.API.MaxAttempts),
		apiclient.WithAttemptTimeout(cfg.API.AttemptTimeout),
		apiclient.WithRetryDelay(cfg.API.RetryDelay),
		apiclient.WithLogger(logger),
	}
	if cfg.Breaker.Enabled() {
		cb := circuitbreaker.New(cfg.Breaker.MaxFailures, cfg.Breaker.ResetTimeout,
			circuitbreaker.WithStateChange(func(from, to circuitbreaker.State) {
				logger.Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
			}))
		opts = append(opts, apiclient.WithCircuitBreaker(cb))
	}
	client := apiclient.New(cfg.API.BaseURL, opts...)

	checker := healthcheck.New(client, healthcheck.Options{
		Timeout:    cfg.Health.Timeout,
		RequireAll: cfg.Health.RequireAll,
		Logger:     logger,
	})
	return &services{cfg: cfg, client: client, checker: checker}, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var skipHealth, force bool

	root := &cobra.Command{
		Use:           "biblioteca",
		Short:         "Gerenciamento de biblioteca: membros, livros e empréstimos",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := setup(stderr)
			if err != nil {
				cmd.PrintErrln("Erro:", err)
				return err
			}
			ctx := cmd.Context()
			in := bufio.NewScanner(stdin)

			if !skipHealth {
				err := startupCheck(ctx, svc.checker, in, stdout, svc.client.BaseURL(), isTerminal(stdin), force)
				if err != nil {
					cmd.PrintErrln(err)
					return err
				}
			}

			m := &menu{
				in:      in,
				out:     stdout,
				members: apiclient.NewMembers(svc.client),
				books:   apiclient.NewBooks(svc.client),
				loans:   apiclient.NewLoans(svc.client),
			}
			return m.Run(ctx)
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.Flags().BoolVar(&skipHealth, "skip-health", false, "não verificar a API antes de abrir o menu")
	root.Flags().BoolVarP(&force, "force", "f", false, "abrir o menu mesmo com a API indisponível")

	root.AddCommand(newHealthCmd(stdout, stderr))
	return root
}

func newHealthCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Verifica os endpoints da API e sai com status 1 se a verificação falhar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := setup(stderr)
			if err != nil {
				cmd.PrintErrln("Erro:", err)
				return err
			}
			res := svc.checker.Check(cmd.Context())
			printHealth(stdout, res)
			if !res.OK {
				return errAborted
			}
			return nil
		},
	}
}
