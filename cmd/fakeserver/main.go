package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/ruteri/tinycert-go/cmd/flags"
	"github.com/ruteri/tinycert-go/common"
	"github.com/ruteri/tinycert-go/httpserver"
	"github.com/urfave/cli/v2"
)

var listenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var apiKeyFlag = &cli.StringFlag{
	Name:     "api-key",
	EnvVars:  []string{"TINYCERT_API_KEY"},
	Required: true,
	Usage:    "API key that request digests are verified with",
}

var accountsFlag = &cli.StringSliceFlag{
	Name:     "account",
	EnvVars:  []string{"FAKESERVER_ACCOUNTS"},
	Required: true,
	Usage:    "account as email:passphrase (repeatable)",
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("could not load .env: %v", err)
	}

	app := &cli.App{
		Name:    "tinycert-fakeserver",
		Usage:   "Serve an in-memory TinyCert v1 API for local development and tests",
		Version: common.Version,
		Flags: append(append([]cli.Flag{
			listenAddrFlag,
			apiKeyFlag,
			accountsFlag,
			flags.LogServiceFlagFn("tinycert-fakeserver"),
		}, flags.LogFlags...), flags.ServerFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			handler := httpserver.NewHandler(cCtx.String(apiKeyFlag.Name), logger)
			for _, account := range cCtx.StringSlice(accountsFlag.Name) {
				email, passphrase, ok := strings.Cut(account, ":")
				if !ok || email == "" {
					return fmt.Errorf("invalid account %q, expected email:passphrase", account)
				}
				if err := handler.AddAccount(email, passphrase); err != nil {
					return err
				}
				logger.Info("Account registered", "account", email)
			}

			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(listenAddrFlag.Name))
			server := httpserver.New(cfg, handler)
			if err := server.RunInBackground(); err != nil {
				logger.Error("Failed to start server", "err", err)
				return err
			}

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
			<-exit

			server.Shutdown()
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
