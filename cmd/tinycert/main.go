package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/ruteri/tinycert-go/api/clients"
	"github.com/ruteri/tinycert-go/cmd/flags"
	"github.com/ruteri/tinycert-go/common"
	"github.com/urfave/cli/v2"
)

// logger is built once per run in the app's Before hook so that every
// message of a run shares the same uid.
var logger *slog.Logger

func main() {
	// .env values become defaults for the TINYCERT_* flag variables.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("could not load .env: %v", err)
	}

	app := &cli.App{
		Name:    "tinycert",
		Usage:   "Manage TinyCert certificate authorities and certificates",
		Version: common.Version,
		Flags:   append(append([]cli.Flag{flags.LogServiceFlagFn("tinycert")}, flags.LogFlags...), flags.SessionFlags...),
		Before: func(cCtx *cli.Context) error {
			logger = flags.SetupLogger(cCtx)
			return nil
		},
		Commands: []*cli.Command{
			caCommand,
			certCommand,
			storeCommand,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// withSession runs fn inside a connected session that is disconnected on return.
func withSession(cCtx *cli.Context, fn func(ctx context.Context, s *clients.Session) error) error {
	cfg := flags.ConfigureSession(cCtx, logger)
	account := cCtx.String(flags.AccountFlag.Name)
	passphrase := cCtx.String(flags.PassphraseFlag.Name)
	if cfg.APIKey == "" || account == "" || passphrase == "" {
		return errors.New("--api-key, --account and --passphrase (or TINYCERT_API_KEY, TINYCERT_ACCOUNT, TINYCERT_PASSPHRASE) are required")
	}

	return clients.WithSession(cCtx.Context, cfg, account, passphrase, func(s *clients.Session) error {
		return fn(cCtx.Context, s)
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRecords prints list entries as the service sent them.
func printRecords[T any](w io.Writer, records []T, raw func(T) json.RawMessage) error {
	out := make([]json.RawMessage, 0, len(records))
	for _, record := range records {
		out = append(out, raw(record))
	}
	return printJSON(w, out)
}
