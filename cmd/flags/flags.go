package flags

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/tinycert-go/api"
	"github.com/ruteri/tinycert-go/api/clients"
	"github.com/ruteri/tinycert-go/common"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *api.HTTPServerConfig {
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &api.HTTPServerConfig{
		ListenAddr:               listenAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

// ConfigureSession builds the session config from the TinyCert flags.
func ConfigureSession(cCtx *cli.Context, logger *slog.Logger) *clients.Config {
	return &clients.Config{
		BaseURL:    cCtx.String(URLFlag.Name),
		APIKey:     cCtx.String(APIKeyFlag.Name),
		HTTPClient: &http.Client{Timeout: cCtx.Duration(TimeoutFlag.Name)},
		Log:        logger,
	}
}

var APIKeyFlag = &cli.StringFlag{
	Name:    "api-key",
	EnvVars: []string{"TINYCERT_API_KEY"},
	Usage:   "TinyCert API key used to sign requests",
}

var AccountFlag = &cli.StringFlag{
	Name:    "account",
	EnvVars: []string{"TINYCERT_ACCOUNT"},
	Usage:   "TinyCert account email",
}

var PassphraseFlag = &cli.StringFlag{
	Name:    "passphrase",
	EnvVars: []string{"TINYCERT_PASSPHRASE"},
	Usage:   "TinyCert account passphrase",
}

var URLFlag = &cli.StringFlag{
	Name:    "url",
	EnvVars: []string{"TINYCERT_URL"},
	Value:   clients.DefaultBaseURL,
	Usage:   "TinyCert API root",
}

var TimeoutFlag = &cli.DurationFlag{
	Name:  "timeout",
	Value: 30 * time.Second,
	Usage: "HTTP request timeout",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}

var LogFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
}

var SessionFlags = []cli.Flag{
	APIKeyFlag,
	AccountFlag,
	PassphraseFlag,
	URLFlag,
	TimeoutFlag,
}

var ServerFlags = []cli.Flag{
	PprofFlag,
	DrainSecondsFlag,
}
