package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gridledger/electric/api"
	"github.com/gridledger/electric/cmd/util"
	"github.com/gridledger/electric/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	log = logger.GetLogger("app")

	// AppCmd starts the REST API
	AppCmd = &cobra.Command{
		Use:   "app",
		Short: "Start the REST API of the client modules",
		Long: `Start the REST API of the client modules. Modules that cannot be
initialized (missing identity, unreachable ledger) stay unusable and their
routes answer 503 until the process is restarted.`,
		Args: cobra.NoArgs,
		RunE: run,
	}
)

func init() {
	cobra.OnInitialize(util.InitClientConfig)
	util.SetupGatewayFlags(AppCmd)

	key := "listen"
	AppCmd.Flags().String(key, "0.0.0.0:3000", util.WrapString("The address on which the REST API will listen"))

	key = "log-level"
	AppCmd.Flags().String(key, "info", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

func run(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return err
	}
	if viper.GetString("log-level") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	clients, err := util.GetClients(context.Background())
	if clients == nil {
		return err
	}
	if err != nil {
		log.Warningf("not every module is usable: %v", err)
	}
	defer func() {
		if err := clients.Close(); err != nil {
			log.Errorf("failed to close clients: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:    viper.GetString("listen"),
		Handler: api.NewRouter(&api.Handler{Users: clients.Users, Usage: clients.Usage}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("REST API listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
