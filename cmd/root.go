package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zcash/headerpow/chainsync"
	"github.com/zcash/headerpow/chainsync/rpcnode"
	"github.com/zcash/headerpow/common"
	"github.com/zcash/headerpow/common/logging"
	"github.com/zcash/headerpow/config"
	"github.com/zcash/headerpow/observability"
	"github.com/zcash/headerpow/storage"
)

var cfgFile string
var logger = logrus.New()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "headerpow",
	Short: "headerpow verifies Zcash-style block header proof-of-work",
	Long: `headerpow is a small service that continuously pulls block headers
         from a zcashd/zebrad-compatible node, verifies their Equihash
         solution and difficulty, and persists each verified header.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		logLevel, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("parsing log level: %w", err)
		}
		logger.SetLevel(logLevel)
		common.Log = logger.WithFields(logrus.Fields{"app": "headerpow"})

		common.Log.WithFields(logrus.Fields{
			"gitCommit": common.GitCommit,
			"buildDate": common.BuildDate,
			"buildUser": common.BuildUser,
		}).Infof("Starting headerpow process version %s", common.Version)

		return runDriver(cfg)
	},
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}

func runDriver(cfg *config.Config) error {
	store, err := storage.OpenSQLiteStore(cfg.HeaderDBPath)
	if err != nil {
		return fmt.Errorf("opening header store: %w", err)
	}
	defer store.Close()

	node, err := rpcnode.New(cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", cfg.RPCURL, err)
	}

	go startMetricsServer(cfg.MetricsAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver := &chainsync.Driver{
		Node:        node,
		Store:       store,
		StartHeight: cfg.StartHeight,
		Log:         common.Log,
	}

	if err := driver.Run(ctx); err != nil {
		return fmt.Errorf("sync driver exited: %w", err)
	}
	common.Log.Info("shutting down on signal")
	return nil
}

func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	common.Log.WithField("addr", addr).Info("serving Prometheus metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		common.Log.WithField("error", err).Warn("metrics server exited")
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is current directory, headerpow.yaml)")
	config.BindFlags(viper.GetViper(), rootCmd.Flags())

	logging.LogToStderr = true
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("headerpow")
	}
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}
