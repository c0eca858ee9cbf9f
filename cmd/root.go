package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "irindex",
	Short: "irindex builds and inspects disk-resident inverted indexes",
	Long: "irindex turns a directory of crawled documents into a compact inverted index " +
		"pair (.dict and .postings) using block sort-based indexing, and can look terms " +
		"up in a finalized index.",
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, setupLogging)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.irindex.yaml)")
	rootCmd.PersistentFlags().String("index", "index/corpus", "basename of the index pair")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	viper.BindPFlag("indexpath", rootCmd.PersistentFlags().Lookup("index"))
	viper.BindPFlag("loglevel", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	viper.SetDefault("indexpath", "index/corpus")
	viper.SetDefault("blocksize", 1000)
	viper.SetDefault("workers", 0)
	viper.SetDefault("codec", "varint")
	viper.SetDefault("loglevel", "info")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".irindex")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("IRINDEX")
	viper.AutomaticEnv()
	viper.ReadInConfig()
}

func setupLogging() {
	var level slog.Level

	switch viper.GetString("loglevel") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
