package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/CraftOldWang/information-retrieval/index"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var buildCmd = &cobra.Command{
	Use:   "build <corpus_dir>",
	Short: "Build the inverted index for a corpus directory",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("the corpus directory must be given")
		}

		path, _ := filepath.Abs(args[0])

		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			return errors.New("path given is not a directory")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		corpus, _ := filepath.Abs(args[0])

		builder, err := index.NewBuilder(index.Config{
			BlockSize: viper.GetInt("blocksize"),
			Workers:   viper.GetInt("workers"),
			Codec:     viper.GetString("codec"),
		})
		if err != nil {
			return err
		}

		// Interrupting a build discards all in-progress files; there is no
		// resumable on-disk state.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		start := time.Now()

		result, err := builder.Build(ctx, corpus, viper.GetString("indexpath"))
		if err != nil {
			return err
		}

		cmd.Printf("Indexed %d documents (%d skipped) in %v\n",
			result.Stats.Documents, result.Stats.Skipped, time.Since(start).Round(time.Millisecond))
		cmd.Printf("%d terms, %d postings, %d blocks -> %s\n",
			result.Stats.Terms, result.Stats.Postings, result.Stats.Blocks, result.Pair.Base)

		return nil
	},
}

func init() {
	buildCmd.Flags().Int("block-size", 1000, "documents per block")
	buildCmd.Flags().Int("workers", 0, "block write workers (0 = number of CPUs)")
	buildCmd.Flags().String("codec", "varint", "postings encoding (fixed32, varint, roaring)")

	viper.BindPFlag("blocksize", buildCmd.Flags().Lookup("block-size"))
	viper.BindPFlag("workers", buildCmd.Flags().Lookup("workers"))
	viper.BindPFlag("codec", buildCmd.Flags().Lookup("codec"))

	rootCmd.AddCommand(buildCmd)
}
