package cmd

import (
	"errors"

	"github.com/CraftOldWang/information-retrieval/index"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <term>",
	Short: "List the documents containing a term",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := index.OpenInvertedIndexReader(viper.GetString("indexpath"), nil)
		if err != nil {
			return err
		}
		defer reader.Close()

		postings, err := reader.Lookup(args[0])
		if err != nil {
			if errors.Is(err, index.ErrUnknownTerm) {
				cmd.Println("No documents found")
				return nil
			}

			return err
		}

		for _, docID := range postings {
			name, err := reader.DocName(docID)
			if err != nil {
				return err
			}

			cmd.Printf("%d: %s\n", docID, name)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
