package cmd

import (
	"github.com/CraftOldWang/information-retrieval/index"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the dictionary of a finalized index",
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := index.OpenInvertedIndexReader(viper.GetString("indexpath"), nil)
		if err != nil {
			return err
		}
		defer reader.Close()

		cmd.Printf("codec=%s terms=%d docs=%d entries=%d\n",
			reader.Codec().Name(), reader.TermCount(), reader.DocCount(), len(reader.Entries()))

		withTerms, _ := cmd.Flags().GetBool("terms")

		for _, entry := range reader.Entries() {
			if withTerms {
				term, err := reader.TermName(entry.TermID)
				if err != nil {
					return err
				}

				cmd.Printf("%d\t%s\tcount=%d offset=%d length=%d\n",
					entry.TermID, term, entry.Count, entry.Offset, entry.Length)
			} else {
				cmd.Printf("%d\tcount=%d offset=%d length=%d\n",
					entry.TermID, entry.Count, entry.Offset, entry.Length)
			}
		}

		return nil
	},
}

func init() {
	dumpCmd.Flags().Bool("terms", false, "resolve term ids to term strings")
	rootCmd.AddCommand(dumpCmd)
}
