package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/soramame/yomu/pkg/dict"
)

var importFlags struct {
	jmdict string
	freq   string
	out    string
}

var importDictCmd = &cobra.Command{
	Use:   "import-dict",
	Short: "Convert a JMdict-simplified file into a lexicon",
	Long: `import-dict reads a jmdict-simplified JSON dump, attaches frequency
ranks when a rank list is supplied, and writes the compact lexicon file the
scan command loads.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.New(os.Stderr, "", log.LstdFlags)

		entries, err := dict.LoadJMdictSimplified(importFlags.jmdict)
		if err != nil {
			return fmt.Errorf("load jmdict: %w", err)
		}
		fmt.Printf("Loaded %d entries.\n", len(entries))

		ranks := map[string]int{}
		if importFlags.freq != "" {
			ranks, err = dict.LoadFrequencyRanks(importFlags.freq, logger)
			if err != nil {
				return fmt.Errorf("load frequency list: %w", err)
			}
		}

		lex := dict.BuildLexicon(entries, ranks, logger)
		if err := dict.SaveLexiconFile(lex, importFlags.out); err != nil {
			return fmt.Errorf("write lexicon: %w", err)
		}
		fmt.Printf("Wrote %d base forms to %s.\n", lex.Len(), importFlags.out)
		return nil
	},
}

func init() {
	f := importDictCmd.Flags()
	f.StringVar(&importFlags.jmdict, "jmdict", "", "JMdict-simplified JSON file")
	f.StringVar(&importFlags.freq, "freq", "", "frequency rank list")
	f.StringVar(&importFlags.out, "out", "lexicon.tsv", "output lexicon path")
	_ = importDictCmd.MarkFlagRequired("jmdict")
	rootCmd.AddCommand(importDictCmd)
}
