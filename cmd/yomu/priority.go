package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/soramame/yomu/pkg/dict"
	"github.com/soramame/yomu/pkg/matcher"
	"github.com/soramame/yomu/pkg/priority"
	"github.com/soramame/yomu/pkg/store"
)

var priorityFlags struct {
	dbPath    string
	vocabPath string
	freq      string
	top       int
}

var priorityCmd = &cobra.Command{
	Use:   "priority",
	Short: "Rank recorded unknown words by acquisition priority",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := log.New(os.Stderr, "", log.LstdFlags)

		st, err := store.Open(priorityFlags.dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		snap, err := loadVocab(priorityFlags.vocabPath)
		if err != nil {
			return fmt.Errorf("load vocabulary: %w", err)
		}

		ranks := map[string]int{}
		if priorityFlags.freq != "" {
			ranks, err = dict.LoadFrequencyRanks(priorityFlags.freq, logger)
			if err != nil {
				return fmt.Errorf("load frequency list: %w", err)
			}
		}

		words, err := st.DistinctEncounterWords(ctx)
		if err != nil {
			return fmt.Errorf("list candidates: %w", err)
		}

		var histories []store.WordHistory
		for _, w := range words {
			if snap.IsKnown(w) || snap.IsIgnored(w) {
				continue
			}
			h, err := st.WordHistory(ctx, w, ranks[w])
			if err != nil {
				return fmt.Errorf("history for %s: %w", w, err)
			}
			histories = append(histories, h)
		}

		scores := priority.Rank(time.Now(), histories, snap)
		if len(scores) > priorityFlags.top {
			scores = scores[:priorityFlags.top]
		}

		fmt.Printf("%-12s %7s  %5s %5s %5s %5s %5s %5s\n",
			"word", "score", "freq", "pers", "block", "rec", "fam", "i+1")
		for _, s := range scores {
			b := s.Breakdown
			fmt.Printf("%-12s %7.1f  %5.1f %5.1f %5.1f %5.1f %5.1f %5.1f\n",
				s.Word, s.Score, b.Frequency, b.Personal, b.Blocking, b.Recency, b.Familiarity, b.I1Potential)
		}
		return nil
	},
}

var unlockFlags struct {
	file      string
	lexicon   string
	vocabPath string
	dbPath    string
	target    int
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Pick the unknown words that unlock a target comprehension for a document",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := log.New(os.Stderr, "", log.LstdFlags)

		lex, err := dict.LoadLexiconFile(unlockFlags.lexicon, logger)
		if err != nil {
			return fmt.Errorf("load lexicon: %w", err)
		}
		snap, err := loadVocab(unlockFlags.vocabPath)
		if err != nil {
			return fmt.Errorf("load vocabulary: %w", err)
		}
		data, err := os.ReadFile(unlockFlags.file)
		if err != nil {
			return err
		}

		m := matcher.New(lex, dict.NewDefaultDeinflector())
		toks := matcher.Classify(m.Match(string(data)), snap, lex.Ranks())

		doc := priority.DocumentWords{
			UnknownOccurrences: make(map[string]int),
			I1Potential:        make(map[string]int),
		}
		for _, t := range toks {
			switch t.Status {
			case matcher.StatusKnown:
				doc.KnownTokens++
			case matcher.StatusUnknown:
				doc.UnknownOccurrences[t.BaseForm]++
			}
		}
		if unlockFlags.dbPath != "" {
			st, err := store.Open(unlockFlags.dbPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()
			for w := range doc.UnknownOccurrences {
				sents, err := st.SentencesForWord(ctx, w, true)
				if err != nil {
					return fmt.Errorf("i+1 sentences for %s: %w", w, err)
				}
				doc.I1Potential[w] = len(sents)
			}
		}

		picks := priority.UnlockWords(doc, unlockFlags.target)
		if len(picks) == 0 {
			fmt.Printf("Already at or above %d%% comprehension.\n", unlockFlags.target)
			return nil
		}
		fmt.Printf("Learn these %d words to reach %d%%:\n", len(picks), unlockFlags.target)
		for _, w := range picks {
			fmt.Printf("  %-12s ×%d\n", w, doc.UnknownOccurrences[w])
		}
		return nil
	},
}

func init() {
	pf := priorityCmd.Flags()
	pf.StringVar(&priorityFlags.dbPath, "db", "yomu.db", "SQLite database with recorded encounters")
	pf.StringVar(&priorityFlags.vocabPath, "vocab", "", "vocabulary YAML file")
	pf.StringVar(&priorityFlags.freq, "freq", "", "frequency rank list")
	pf.IntVar(&priorityFlags.top, "top", 20, "number of words to print")
	rootCmd.AddCommand(priorityCmd)

	uf := unlockCmd.Flags()
	uf.StringVar(&unlockFlags.file, "file", "", "document to analyze")
	uf.StringVar(&unlockFlags.lexicon, "lexicon", "", "lexicon file")
	uf.StringVar(&unlockFlags.vocabPath, "vocab", "", "vocabulary YAML file")
	uf.StringVar(&unlockFlags.dbPath, "db", "", "SQLite database for i+1 tie-breaks (optional)")
	uf.IntVar(&unlockFlags.target, "target", 90, "target comprehension percent")
	_ = unlockCmd.MarkFlagRequired("file")
	_ = unlockCmd.MarkFlagRequired("lexicon")
	rootCmd.AddCommand(unlockCmd)
}
