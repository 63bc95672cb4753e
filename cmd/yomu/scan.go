package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/soramame/yomu/pkg/config"
	"github.com/soramame/yomu/pkg/dict"
	"github.com/soramame/yomu/pkg/encounter"
	"github.com/soramame/yomu/pkg/matcher"
	"github.com/soramame/yomu/pkg/scan"
	"github.com/soramame/yomu/pkg/sentence"
	"github.com/soramame/yomu/pkg/store"
	"github.com/soramame/yomu/pkg/vocab"
)

var scanFlags struct {
	url        string
	file       string
	lexicon    string
	jmdict     string
	freq       string
	vocabPath  string
	dbPath     string
	configPath string
	useKagome  bool
	location   string
	contentID  string
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Analyze a document against the personal vocabulary",
	Long: `scan fetches a URL or reads a file, segments the text into
dictionary-form words, classifies each against the vocabulary, and prints a
comprehension and difficulty report. With --db, unknown-word encounters and
recordable sentences are persisted for later priority scoring.`,
	RunE: runScan,
}

func init() {
	f := scanCmd.Flags()
	f.StringVar(&scanFlags.url, "url", "", "URL to fetch and analyze")
	f.StringVar(&scanFlags.file, "file", "", "text file to analyze")
	f.StringVar(&scanFlags.lexicon, "lexicon", "", "lexicon file (see import-dict)")
	f.StringVar(&scanFlags.jmdict, "jmdict", "", "JMdict-simplified JSON to build the lexicon from")
	f.StringVar(&scanFlags.freq, "freq", "", "frequency rank list")
	f.StringVar(&scanFlags.vocabPath, "vocab", "", "vocabulary YAML file")
	f.StringVar(&scanFlags.dbPath, "db", "", "SQLite database for encounters (optional)")
	f.StringVar(&scanFlags.configPath, "config", "", "engine config YAML")
	f.BoolVar(&scanFlags.useKagome, "kagome", false, "use morphological analysis instead of the lexicon matcher")
	f.StringVar(&scanFlags.location, "location", "", "location recorded with encounters (defaults to the URL or file path)")
	f.StringVar(&scanFlags.contentID, "content-id", "", "content identity within the location")
	rootCmd.AddCommand(scanCmd)
}

func loadConfig() (*config.Config, error) {
	if scanFlags.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(scanFlags.configPath)
}

func loadVocab(path string) (*vocab.Snapshot, error) {
	if path == "" {
		return vocab.NewSnapshot(nil, nil, nil), nil
	}
	return vocab.LoadFile(path)
}

// buildMatcher assembles the matcher and rank map from the flags.
func buildMatcher(logger *log.Logger) (scan.Matcher, map[string]int, error) {
	ranks := map[string]int{}
	if scanFlags.freq != "" {
		r, err := dict.LoadFrequencyRanks(scanFlags.freq, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("load frequency list: %w", err)
		}
		ranks = r
	}

	if scanFlags.useKagome {
		km, err := matcher.NewKagomeMatcher()
		if err != nil {
			return nil, nil, fmt.Errorf("init kagome: %w", err)
		}
		return km, ranks, nil
	}

	var lex *dict.Lexicon
	switch {
	case scanFlags.lexicon != "":
		var err error
		lex, err = dict.LoadLexiconFile(scanFlags.lexicon, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("load lexicon: %w", err)
		}
	case scanFlags.jmdict != "":
		entries, err := dict.LoadJMdictSimplified(scanFlags.jmdict)
		if err != nil {
			return nil, nil, fmt.Errorf("load jmdict: %w", err)
		}
		lex = dict.BuildLexicon(entries, ranks, logger)
	default:
		return nil, nil, fmt.Errorf("need --lexicon, --jmdict, or --kagome")
	}

	for w, r := range lex.Ranks() {
		if _, ok := ranks[w]; !ok {
			ranks[w] = r
		}
	}
	return matcher.New(lex, dict.NewDefaultDeinflector()), ranks, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	snap, err := loadVocab(scanFlags.vocabPath)
	if err != nil {
		return fmt.Errorf("load vocabulary: %w", err)
	}
	m, ranks, err := buildMatcher(logger)
	if err != nil {
		return err
	}

	var title, text, location string
	switch {
	case scanFlags.url != "":
		location = scanFlags.url
		title, text, err = fetchArticle(ctx, scanFlags.url)
		if err != nil {
			return err
		}
	case scanFlags.file != "":
		location = scanFlags.file
		data, err := os.ReadFile(scanFlags.file)
		if err != nil {
			return err
		}
		title, text = scanFlags.file, string(data)
	default:
		return fmt.Errorf("need --url or --file")
	}
	if scanFlags.location != "" {
		location = scanFlags.location
	}

	fmt.Printf("Title: %s\n", title)

	var rec *encounter.Recorder
	if scanFlags.dbPath != "" {
		st, err := store.Open(scanFlags.dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		rec = encounter.NewRecorder(st, encounter.Config{
			BufferSize:    cfg.Encounter.BufferSize,
			FlushInterval: cfg.FlushInterval(),
			DedupWindow:   cfg.DedupWindow(),
		})
		rec.Logger = logger
		rec.SetContext(location, scanFlags.contentID)
	}

	doc := scan.FromText(text)
	sched := scan.New(m, snap, ranks, scan.Config{
		ChunkSize:   cfg.Scan.ChunkSize,
		Timeout:     cfg.ScanTimeout(),
		SliceBudget: cfg.SliceBudget(),
	})
	sched.Logger = logger

	i1Count := 0
	sched.OnSentences = func(n *scan.Node, groups []sentence.Group) {
		for _, g := range groups {
			if g.IsIPlusOne() {
				i1Count++
			}
		}
		if rec != nil {
			if err := rec.Collect(groups, cfg.Sentence.MinContextLen); err != nil {
				logger.Printf("record: %v", err)
			}
		}
	}
	sched.OnProgress = func(p scan.Progress) {
		fmt.Printf("\rScanned %d/%d nodes", p.ScannedNodes, p.TotalNodes)
	}

	sc := sched.Start(ctx, doc)
	<-sc.Done()
	res := sc.Result()
	fmt.Println()

	if rec != nil {
		if err := rec.Close(); err != nil {
			logger.Printf("encounter flush: %v", err)
		}
	}

	printReport(res, i1Count)
	if !res.IsComplete {
		fmt.Println("Scan was canceled; results are partial.")
	}
	return nil
}

func printReport(res scan.Progress, i1Count int) {
	s := res.Stats
	fmt.Printf("Tokens: %d (known %d, unknown %d, ignored %d)\n",
		s.TotalTokens, s.KnownTokens, s.UnknownTokens, s.IgnoredTokens)
	fmt.Printf("Comprehension: %d%%\n", s.ComprehensionPercent)
	fmt.Printf("Unique words: %d, sentences: %d, i+1 sentences: %d\n",
		s.UniqueWords, s.Sentences, i1Count)
	fmt.Printf("Difficulty: %.1f (%s), word difficulty p10/p50/p90: %.0f/%.0f/%.0f\n",
		s.Difficulty.Score, s.Difficulty.Label,
		s.Difficulty.P10, s.Difficulty.P50, s.Difficulty.P90)

	if len(s.TopUnknown) > 0 {
		fmt.Println("Top unknown words:")
		for _, wc := range s.TopUnknown {
			fmt.Printf("  %-12s %d\n", wc.Word, wc.Count)
		}
	}
}
