package dict

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLexiconAddMergesEntries(t *testing.T) {
	lex := NewLexicon()
	if err := lex.Add("かける", ClassIchidan, 3000); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := lex.Add("かける", ClassGodan, 1200); err != nil {
		t.Fatalf("add duplicate: %v", err)
	}

	e, ok := lex.Lookup("かける")
	if !ok {
		t.Fatal("expected entry to exist")
	}
	if e.Class&ClassIchidan == 0 || e.Class&ClassGodan == 0 {
		t.Fatalf("expected merged classes, got %b", e.Class)
	}
	if e.Rank != 1200 {
		t.Fatalf("expected better rank 1200 kept, got %d", e.Rank)
	}
	if lex.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", lex.Len())
	}
}

func TestLexiconRejectsEmptyBase(t *testing.T) {
	lex := NewLexicon()
	if err := lex.Add("  ", ClassNone, 0); err == nil {
		t.Fatal("expected error for empty base form")
	}
	if lex.Len() != 0 {
		t.Fatalf("expected empty lexicon, got %d entries", lex.Len())
	}
}

func TestLexiconMaxBaseLen(t *testing.T) {
	lex := NewLexicon()
	lex.Add("猫", ClassNone, 0)
	lex.Add("図書館", ClassNone, 0)
	if got := lex.MaxBaseLen(); got != 3 {
		t.Fatalf("expected max base len 3 runes, got %d", got)
	}
}

func TestParseClass(t *testing.T) {
	cases := map[string]Class{
		"n":     ClassNone,
		"v1":    ClassIchidan,
		"v5":    ClassGodan,
		"v5r":   ClassGodan,
		"v5k":   ClassGodan,
		"adj-i": ClassAdjI,
		"vs":    ClassSuru,
		"vs-i":  ClassSuru,
		"vk":    ClassKuru,
		"exp":   ClassNone,
		"":      ClassNone,
	}
	for tag, want := range cases {
		if got := ParseClass(tag); got != want {
			t.Errorf("ParseClass(%q) = %b, want %b", tag, got, want)
		}
	}
}

func TestLoadLexiconFileSkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.tsv")
	content := "# comment line\n" +
		"食べる\tv1\t300\n" +
		"飲む\tv5\t250\n" +
		"高い\tadj-i\tnotanumber\n" +
		"\n" +
		"猫\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	lex, err := LoadLexiconFile(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if lex.Len() != 4 {
		t.Fatalf("expected 4 entries, got %d", lex.Len())
	}
	if lex.Rank("食べる") != 300 {
		t.Fatalf("expected rank 300 for 食べる, got %d", lex.Rank("食べる"))
	}
	// Bad rank keeps the entry, unranked.
	if lex.Rank("高い") != 0 {
		t.Fatalf("expected 高い unranked, got %d", lex.Rank("高い"))
	}
	e, ok := lex.Lookup("猫")
	if !ok || e.Class != ClassNone {
		t.Fatalf("expected 猫 as plain noun, got %+v ok=%v", e, ok)
	}
}

func TestSaveAndLoadLexiconRoundTrip(t *testing.T) {
	lex := NewLexicon()
	lex.Add("読む", ClassGodan, 150)
	lex.Add("勉強", ClassSuru, 800)
	lex.Add("本", ClassNone, 90)

	path := filepath.Join(t.TempDir(), "out.tsv")
	if err := SaveLexiconFile(lex, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := LoadLexiconFile(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", got.Len())
	}
	e, _ := got.Lookup("読む")
	if e.Class&ClassGodan == 0 || e.Rank != 150 {
		t.Fatalf("unexpected entry for 読む: %+v", e)
	}
	e, _ = got.Lookup("勉強")
	if e.Class&ClassSuru == 0 {
		t.Fatalf("expected suru class preserved, got %+v", e)
	}
}

func TestRanksView(t *testing.T) {
	lex := NewLexicon()
	lex.Add("猫", ClassNone, 500)
	lex.Add("犬", ClassNone, 0)
	ranks := lex.Ranks()
	if len(ranks) != 1 || ranks["猫"] != 500 {
		t.Fatalf("unexpected ranks view: %v", ranks)
	}
}
