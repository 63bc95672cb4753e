package dict

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"
)

// Rule rewrites a trailing inflection toward the dictionary form. A surface
// ending in KanaIn may be rewritten to end in KanaOut; ClassIn constrains the
// classes the inflected form may carry (accumulated along a chain), ClassOut
// is the class of the rewritten form.
type Rule struct {
	Name     string
	KanaIn   string
	KanaOut  string
	ClassIn  Class
	ClassOut Class
}

// Candidate is one possible dictionary form for a surface, together with the
// rules that produced it. Steps orders candidates when two matches tie on
// surface length.
type Candidate struct {
	Form  string
	Class Class
	Trace []string
	Steps int
}

// Deinflector applies an ordered rule table to strip trailing morphology.
type Deinflector struct {
	rules    []Rule
	maxDepth int
	maxExtra int // surface runes beyond the base form a chain can account for
}

// NewDeinflector builds a deinflector from the given rules. Malformed rules
// (empty KanaIn, producing nothing) are logged and skipped.
func NewDeinflector(rules []Rule, logger *log.Logger) *Deinflector {
	d := &Deinflector{maxDepth: 4}
	maxDelta := 0
	for _, r := range rules {
		if err := validateRule(r); err != nil {
			if logger != nil {
				logger.Printf("deinflect: skipping rule %q: %v", r.Name, err)
			}
			continue
		}
		d.rules = append(d.rules, r)
		delta := utf8.RuneCountInString(r.KanaIn) - utf8.RuneCountInString(r.KanaOut)
		if delta > maxDelta {
			maxDelta = delta
		}
	}
	d.maxExtra = d.maxDepth * maxDelta
	return d
}

// NewDefaultDeinflector returns a deinflector loaded with the standard
// Japanese conjugation table.
func NewDefaultDeinflector() *Deinflector {
	return NewDeinflector(DefaultRules(), nil)
}

func validateRule(r Rule) error {
	if r.KanaIn == "" {
		return fmt.Errorf("empty suffix")
	}
	if r.KanaIn == r.KanaOut {
		return fmt.Errorf("identity rewrite")
	}
	if r.ClassIn == 0 || r.ClassOut == 0 {
		return fmt.Errorf("missing class constraint")
	}
	return nil
}

// MaxExtraRunes bounds how many runes longer than its base form an inflected
// surface can be under this rule table. The matcher widens its scan window by
// this amount.
func (d *Deinflector) MaxExtraRunes() int { return d.maxExtra }

// Deinflect returns candidate dictionary forms for surface, ordered by the
// number of rule applications (fewest first). The surface itself is not
// included; callers try a direct lexicon hit before deinflecting.
func (d *Deinflector) Deinflect(surface string) []Candidate {
	type state struct {
		form  string
		class Class
		trace []string
	}
	var out []Candidate
	seen := map[string]struct{}{surface: {}}
	frontier := []state{{form: surface, class: ClassAny}}

	for depth := 1; depth <= d.maxDepth && len(frontier) > 0; depth++ {
		var next []state
		for _, st := range frontier {
			for _, r := range d.rules {
				if st.class&r.ClassIn == 0 {
					continue
				}
				if !strings.HasSuffix(st.form, r.KanaIn) {
					continue
				}
				form := st.form[:len(st.form)-len(r.KanaIn)] + r.KanaOut
				if form == "" {
					continue
				}
				if _, dup := seen[form]; dup {
					continue
				}
				seen[form] = struct{}{}
				trace := append(append([]string(nil), st.trace...), r.Name)
				out = append(out, Candidate{Form: form, Class: r.ClassOut, Trace: trace, Steps: depth})
				next = append(next, state{form: form, class: r.ClassOut, trace: trace})
			}
		}
		frontier = next
	}
	return out
}

// DefaultRules returns the built-in Japanese deinflection table: polite forms,
// te-form, past, negative, conditional, volitional, passive/potential, tai,
// i-adjective conjugation, and the する/来る irregulars.
func DefaultRules() []Rule {
	r := func(name, in, out string, cin, cout Class) Rule {
		return Rule{Name: name, KanaIn: in, KanaOut: out, ClassIn: cin, ClassOut: cout}
	}
	return []Rule{
		// Polite stems.
		r("polite", "ます", "る", ClassAny, ClassIchidan),
		r("polite past", "ました", "る", ClassAny, ClassIchidan),
		r("polite negative", "ません", "る", ClassAny, ClassIchidan),
		r("polite", "きます", "く", ClassAny, ClassGodan),
		r("polite", "ぎます", "ぐ", ClassAny, ClassGodan),
		r("polite", "ちます", "つ", ClassAny, ClassGodan),
		r("polite", "にます", "ぬ", ClassAny, ClassGodan),
		r("polite", "びます", "ぶ", ClassAny, ClassGodan),
		r("polite", "みます", "む", ClassAny, ClassGodan),
		r("polite", "ります", "る", ClassAny, ClassGodan),
		r("polite", "います", "う", ClassAny, ClassGodan),
		r("polite past", "きました", "く", ClassAny, ClassGodan),
		r("polite past", "ぎました", "ぐ", ClassAny, ClassGodan),
		r("polite past", "ちました", "つ", ClassAny, ClassGodan),
		r("polite past", "にました", "ぬ", ClassAny, ClassGodan),
		r("polite past", "びました", "ぶ", ClassAny, ClassGodan),
		r("polite past", "みました", "む", ClassAny, ClassGodan),
		r("polite past", "りました", "る", ClassAny, ClassGodan),
		r("polite past", "いました", "う", ClassAny, ClassGodan),
		r("polite", "します", "す", ClassAny, ClassGodan|ClassSuru),
		r("polite past", "しました", "す", ClassAny, ClassGodan|ClassSuru),

		// Te-form.
		r("te", "て", "る", ClassAny, ClassIchidan),
		r("te", "いて", "く", ClassAny, ClassGodan),
		r("te", "いで", "ぐ", ClassAny, ClassGodan),
		r("te", "して", "す", ClassAny, ClassGodan),
		r("te", "って", "う", ClassAny, ClassGodan),
		r("te", "って", "つ", ClassAny, ClassGodan),
		r("te", "って", "る", ClassAny, ClassGodan),
		r("te", "んで", "ぬ", ClassAny, ClassGodan),
		r("te", "んで", "ぶ", ClassAny, ClassGodan),
		r("te", "んで", "む", ClassAny, ClassGodan),

		// Plain past.
		r("past", "た", "る", ClassAny, ClassIchidan),
		r("past", "いた", "く", ClassAny, ClassGodan),
		r("past", "いだ", "ぐ", ClassAny, ClassGodan),
		r("past", "した", "す", ClassAny, ClassGodan),
		r("past", "った", "う", ClassAny, ClassGodan),
		r("past", "った", "つ", ClassAny, ClassGodan),
		r("past", "った", "る", ClassAny, ClassGodan),
		r("past", "んだ", "ぬ", ClassAny, ClassGodan),
		r("past", "んだ", "ぶ", ClassAny, ClassGodan),
		r("past", "んだ", "む", ClassAny, ClassGodan),

		// Negative. The result is typed adj-i so なかった chains resolve
		// through the adjective past rule.
		r("negative", "ない", "る", ClassAny, ClassIchidan),
		r("negative", "かない", "く", ClassAny, ClassGodan),
		r("negative", "がない", "ぐ", ClassAny, ClassGodan),
		r("negative", "さない", "す", ClassAny, ClassGodan),
		r("negative", "たない", "つ", ClassAny, ClassGodan),
		r("negative", "なない", "ぬ", ClassAny, ClassGodan),
		r("negative", "ばない", "ぶ", ClassAny, ClassGodan),
		r("negative", "まない", "む", ClassAny, ClassGodan),
		r("negative", "らない", "る", ClassAny, ClassGodan),
		r("negative", "わない", "う", ClassAny, ClassGodan),

		// Conditional.
		r("ba", "れば", "る", ClassAny, ClassIchidan|ClassGodan),
		r("ba", "けば", "く", ClassAny, ClassGodan),
		r("ba", "げば", "ぐ", ClassAny, ClassGodan),
		r("ba", "せば", "す", ClassAny, ClassGodan),
		r("ba", "てば", "つ", ClassAny, ClassGodan),
		r("ba", "ねば", "ぬ", ClassAny, ClassGodan),
		r("ba", "べば", "ぶ", ClassAny, ClassGodan),
		r("ba", "めば", "む", ClassAny, ClassGodan),
		r("ba", "えば", "う", ClassAny, ClassGodan),

		// Volitional.
		r("volitional", "よう", "る", ClassAny, ClassIchidan),
		r("volitional", "こう", "く", ClassAny, ClassGodan),
		r("volitional", "ごう", "ぐ", ClassAny, ClassGodan),
		r("volitional", "そう", "す", ClassAny, ClassGodan),
		r("volitional", "とう", "つ", ClassAny, ClassGodan),
		r("volitional", "のう", "ぬ", ClassAny, ClassGodan),
		r("volitional", "ぼう", "ぶ", ClassAny, ClassGodan),
		r("volitional", "もう", "む", ClassAny, ClassGodan),
		r("volitional", "ろう", "る", ClassAny, ClassGodan),
		r("volitional", "おう", "う", ClassAny, ClassGodan),

		// Passive / potential.
		r("passive", "られる", "る", ClassAny, ClassIchidan),
		r("passive", "かれる", "く", ClassAny, ClassGodan),
		r("passive", "がれる", "ぐ", ClassAny, ClassGodan),
		r("passive", "される", "す", ClassAny, ClassGodan),
		r("passive", "たれる", "つ", ClassAny, ClassGodan),
		r("passive", "なれる", "ぬ", ClassAny, ClassGodan),
		r("passive", "ばれる", "ぶ", ClassAny, ClassGodan),
		r("passive", "まれる", "む", ClassAny, ClassGodan),
		r("passive", "われる", "う", ClassAny, ClassGodan),
		r("potential", "ける", "く", ClassAny, ClassGodan),
		r("potential", "げる", "ぐ", ClassAny, ClassGodan),
		r("potential", "せる", "す", ClassAny, ClassGodan),
		r("potential", "てる", "つ", ClassAny, ClassGodan),
		r("potential", "ねる", "ぬ", ClassAny, ClassGodan),
		r("potential", "べる", "ぶ", ClassAny, ClassGodan),
		r("potential", "める", "む", ClassAny, ClassGodan),
		r("potential", "れる", "る", ClassAny, ClassGodan),
		r("potential", "える", "う", ClassAny, ClassGodan),

		// Desire.
		r("tai", "たい", "る", ClassAny, ClassIchidan),
		r("tai", "きたい", "く", ClassAny, ClassGodan),
		r("tai", "ぎたい", "ぐ", ClassAny, ClassGodan),
		r("tai", "したい", "す", ClassAny, ClassGodan|ClassSuru),
		r("tai", "ちたい", "つ", ClassAny, ClassGodan),
		r("tai", "にたい", "ぬ", ClassAny, ClassGodan),
		r("tai", "びたい", "ぶ", ClassAny, ClassGodan),
		r("tai", "みたい", "む", ClassAny, ClassGodan),
		r("tai", "りたい", "る", ClassAny, ClassGodan),
		r("tai", "いたい", "う", ClassAny, ClassGodan),

		// I-adjectives.
		r("adj past", "かった", "い", ClassAny, ClassAdjI),
		r("adj negative", "くない", "い", ClassAny, ClassAdjI),
		r("adj te", "くて", "い", ClassAny, ClassAdjI),
		r("adj adverbial", "く", "い", ClassAny, ClassAdjI),
		r("adj noun", "さ", "い", ClassAny, ClassAdjI),
		r("adj ba", "ければ", "い", ClassAny, ClassAdjI),

		// する irregular.
		r("suru", "し", "する", ClassAny, ClassSuru),
		r("suru", "した", "する", ClassAny, ClassSuru),
		r("suru", "して", "する", ClassAny, ClassSuru),
		r("suru", "しない", "する", ClassAny, ClassSuru),
		r("suru", "します", "する", ClassAny, ClassSuru),
		r("suru", "しました", "する", ClassAny, ClassSuru),
		r("suru", "できる", "する", ClassAny, ClassSuru),

		// 来る irregular.
		r("kuru", "きた", "くる", ClassAny, ClassKuru),
		r("kuru", "きて", "くる", ClassAny, ClassKuru),
		r("kuru", "こない", "くる", ClassAny, ClassKuru),
		r("kuru", "きます", "くる", ClassAny, ClassKuru),
		r("kuru", "きました", "くる", ClassAny, ClassKuru),
		r("kuru", "こられる", "くる", ClassAny, ClassKuru),
	}
}
