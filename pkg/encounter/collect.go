package encounter

import (
	"github.com/soramame/yomu/pkg/matcher"
	"github.com/soramame/yomu/pkg/sentence"
)

// Collect consumes one node's sentence groups from the scan pipeline: every
// unknown token becomes an encounter, and groups passing the recordable gate
// become sentence records. minContext <= 0 uses the sentence default.
func (r *Recorder) Collect(groups []sentence.Group, minContext int) error {
	for _, g := range groups {
		for _, t := range g.Tokens {
			if t.Status != matcher.StatusUnknown {
				continue
			}
			if err := r.Record(t.BaseForm, t.Surface, g.Text, t.FrequencyRank); err != nil {
				return err
			}
		}
		if g.Recordable(minContext) {
			if err := r.RecordSentence(g); err != nil {
				return err
			}
		}
	}
	return nil
}
