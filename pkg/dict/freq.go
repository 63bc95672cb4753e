package dict

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
)

// LoadFrequencyRanks reads a frequency list. Two formats are accepted:
// one word per line (line number is the rank), or word<TAB>rank. A word seen
// twice keeps its first (better) rank. Unparseable rank values are logged and
// the line is skipped.
func LoadFrequencyRanks(path string, logger *log.Logger) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ranks := make(map[string]int)
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word := line
		rank := lineNo
		if i := strings.IndexByte(line, '\t'); i >= 0 {
			word = strings.TrimSpace(line[:i])
			r, err := strconv.Atoi(strings.TrimSpace(line[i+1:]))
			if err != nil || r <= 0 {
				if logger != nil {
					logger.Printf("frequency %s:%d: unparseable rank %q, line skipped", path, lineNo, line[i+1:])
				}
				continue
			}
			rank = r
		}
		if word == "" {
			continue
		}
		if _, ok := ranks[word]; !ok {
			ranks[word] = rank
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ranks, nil
}
