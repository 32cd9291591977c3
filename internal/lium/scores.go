package lium

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ScoreEntry is one (cluster, speaker) likelihood extracted from an MScore
// output segmentation.
type ScoreEntry struct {
	Cluster string
	Speaker string
	Value   float64
}

// LoadScores parses the MScore output file at path.
func LoadScores(path string) ([]ScoreEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scored segmentation: %w", err)
	}
	defer f.Close()
	return ParseScores(f)
}

// ParseScores extracts score entries from an MScore output segmentation.
// Header lines carry a cluster:<cluster>_<speaker> token and, further on,
// a score:<speaker> = <value> expression inside brackets.
func ParseScores(r io.Reader) ([]ScoreEntry, error) {
	var entries []ScoreEntry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if !strings.HasPrefix(line, ";;") {
			continue
		}
		clusterID, speaker, ok := splitClusterToken(line)
		if !ok {
			continue
		}
		marker := "score:" + speaker + " = "
		i := strings.Index(line, marker)
		if i < 0 {
			return nil, fmt.Errorf("scored segmentation line %d: no score for speaker %s", lineNo, speaker)
		}
		rest := line[i+len(marker):]
		if j := strings.IndexAny(rest, " ]"); j >= 0 {
			rest = rest[:j]
		}
		value, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return nil, fmt.Errorf("scored segmentation line %d: bad score %q", lineNo, rest)
		}
		entries = append(entries, ScoreEntry{Cluster: clusterID, Speaker: speaker, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read scored segmentation: %w", err)
	}
	return entries, nil
}

// splitClusterToken finds the cluster:<cluster>_<speaker> token of a header
// line. MScore appends the model's speaker label to the cluster id with an
// underscore; diarizer cluster ids never contain one.
func splitClusterToken(line string) (clusterID, speaker string, ok bool) {
	for _, tok := range strings.Fields(line) {
		value, found := strings.CutPrefix(tok, "cluster:")
		if !found {
			continue
		}
		c, s, cut := strings.Cut(value, "_")
		if !cut {
			return "", "", false
		}
		return c, s, true
	}
	return "", "", false
}
