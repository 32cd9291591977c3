// Package srt renders diarized segments as SubRip subtitles and relabels
// subtitle identities against an explicit cluster-to-speaker mapping.
package srt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/user/voiceid/internal/cluster"
)

// Write renders the segments as numbered subtitle blocks, time-sorted by
// segment start. Each block's label is the segment's cluster label.
func Write(w io.Writer, segments []cluster.Segment) error {
	ordered := make([]cluster.Segment, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })

	bw := bufio.NewWriter(w)
	for i, s := range ordered {
		start := centisToSeconds(s.Start)
		end := start + centisToSeconds(s.Duration)
		fmt.Fprintf(bw, "%d\n", i+1)
		fmt.Fprintf(bw, "%s --> %s\n", Timestamp(start), Timestamp(end))
		fmt.Fprintf(bw, "%s\n\n", s.Label)
	}
	return bw.Flush()
}

// WriteFile renders the segments to a subtitle file at path.
func WriteFile(path string, segments []cluster.Segment) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create subtitle file: %w", err)
	}
	defer f.Close()
	return Write(f, segments)
}

// Relabel rewrites a subtitle stream, replacing label lines that exactly
// match a cluster id in mapping with the mapped identity. Only whole label
// lines are replaced, so ids that appear as substrings elsewhere are safe.
func Relabel(r io.Reader, w io.Writer, mapping map[string]string) error {
	scanner := bufio.NewScanner(r)
	bw := bufio.NewWriter(w)
	for scanner.Scan() {
		line := scanner.Text()
		if name, ok := mapping[strings.TrimSpace(line)]; ok {
			line = name
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return bw.Flush()
}

// RelabelFile applies Relabel from srcPath to dstPath.
func RelabelFile(srcPath, dstPath string, mapping map[string]string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open subtitle file: %w", err)
	}
	defer src.Close()
	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create subtitle file: %w", err)
	}
	defer dst.Close()
	return Relabel(src, dst, mapping)
}

// Timestamp formats seconds as the HH:MM:SS,mmm subtitle timestamp.
func Timestamp(secs float64) string {
	totalMillis := int64(secs*1000 + 0.5)
	millis := totalMillis % 1000
	totalSecs := totalMillis / 1000
	h := totalSecs / 3600
	m := (totalSecs % 3600) / 60
	s := totalSecs % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, millis)
}

func centisToSeconds(c int) float64 { return float64(c) / 100 }
