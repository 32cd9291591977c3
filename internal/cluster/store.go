package cluster

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// headerMarker opens every cluster header line in a segmentation artifact.
const headerMarker = ";;"

// MalformedArtifactError reports a segmentation artifact that violates the
// expected line grammar.
type MalformedArtifactError struct {
	Line   int
	Reason string
}

func (e *MalformedArtifactError) Error() string {
	return fmt.Sprintf("malformed segmentation artifact at line %d: %s", e.Line, e.Reason)
}

// Store holds the clusters parsed from one segmentation artifact, in the
// order their headers appeared.
type Store struct {
	clusters map[string]*Cluster
	order    []string
}

// LoadSegmentation parses the segmentation artifact at path.
func LoadSegmentation(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open segmentation: %w", err)
	}
	defer f.Close()
	return ParseSegmentation(f)
}

// ParseSegmentation reads a segmentation artifact. A header line introduces a
// new cluster; every following data line belongs to it until the next header.
func ParseSegmentation(r io.Reader) (*Store, error) {
	st := &Store{clusters: make(map[string]*Cluster)}
	var current *Cluster

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if strings.HasPrefix(line, headerMarker) {
			c, err := parseHeader(line, lineNo)
			if err != nil {
				return nil, err
			}
			st.clusters[c.ID] = c
			st.order = append(st.order, c.ID)
			current = c
			continue
		}

		if current == nil {
			return nil, &MalformedArtifactError{Line: lineNo, Reason: "data record before any cluster header"}
		}
		seg, err := parseSegment(line, lineNo)
		if err != nil {
			return nil, err
		}
		current.Segments = append(current.Segments, seg)
		current.FrameCount += seg.Duration
		current.Gender = ParseGender(seg.Gender)
		current.Environment = seg.Environment
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read segmentation: %w", err)
	}
	return st, nil
}

func parseHeader(line string, lineNo int) (*Cluster, error) {
	var id, gender, env string
	for _, tok := range strings.Fields(line) {
		key, value, ok := strings.Cut(tok, ":")
		if !ok {
			continue
		}
		switch key {
		case "cluster":
			id = value
		case "gender":
			gender = value
		case "environment", "env":
			env = value
		}
	}
	if id == "" {
		return nil, &MalformedArtifactError{Line: lineNo, Reason: "header without cluster:<id> token"}
	}
	c := newCluster(id, line)
	if gender != "" {
		c.Gender = ParseGender(gender)
	}
	c.Environment = env
	return c, nil
}

func parseSegment(line string, lineNo int) (Segment, error) {
	fields := strings.Fields(line)
	if len(fields) < 8 {
		return Segment{}, &MalformedArtifactError{Line: lineNo, Reason: fmt.Sprintf("expected 8 fields, got %d", len(fields))}
	}
	start, err := strconv.Atoi(fields[2])
	if err != nil {
		return Segment{}, &MalformedArtifactError{Line: lineNo, Reason: "start is not an integer"}
	}
	dur, err := strconv.Atoi(fields[3])
	if err != nil {
		return Segment{}, &MalformedArtifactError{Line: lineNo, Reason: "duration is not an integer"}
	}
	return Segment{
		Show:        fields[0],
		Channel:     fields[1],
		Start:       start,
		Duration:    dur,
		Gender:      fields[4],
		Environment: fields[5],
		Flag:        fields[6],
		Label:       fields[7],
	}, nil
}

// Get returns the cluster with the given id, or nil.
func (s *Store) Get(id string) *Cluster { return s.clusters[id] }

// All returns the clusters in header order.
func (s *Store) All() []*Cluster {
	out := make([]*Cluster, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.clusters[id])
	}
	return out
}

// Len reports the number of clusters in the store.
func (s *Store) Len() int { return len(s.order) }

// Segments returns every segment of every cluster, in artifact order.
func (s *Store) Segments() []Segment {
	var out []Segment
	for _, c := range s.All() {
		out = append(out, c.Segments...)
	}
	return out
}
