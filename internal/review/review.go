// Package review implements the interactive disambiguation loop for clusters
// the resolver left unknown. It blocks until the operator answers; there is
// no timeout and no automated fallback.
package review

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/user/voiceid/internal/cluster"
)

// Player starts audio playback of the given waves and returns a function
// that stops it. Stopping an already finished playback is a no-op.
type Player interface {
	Play(ctx context.Context, waves []string) (stop func(), err error)
}

// Reviewer prompts the operator on a terminal. In, Out, and Player are
// injectable so the loop can be driven from tests.
type Reviewer struct {
	in     *bufio.Reader
	out    io.Writer
	player Player
}

func NewReviewer(in io.Reader, out io.Writer, player Player) *Reviewer {
	return &Reviewer{in: bufio.NewReader(in), out: out, player: player}
}

// Review asks the operator to identify one unresolved cluster. It returns
// the confirmed speaker name, or UnknownSpeaker when the operator skips.
func (r *Reviewer) Review(ctx context.Context, clusterID string, waves []string) (string, error) {
	fmt.Fprintf(r.out, "Cluster %s was not recognized.\n", clusterID)
	for {
		fmt.Fprintln(r.out, "Menu\n	1) Listen\n	2) Skip")
		choice, err := r.readLine("Choice: ")
		if err != nil {
			return "", err
		}
		switch choice {
		case "1":
			return r.listenAndName(ctx, clusterID, waves)
		case "2":
			return cluster.UnknownSpeaker, nil
		}
	}
}

func (r *Reviewer) listenAndName(ctx context.Context, clusterID string, waves []string) (string, error) {
	fmt.Fprintf(r.out, "Listening to %s\n", clusterID)
	stop, err := r.player.Play(ctx, waves)
	if err != nil {
		return "", fmt.Errorf("play cluster audio: %w", err)
	}
	defer func() { stop() }()

	for {
		name, err := r.readLine("Type speaker name or leave blank for unknown speaker: ")
		if err != nil {
			return "", err
		}
		if name == "" {
			name = cluster.UnknownSpeaker
		}

	confirm:
		for {
			answer, err := r.readLine(fmt.Sprintf("Save as %q? [y/n/r] ", name))
			if err != nil {
				return "", err
			}
			switch answer {
			case "y", "ye", "yes":
				return name, nil
			case "n", "no":
				break confirm
			case "r", "replay":
				stop()
				stop, err = r.player.Play(ctx, waves)
				if err != nil {
					return "", fmt.Errorf("replay cluster audio: %w", err)
				}
			default:
				fmt.Fprintln(r.out, "Yes or no, please!")
			}
		}
	}
}

func (r *Reviewer) readLine(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	line, err := r.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read operator input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
