// Package media wraps the external audio tools: ffmpeg for transcoding to
// the canonical waveform format and sox for trimming, concatenation, and
// playback.
package media

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/voiceid/internal/proc"
)

// Canonical waveform format required by the diarizer and feature extractor.
const (
	SampleRate = 16000
	Channels   = 1
)

// Tools invokes the audio command-line tools.
type Tools struct {
	Runner proc.Runner
}

// EnsureCanonical makes sure a canonical-format wave exists next to the
// input, transcoding when the input is another format or a wave with the
// wrong parameters. Returns the canonical wave path.
func (t Tools) EnsureCanonical(ctx context.Context, inPath string) (string, error) {
	base := strings.TrimSuffix(inPath, filepath.Ext(inPath))
	out := base + ".wav"
	if inPath == out {
		if ok, err := isCanonicalWave(inPath); err == nil && ok {
			return out, nil
		}
		// Transcode through a sibling file; ffmpeg cannot read and write
		// the same path.
		tmp := base + ".canonical.wav"
		if err := t.ToWave(ctx, inPath, tmp); err != nil {
			return "", err
		}
		if err := os.Rename(tmp, out); err != nil {
			return "", fmt.Errorf("replace wave: %w", err)
		}
		return out, nil
	}
	if err := t.ToWave(ctx, inPath, out); err != nil {
		return "", err
	}
	return out, nil
}

// ToWave converts any audio or video input into a 16 kHz mono 16-bit PCM
// wave at outPath.
func (t Tools) ToWave(ctx context.Context, inPath, outPath string) error {
	err := t.Runner.Run(ctx, "ffmpeg",
		"-y", "-i", inPath,
		"-ac", fmt.Sprint(Channels),
		"-ar", fmt.Sprint(SampleRate),
		"-sample_fmt", "s16",
		"-f", "wav",
		outPath,
	)
	if err != nil {
		return err
	}
	return proc.EnsureFile(outPath)
}

// Trim cuts [start, start+duration) out of inPath into outPath.
func (t Tools) Trim(ctx context.Context, inPath, outPath string, start, duration time.Duration) error {
	err := t.Runner.Run(ctx, "sox",
		inPath, outPath,
		"trim", formatSeconds(start), formatSeconds(duration),
	)
	if err != nil {
		return err
	}
	return proc.EnsureFile(outPath)
}

// Merge concatenates the input waves, in order, into outPath.
func (t Tools) Merge(ctx context.Context, inPaths []string, outPath string) error {
	if len(inPaths) == 0 {
		return fmt.Errorf("merge: no input waves")
	}
	args := append(append([]string{}, inPaths...), outPath)
	if err := t.Runner.Run(ctx, "sox", args...); err != nil {
		return err
	}
	return proc.EnsureFile(outPath)
}

// Play starts audio playback of the given waves and returns the running
// command so the caller can kill or await it.
func (t Tools) Play(ctx context.Context, paths []string) (*exec.Cmd, error) {
	return t.Runner.Start(ctx, "play", paths...)
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", d.Seconds())
}

// WaveDuration reads the RIFF header of a canonical wave file and reports
// its duration.
func WaveDuration(path string) (time.Duration, error) {
	header, err := readWaveHeader(path)
	if err != nil {
		return 0, err
	}
	byteRate := binary.LittleEndian.Uint32(header[28:32])
	dataSize := binary.LittleEndian.Uint32(header[40:44])
	if byteRate == 0 {
		return 0, fmt.Errorf("%s has zero byte rate", path)
	}
	secs := float64(dataSize) / float64(byteRate)
	return time.Duration(secs * float64(time.Second)), nil
}

// isCanonicalWave reports whether path is a 16-bit PCM wave with the
// canonical channel count and sample rate.
func isCanonicalWave(path string) (bool, error) {
	header, err := readWaveHeader(path)
	if err != nil {
		return false, err
	}
	format := binary.LittleEndian.Uint16(header[20:22])
	channels := binary.LittleEndian.Uint16(header[22:24])
	rate := binary.LittleEndian.Uint32(header[24:28])
	bits := binary.LittleEndian.Uint16(header[34:36])
	return format == 1 && channels == Channels && rate == SampleRate && bits == 16, nil
}

func readWaveHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wave: %w", err)
	}
	defer f.Close()

	header := make([]byte, 44)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("read wave header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%s is not a RIFF wave file", path)
	}
	return header, nil
}
