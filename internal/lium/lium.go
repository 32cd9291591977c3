// Package lium wraps the LIUM SpkDiarization toolkit (diarization, model
// training, likelihood scoring) and the sphinx feature extractor. The core
// never inspects model or feature contents; it only invokes these tools and
// verifies their output artifacts.
package lium

import (
	"context"
	"fmt"

	"github.com/user/voiceid/internal/proc"
)

// featureDesc describes the acoustic feature layout shared by training and
// scoring, as required by the toolkit.
const (
	trainFeatureDesc = "audio16kHz2sphinx,1:3:2:0:0:0,13,1:1:300:4"
	scoreFeatureDesc = "audio16kHz2sphinx,1:3:2:0:0:0,13,1:0:300:4"
)

// Tool invokes the external acoustic toolchain.
type Tool struct {
	Jar    string // LIUM SpkDiarization jar
	UBM    string // background acoustic model
	Runner proc.Runner
}

// Diarize segments base.wav into speaker clusters, writing base.seg.
func (t Tool) Diarize(ctx context.Context, base string) error {
	err := t.Runner.Run(ctx, "java",
		"-Xmx2024m", "-jar", t.Jar,
		"--fInputMask=%s.wav",
		"--sOutputMask=%s.seg",
		"--doCEClustering",
		base,
	)
	if err != nil {
		return err
	}
	return proc.EnsureFile(base + ".seg")
}

// ExtractFeatures computes acoustic features for base.wav into base.mfcc.
func (t Tool) ExtractFeatures(ctx context.Context, base string) error {
	err := t.Runner.Run(ctx, "sphinx_fe",
		"-verbose", "no",
		"-mswav", "yes",
		"-i", base+".wav",
		"-o", base+".mfcc",
	)
	if err != nil {
		return err
	}
	return proc.EnsureFile(base + ".mfcc")
}

// TrainInit seeds a speaker model from the background model, writing
// base.init.gmm from base.ident.seg and base.wav.
func (t Tool) TrainInit(ctx context.Context, base string) error {
	err := t.Runner.Run(ctx, "java",
		"-Xmx256m", "-cp", t.Jar,
		"fr.lium.spkDiarization.programs.MTrainInit",
		"--sInputMask=%s.ident.seg",
		"--fInputMask=%s.wav",
		"--fInputDesc="+trainFeatureDesc,
		"--emInitMethod=copy",
		"--tInputMask="+t.UBM,
		"--tOutputMask=%s.init.gmm",
		base,
	)
	if err != nil {
		return err
	}
	return proc.EnsureFile(base + ".init.gmm")
}

// TrainMAP adapts the seeded model to the speaker's features, writing
// base.gmm.
func (t Tool) TrainMAP(ctx context.Context, base string) error {
	err := t.Runner.Run(ctx, "java",
		"-Xmx256m", "-cp", t.Jar,
		"fr.lium.spkDiarization.programs.MTrainMAP",
		"--sInputMask=%s.ident.seg",
		"--fInputMask=%s.mfcc",
		"--fInputDesc="+trainFeatureDesc,
		"--tInputMask=%s.init.gmm",
		"--emCtrl=1,5,0.01",
		"--varCtrl=0.01,10.0",
		"--tOutputMask=%s.gmm",
		base,
	)
	if err != nil {
		return err
	}
	return proc.EnsureFile(base + ".gmm")
}

// Score matches the cluster features at base against one voice model,
// writing a scored segmentation to base.<tag>.seg. The output path is
// returned for parsing.
func (t Tool) Score(ctx context.Context, base, modelPath, tag string) (string, error) {
	outPath := base + "." + tag + ".seg"
	err := t.Runner.Run(ctx, "java",
		"-Xmx256M", "-Xms256M", "-cp", t.Jar,
		"fr.lium.spkDiarization.programs.MScore",
		"--sInputMask=%s.seg",
		"--fInputMask=%s.mfcc",
		"--sOutputMask=%s."+tag+".seg",
		"--sOutputFormat=seg,UTF8",
		"--fInputDesc="+scoreFeatureDesc,
		"--tInputMask="+modelPath,
		fmt.Sprintf("--sTop=8,%s", t.UBM),
		"--sSetLabel=add",
		"--sByCluster",
		base,
	)
	if err != nil {
		return "", err
	}
	return outPath, proc.EnsureFile(outPath)
}
