package pipeline

import (
	"context"
	"sync"

	"github.com/user/voiceid/internal/media"
)

// soxPlayer plays cluster audio through the external player during review.
type soxPlayer struct {
	tools media.Tools
}

func (p soxPlayer) Play(ctx context.Context, waves []string) (func(), error) {
	cmd, err := p.tools.Play(ctx, waves)
	if err != nil {
		return nil, err
	}
	var once sync.Once
	stop := func() {
		once.Do(func() {
			if cmd.Process != nil {
				cmd.Process.Kill()
			}
			cmd.Wait()
		})
	}
	return stop, nil
}
