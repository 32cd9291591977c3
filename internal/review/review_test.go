package review

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/voiceid/internal/cluster"
)

type fakePlayer struct {
	plays int
	stops int
}

func (p *fakePlayer) Play(ctx context.Context, waves []string) (func(), error) {
	p.plays++
	return func() { p.stops++ }, nil
}

func reviewWith(t *testing.T, input string) (string, *fakePlayer) {
	t.Helper()
	player := &fakePlayer{}
	r := NewReviewer(strings.NewReader(input), &strings.Builder{}, player)
	name, err := r.Review(context.Background(), "S0", []string{"a.wav"})
	require.NoError(t, err)
	return name, player
}

func TestReviewSkip(t *testing.T) {
	name, player := reviewWith(t, "2\n")
	assert.Equal(t, cluster.UnknownSpeaker, name)
	assert.Zero(t, player.plays)
}

func TestReviewListenAndConfirm(t *testing.T) {
	name, player := reviewWith(t, "1\nalice\ny\n")
	assert.Equal(t, "alice", name)
	assert.Equal(t, 1, player.plays)
	assert.Equal(t, 1, player.stops)
}

func TestReviewBlankNameIsUnknown(t *testing.T) {
	name, _ := reviewWith(t, "1\n\nyes\n")
	assert.Equal(t, cluster.UnknownSpeaker, name)
}

func TestReviewRejectReprompts(t *testing.T) {
	name, _ := reviewWith(t, "1\nalice\nn\nbob\ny\n")
	assert.Equal(t, "bob", name)
}

func TestReviewReplay(t *testing.T) {
	name, player := reviewWith(t, "1\nalice\nr\ny\n")
	assert.Equal(t, "alice", name)
	assert.Equal(t, 2, player.plays)
	assert.Equal(t, 2, player.stops)
}

func TestReviewBadConfirmationReprompts(t *testing.T) {
	name, _ := reviewWith(t, "1\nalice\nmaybe\ny\n")
	assert.Equal(t, "alice", name)
}

func TestReviewUnknownMenuChoiceReprompts(t *testing.T) {
	name, _ := reviewWith(t, "7\n2\n")
	assert.Equal(t, cluster.UnknownSpeaker, name)
}

func TestReviewEOFIsError(t *testing.T) {
	r := NewReviewer(strings.NewReader(""), &strings.Builder{}, &fakePlayer{})
	_, err := r.Review(context.Background(), "S0", nil)
	require.Error(t, err)
}
