package cluster

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSeg = `;; cluster:S0 [ gender:M env:studio ]
show 1 0 150 M studio U S0
show 1 300 50 M studio U S0
;; cluster:S1
show 1 150 100 F studio U S1
`

func TestParseSegmentation(t *testing.T) {
	st, err := ParseSegmentation(strings.NewReader(sampleSeg))
	require.NoError(t, err)
	require.Equal(t, 2, st.Len())

	s0 := st.Get("S0")
	require.NotNil(t, s0)
	assert.Equal(t, Male, s0.Gender)
	assert.Equal(t, "studio", s0.Environment)
	require.Len(t, s0.Segments, 2)
	assert.Equal(t, 200, s0.FrameCount)
	// segments stay in file order, not time order
	assert.Equal(t, 0, s0.Segments[0].Start)
	assert.Equal(t, 300, s0.Segments[1].Start)

	s1 := st.Get("S1")
	require.NotNil(t, s1)
	assert.Equal(t, Female, s1.Gender)
	assert.Equal(t, 100, s1.FrameCount)

	// header order is preserved
	all := st.All()
	assert.Equal(t, "S0", all[0].ID)
	assert.Equal(t, "S1", all[1].ID)
}

func TestParseSegmentationFrameCountInvariant(t *testing.T) {
	st, err := ParseSegmentation(strings.NewReader(sampleSeg))
	require.NoError(t, err)
	for _, c := range st.All() {
		sum := 0
		for _, s := range c.Segments {
			sum += s.Duration
		}
		assert.Equal(t, sum, c.FrameCount, "cluster %s", c.ID)
	}
}

func TestParseSegmentationGenderFromHeader(t *testing.T) {
	st, err := ParseSegmentation(strings.NewReader(";; cluster:S0 gender:F environment:phone\n"))
	require.NoError(t, err)
	c := st.Get("S0")
	require.NotNil(t, c)
	assert.Equal(t, Female, c.Gender)
	assert.Equal(t, "phone", c.Environment)
	assert.Empty(t, c.Segments)
}

func TestParseSegmentationMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"data before header", "show 1 0 100 M studio U S0\n"},
		{"too few fields", ";; cluster:S0\nshow 1 0 100\n"},
		{"start not integer", ";; cluster:S0\nshow 1 x 100 M studio U S0\n"},
		{"duration not integer", ";; cluster:S0\nshow 1 0 x M studio U S0\n"},
		{"header without cluster id", ";; gender:M\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSegmentation(strings.NewReader(tc.input))
			require.Error(t, err)
			var malformed *MalformedArtifactError
			assert.ErrorAs(t, err, &malformed)
		})
	}
}

func TestParseGender(t *testing.T) {
	assert.Equal(t, Male, ParseGender("M"))
	assert.Equal(t, Female, ParseGender("F"))
	assert.Equal(t, GenderUnknown, ParseGender("U"))
	assert.Equal(t, GenderUnknown, ParseGender("x"))
	assert.Equal(t, GenderUnknown, ParseGender(""))
}
