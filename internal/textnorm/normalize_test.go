package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairNoiseLongest(t *testing.T) {
	noise := PairNoise(
		[]string{"Cap A"},
		[]string{"Credit A", "Credit B"},
		[]string{"(c) Reuters", "(c) AFP", "(c) PA"},
	)

	assert.Len(t, noise, 3)
	assert.Equal(t, Noise{Caption: "Cap A", Credit: "Credit A", Copyright: "(c) Reuters"}, noise[0])
	assert.Equal(t, Noise{Caption: "", Credit: "Credit B", Copyright: "(c) AFP"}, noise[1])
	assert.Equal(t, Noise{Copyright: "(c) PA"}, noise[2])
}

func TestPairNoiseEmpty(t *testing.T) {
	assert.Empty(t, PairNoise(nil, nil, nil))
}

func TestFragmentsOrderSkipsEmpty(t *testing.T) {
	got := Fragments([]Noise{
		{Caption: "cap", Credit: "cred", Copyright: "copy"},
		{Credit: "only"},
	})
	assert.Equal(t, []string{"cred", "cap", "copy", "only"}, got)
}

func TestNormalizeRemovesNoise(t *testing.T) {
	paragraphs := []string{
		"Ministers met today.Image caption, Protesters outsideGetty Images\nTalks continue.",
		"No figure here.\n",
	}
	fragments := Fragments(PairNoise(
		[]string{"Image caption, "},
		[]string{"Protesters outside"},
		[]string{"Getty Images"},
	))

	got := Normalize(paragraphs, fragments)

	assert.Equal(t, []string{
		"Ministers met today.Talks continue.",
		"No figure here.",
	}, got)
}

func TestNormalizeNoFragmentsOnlyStripsNewlines(t *testing.T) {
	paragraphs := []string{"line one\nline two", "plain", "\r\n"}
	assert.Equal(t, []string{"line oneline two", "plain", ""}, Normalize(paragraphs, nil))
	assert.Equal(t, []string{"line oneline two", "plain", ""}, Normalize(paragraphs, []string{}))
}

func TestNormalizeIdempotent(t *testing.T) {
	paragraphs := []string{"aabb text ab", "caption caption\nbody", "x"}
	fragments := []string{"ab", "caption ", ""}

	once := Normalize(paragraphs, fragments)
	twice := Normalize(once, fragments)

	assert.Equal(t, once, twice)
	// nested occurrence "aabb" collapses fully
	assert.Equal(t, " text ", once[0])
}

func TestRemoveEmptyFragmentIsNoop(t *testing.T) {
	assert.Equal(t, "unchanged", Remove("unchanged", []string{""}))
}

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseSpace("  a \n b\t\tc "))
}
