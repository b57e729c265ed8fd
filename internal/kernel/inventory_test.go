package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mhwdListing = `Currently running: 6.1.12-1-MANJARO (linux61)
The following kernels are installed in your system:
   * linux515
   * linux61
   * linux54
`

func TestComputeRemovable_ExcludesRunning(t *testing.T) {
	for _, mode := range []MatchMode{MatchExact, MatchSubstring} {
		got := ComputeRemovable("linux60", "linux515\nlinux60 (running)\n", mode)
		assert.Equal(t, []Entry{{Identifier: "linux515"}}, got, mode.String())
	}
}

func TestComputeRemovable_MhwdListing(t *testing.T) {
	running := RunningFromListing(mhwdListing)
	require.Equal(t, "linux61", running)

	got := ComputeRemovable(running, mhwdListing, MatchExact)

	assert.Equal(t, []string{"linux515", "linux54"}, Identifiers(got))
}

const rtListing = `Currently running: 5.15.85-1-MANJARO (linux515)
The following kernels are installed in your system:
   * linux515
   * linux61-rt
   * linux61
`

func TestComputeRemovable_RealtimeVariant(t *testing.T) {
	running := RunningFromListing(rtListing)
	require.Equal(t, "linux515", running)

	got := ComputeRemovable(running, rtListing, MatchExact)

	assert.Equal(t, []string{"linux61-rt", "linux61"}, Identifiers(got))
}

func TestRunningFromListing_RealtimeVariant(t *testing.T) {
	listing := "Currently running: 6.1.12-rt7-1-MANJARO (linux61-rt)\n   * linux61-rt\n   * linux61\n"

	running := RunningFromListing(listing)
	require.Equal(t, "linux61-rt", running)
	assert.Equal(t, []string{"linux61"}, Identifiers(ComputeRemovable(running, listing, MatchExact)))
}

func TestComputeRemovable_Empty(t *testing.T) {
	for _, listing := range []string{"", "\n\n", "no kernels here\nlts only"} {
		got := ComputeRemovable("linux61", listing, MatchExact)
		assert.Empty(t, got)
	}
}

func TestComputeRemovable_UnknownRunningRemovesNothing(t *testing.T) {
	assert.Empty(t, ComputeRemovable("", mhwdListing, MatchExact))
	assert.Empty(t, ComputeRemovable("  ", mhwdListing, MatchSubstring))
}

func TestComputeRemovable_SubstringOverlap(t *testing.T) {
	listing := "* linux5\n* linux515\n* linux61\n"

	exact := ComputeRemovable("linux5", listing, MatchExact)
	substring := ComputeRemovable("linux5", listing, MatchSubstring)

	assert.Equal(t, []string{"linux515", "linux61"}, Identifiers(exact))
	// Legacy containment also treats linux515 as running.
	assert.Equal(t, []string{"linux61"}, Identifiers(substring))
}

func TestComputeRemovable_NeverIncludesRunning(t *testing.T) {
	listings := []string{
		mhwdListing,
		"linux61\nlinux61\nlinux515",
		"linux61 (running)\nlinux515",
		"   * linux61-rt\n   * linux61",
	}
	for _, listing := range listings {
		for _, mode := range []MatchMode{MatchExact, MatchSubstring} {
			for _, e := range ComputeRemovable("linux61", listing, mode) {
				assert.NotEqual(t, "linux61", e.Identifier, "listing %q mode %s", listing, mode)
			}
		}
	}
}

func TestParse_DeduplicatesAndFlags(t *testing.T) {
	got := Parse("linux61", mhwdListing, MatchExact)

	assert.Equal(t, []Entry{
		{Identifier: "linux61", Running: true},
		{Identifier: "linux515"},
		{Identifier: "linux54"},
	}, got)
}

func TestRunningFromRelease(t *testing.T) {
	tests := map[string]string{
		"6.1.12-1-MANJARO":  "linux61",
		"5.15.89-1-MANJARO": "linux515",
		"6.10.2-arch1-1":    "linux610",
		"garbage":           "",
		"":                  "",
	}
	for release, want := range tests {
		assert.Equal(t, want, RunningFromRelease(release), release)
	}
}

func TestRunningFromListing_Missing(t *testing.T) {
	assert.Empty(t, RunningFromListing("* linux61\n* linux515"))
}

func TestParseMatchMode(t *testing.T) {
	m, err := ParseMatchMode("Substring")
	require.NoError(t, err)
	assert.Equal(t, MatchSubstring, m)

	m, err = ParseMatchMode("")
	require.NoError(t, err)
	assert.Equal(t, MatchExact, m)

	_, err = ParseMatchMode("fuzzy")
	assert.Error(t, err)
}
