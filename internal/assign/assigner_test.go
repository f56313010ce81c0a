package assign

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssign_KnownStates(t *testing.T) {
	a := NewAssigner()

	assert.Equal(t, "marcus.hale", a.Assign("OH"))
	assert.Equal(t, "elena.cruz", a.Assign("CA"))
	assert.Equal(t, "dmitri.volkov", a.Assign("TX"))
}

func TestAssign_NormalizesInput(t *testing.T) {
	a := NewAssigner()

	assert.Equal(t, a.Assign("OH"), a.Assign("oh"))
	assert.Equal(t, a.Assign("OH"), a.Assign("  Oh "))
}

func TestAssign_UnknownStateGetsDefault(t *testing.T) {
	a := NewAssigner()

	for _, state := range []string{"", "ZZ", "Ontario", "AK", "HI"} {
		assert.Equal(t, a.Default(), a.Assign(state), "state %q", state)
	}
}

func TestAssign_Deterministic(t *testing.T) {
	a := NewAssigner()

	first := a.Assign("GA")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, a.Assign("GA"))
	}
}

func TestLoadAssigner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default: pat.kim
regions:
  oh: sam.ortiz
  TX: pat.kim
`), 0o644))

	a, err := LoadAssigner(path)
	require.NoError(t, err)

	assert.Equal(t, "sam.ortiz", a.Assign("OH"))
	assert.Equal(t, "pat.kim", a.Assign("TX"))
	assert.Equal(t, "pat.kim", a.Assign("WY"))
	assert.ElementsMatch(t, []string{"pat.kim", "sam.ortiz"}, a.Technicians())
}

func TestLoadAssigner_MissingDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("regions:\n  OH: sam.ortiz\n"), 0o644))

	_, err := LoadAssigner(path)
	assert.ErrorContains(t, err, "missing default technician")
}
