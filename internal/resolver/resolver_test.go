package resolver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifacts(t *testing.T, selectors, instructions string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	selPath := filepath.Join(dir, "selectors.yaml")
	insPath := filepath.Join(dir, "instructions.yaml")
	require.NoError(t, os.WriteFile(selPath, []byte(selectors), 0o644))
	require.NoError(t, os.WriteFile(insPath, []byte(instructions), 0o644))
	return selPath, insPath
}

const testSelectors = `
elements:
  login_button:
    - "#wp-submit"
    - "input[type='submit']"
  editor_title:
    - "#title"
`

const testInstructions = `
actions:
  fill_field: 'Set the field "{{field}}" to {{value}}.'
  open_new_post: Open the new post screen.
`

func TestSelectorsOrderPreserved(t *testing.T) {
	selPath, insPath := writeArtifacts(t, testSelectors, testInstructions)
	r, err := Load(selPath, insPath)
	require.NoError(t, err)

	cands, err := r.Snapshot().Selectors("login_button")
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"#wp-submit", "input[type='submit']"}, cands); diff != "" {
		t.Errorf("candidate order mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectorsMissingKey(t *testing.T) {
	selPath, insPath := writeArtifacts(t, testSelectors, testInstructions)
	r, err := Load(selPath, insPath)
	require.NoError(t, err)

	_, err = r.Snapshot().Selectors("no_such_element")
	var lookupErr *LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, "no_such_element", lookupErr.Key)
	assert.Equal(t, "selector", lookupErr.Artifact)
}

func TestInstructionRendering(t *testing.T) {
	selPath, insPath := writeArtifacts(t, testSelectors, testInstructions)
	r, err := Load(selPath, insPath)
	require.NoError(t, err)

	out, err := r.Snapshot().Instruction("fill_field", map[string]string{
		"field": "title",
		"value": "Sample Post",
	})
	require.NoError(t, err)
	assert.Equal(t, `Set the field "title" to Sample Post.`, out)
}

func TestInstructionNoParams(t *testing.T) {
	selPath, insPath := writeArtifacts(t, testSelectors, testInstructions)
	r, err := Load(selPath, insPath)
	require.NoError(t, err)

	out, err := r.Snapshot().Instruction("open_new_post", nil)
	require.NoError(t, err)
	assert.Equal(t, "Open the new post screen.", out)
}

func TestInstructionUnboundPlaceholder(t *testing.T) {
	selPath, insPath := writeArtifacts(t, testSelectors, testInstructions)
	r, err := Load(selPath, insPath)
	require.NoError(t, err)

	_, err = r.Snapshot().Instruction("fill_field", map[string]string{"field": "title"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value")
}

func TestInstructionMissingKey(t *testing.T) {
	selPath, insPath := writeArtifacts(t, testSelectors, testInstructions)
	r, err := Load(selPath, insPath)
	require.NoError(t, err)

	_, err = r.Snapshot().Instruction("no_such_action", nil)
	var lookupErr *LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, "instruction", lookupErr.Artifact)
}

func TestReloadKeepsPreviousSnapshotOnBadEdit(t *testing.T) {
	selPath, insPath := writeArtifacts(t, testSelectors, testInstructions)
	r, err := Load(selPath, insPath)
	require.NoError(t, err)
	before := r.Snapshot()

	require.NoError(t, os.WriteFile(selPath, []byte(":::not yaml"), 0o644))
	require.Error(t, r.Reload())
	assert.Same(t, before, r.Snapshot())
}

func TestReloadSwapsSnapshot(t *testing.T) {
	selPath, insPath := writeArtifacts(t, testSelectors, testInstructions)
	r, err := Load(selPath, insPath)
	require.NoError(t, err)

	updated := testSelectors + `
  dashboard:
    - "#wpadminbar"
`
	require.NoError(t, os.WriteFile(selPath, []byte(updated), 0o644))
	require.NoError(t, r.Reload())

	cands, err := r.Snapshot().Selectors("dashboard")
	require.NoError(t, err)
	assert.Equal(t, []string{"#wpadminbar"}, cands)
}

func TestLoadEmptyArtifact(t *testing.T) {
	selPath, insPath := writeArtifacts(t, "elements: {}\n", testInstructions)
	_, err := Load(selPath, insPath)
	require.Error(t, err)
}
