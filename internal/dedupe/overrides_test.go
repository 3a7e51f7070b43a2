package dedupe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohen-center/survey-cli/internal/model"
)

func TestNewRegistry_Defaults(t *testing.T) {
	reg := NewRegistry()

	assert.Equal(t, OverridesVersion, reg.Version)
	assert.True(t, reg.CategoryDrop(model.RoleLeadClergy, 600357))
	assert.True(t, reg.CategoryDrop(model.RolePresident, 483018))
	assert.False(t, reg.CategoryDrop(model.RoleLeadClergy, 483018))
	assert.True(t, reg.ForceKeep(2012013))
	assert.True(t, reg.ForceDrop(11483238))
	assert.False(t, reg.ForceKeep(11483238))
}

func TestRegistry_Counts(t *testing.T) {
	counts := NewRegistry().Counts()

	assert.Equal(t, len(defaultClergyDrop), counts["clergy_drop"])
	assert.Equal(t, len(defaultPresidentDrop), counts["president_drop"])
	assert.Equal(t, len(defaultExecutiveDrop), counts["executive_drop"])
	assert.Equal(t, len(defaultForceKeep), counts["force_keep"])
	assert.Equal(t, len(defaultForceDrop), counts["force_drop"])
}

func TestRegistry_Audit(t *testing.T) {
	unmatched := NewRegistry().Audit()

	// 483238 sits in the force-drop table while the president list carries
	// 483018; the audit must surface the orphaned suffix.
	assert.Contains(t, unmatched, int64(483238))
	// Suffixes present in a category list are not reported.
	assert.NotContains(t, unmatched, int64(600357))
	assert.NotContains(t, unmatched, int64(483018))
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	content := `version: "2024.01"
clergy_drop: [111110]
president_drop: []
executive_drop: [222221]
force_keep: [4111110]
force_drop: []
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	assert.Equal(t, "2024.01", reg.Version)
	assert.True(t, reg.CategoryDrop(model.RoleLeadClergy, 111110))
	assert.True(t, reg.ForceKeep(4111110))
	// Replacement is wholesale: compiled-in entries are gone.
	assert.False(t, reg.CategoryDrop(model.RoleLeadClergy, 600357))
}

func TestLoadRegistry_MissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clergy_drop: [1]\n"), 0o644))

	_, err := LoadRegistry(path)
	assert.Error(t, err)
}

func TestLoadRegistry_FileNotFound(t *testing.T) {
	_, err := LoadRegistry("does-not-exist.yaml")
	assert.Error(t, err)
}
