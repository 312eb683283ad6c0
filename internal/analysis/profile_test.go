package analysis

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileStore_LoadMissingProfile(t *testing.T) {
	store := NewProfileStore(t.TempDir())

	cfg, err := store.LoadProfile("default")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestProfileStore_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	store := NewProfileStore(dir)

	cfg := DefaultConfig()
	cfg.Ambiguity.Method = MethodSentenceRatio
	cfg.Risk.Rule = RulePerMetric
	cfg.Columns = map[types.Field]string{types.FieldSprint: "Iteration"}
	cfg.Precision = 2

	require.NoError(t, store.SaveProfile("team-a", cfg))

	loaded, err := store.LoadProfile("team-a")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	names, err := store.ListProfiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"team-a"}, names)
}

func TestProfileStore_RejectsBadNames(t *testing.T) {
	store := NewProfileStore(t.TempDir())

	for _, name := range []string{"", "../etc", "a b", "x.yaml"} {
		_, err := store.LoadProfile(name)
		require.Error(t, err, name)
		assert.Equal(t, apperrors.CategoryValidation, apperrors.CategoryOf(err))
	}

	assert.Error(t, store.SaveProfile("../up", DefaultConfig()))
}

func TestProfileStore_SaveRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	store := NewProfileStore(dir)

	cfg := DefaultConfig()
	cfg.Overload.TasksPerDevCap = -1

	err := store.SaveProfile("broken", cfg)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "broken.yaml"))
}

func TestProfileStore_ListIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewProfileStore(dir)

	require.NoError(t, store.SaveProfile("b", DefaultConfig()))
	require.NoError(t, store.SaveProfile("a", DefaultConfig()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0755))

	names, err := store.ListProfiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	empty, err := NewProfileStore(filepath.Join(dir, "nope")).ListProfiles()
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		check    func(t *testing.T, cfg Config)
		category apperrors.ErrorCategory
	}{
		{
			name: "empty document yields defaults",
			yaml: "",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, DefaultConfig(), cfg)
			},
		},
		{
			name: "partial overlay keeps other defaults",
			yaml: "risk:\n  high_threshold: 0.8\nprecision: 2\n",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, 0.8, cfg.Risk.HighThreshold)
				assert.Equal(t, 0.4, cfg.Risk.MediumThreshold)
				assert.Equal(t, 2, cfg.Precision)
				assert.Equal(t, DefaultConfig().Ambiguity, cfg.Ambiguity)
			},
		},
		{
			name: "column overrides",
			yaml: "columns:\n  sprint: Iteration Path\n  estimated_hours: Original Estimate\n",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "Iteration Path", cfg.Columns[types.FieldSprint])
				assert.Equal(t, "Original Estimate", cfg.Columns[types.FieldEstimatedHours])
			},
		},
		{
			name:     "unknown key",
			yaml:     "risk:\n  hgih_threshold: 0.8\n",
			category: apperrors.CategoryConfiguration,
		},
		{
			name:     "malformed yaml",
			yaml:     "risk: [",
			category: apperrors.CategoryConfiguration,
		},
		{
			name:     "invalid values",
			yaml:     "risk:\n  medium_threshold: 0.9\n",
			category: apperrors.CategoryConfiguration,
		},
		{
			name:     "NaN weight",
			yaml:     "ambiguity:\n  weights:\n    vague_ratio: .nan\n",
			category: apperrors.CategoryConfiguration,
		},
		{
			name:     "infinite threshold",
			yaml:     "risk:\n  high_threshold: .inf\n",
			category: apperrors.CategoryConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.yaml))
			if tt.category != "" {
				require.Error(t, err)
				assert.Equal(t, tt.category, apperrors.CategoryOf(err))
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestMarshalConfig_RoundTrip(t *testing.T) {
	data, err := MarshalConfig(DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, string(data), "vague_terms:")

	cfg, err := ParseConfig(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfigFile(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryInputMissing, apperrors.CategoryOf(err))

	path := filepath.Join(dir, "p.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ambiguity:\n  method: sentence_ratio\n"), 0644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, MethodSentenceRatio, cfg.Ambiguity.Method)
}
