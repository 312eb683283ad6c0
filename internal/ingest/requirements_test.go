package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestReadRequirements(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain text", input: "The system must be fast.", expected: "The system must be fast."},
		{name: "empty", input: "", expected: ""},
		{name: "byte order mark", input: "\uFEFFMust log in.", expected: "Must log in."},
		{name: "windows line endings", input: "a\r\nb\r\n", expected: "a\nb\n"},
		{name: "old mac line endings", input: "a\rb", expected: "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := ReadRequirements(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, text)
		})
	}
}

func TestReadRequirements_Errors(t *testing.T) {
	_, err := ReadRequirements(strings.NewReader("caf\xe9 must be fast"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryIO, apperrors.CategoryOf(err))

	_, err = ReadRequirements(failingReader{})
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryIO, apperrors.CategoryOf(err))
	assert.ErrorContains(t, errors.Unwrap(err), "disk on fire")
}

func TestReadRequirementsFile(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadRequirementsFile(filepath.Join(dir, "absent.txt"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryInputMissing, apperrors.CategoryOf(err))

	path := filepath.Join(dir, "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("Must be secure.\r\n"), 0644))

	text, err := ReadRequirementsFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Must be secure.\n", text)
}
