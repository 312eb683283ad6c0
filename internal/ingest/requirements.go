package ingest

import (
	"io"
	"os"
	"strings"
	"unicode/utf8"

	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/types"
)

const bom = "\uFEFF"

// ReadRequirements reads a requirements document. The text is returned with
// any byte order mark removed and line endings normalized to "\n".
func ReadRequirements(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", apperrors.NewIOError("failed to read requirements", err)
	}
	if !utf8.Valid(data) {
		return "", apperrors.NewIOError("requirements text is not valid UTF-8", nil)
	}

	text := strings.TrimPrefix(string(data), bom)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text, nil
}

// ReadRequirementsFile opens path and reads it with ReadRequirements.
func ReadRequirementsFile(path string) (string, error) {
	f, err := open(path, "requirements file")
	if err != nil {
		return "", err
	}
	defer apperrors.SafeClose(f, path)
	return ReadRequirements(f)
}

// ReadSprintTableFile opens path and reads it with ReadSprintTable.
func ReadSprintTableFile(path string, overrides map[types.Field]string) (types.SprintTable, error) {
	f, err := open(path, "sprint table")
	if err != nil {
		return types.SprintTable{}, err
	}
	defer apperrors.SafeClose(f, path)
	return ReadSprintTable(f, overrides)
}

func open(path, what string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewInputMissingError(what + " " + path)
		}
		return nil, apperrors.NewIOError("failed to open "+what+" "+path, err)
	}
	return f, nil
}
