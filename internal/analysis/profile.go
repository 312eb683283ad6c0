package analysis

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"gopkg.in/yaml.v3"
)

const profileExt = ".yaml"

var profileName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ProfileStore manages named scoring profiles stored as YAML files
type ProfileStore struct {
	dataDir string
}

// NewProfileStore creates a store rooted at dataDir
func NewProfileStore(dataDir string) *ProfileStore {
	return &ProfileStore{dataDir: dataDir}
}

func (s *ProfileStore) path(name string) (string, error) {
	if !profileName.MatchString(name) {
		return "", apperrors.NewValidationError(fmt.Sprintf("invalid profile name %q", name))
	}
	return filepath.Join(s.dataDir, name+profileExt), nil
}

// LoadProfile loads a named profile. A profile without a file yields the defaults.
func (s *ProfileStore) LoadProfile(name string) (Config, error) {
	filePath, err := s.path(name)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("failed to read profile %s: %w", name, err)
	}

	return ParseConfig(data)
}

// SaveProfile validates cfg and writes it as a named profile
func (s *ProfileStore) SaveProfile(name string, cfg Config) error {
	filePath, err := s.path(name)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	data, err := MarshalConfig(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write profile %s: %w", name, err)
	}
	return nil
}

// ListProfiles returns the stored profile names, sorted
func (s *ProfileStore) ListProfiles() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), profileExt) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), profileExt)
		if profileName.MatchString(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadConfigFile reads a profile from an explicit path. Unlike LoadProfile a
// missing file is an error.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, apperrors.NewInputMissingError("profile file " + path)
		}
		return Config{}, apperrors.NewIOError("failed to read profile "+path, err)
	}
	return ParseConfig(data)
}

// ParseConfig overlays YAML onto DefaultConfig and validates the result.
// Keys absent from the document keep their defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, apperrors.NewConfigurationError("failed to decode profile", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MarshalConfig renders cfg as YAML
func MarshalConfig(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}
	return buf.Bytes(), nil
}
