package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/commentcloud/pkg/commentcloud/internalerr"
)

// Credentials is the credential file layout.
type Credentials struct {
	YouTubeAPIKey string `json:"youtube-comments-api-key"`
}

// LoadCredentials reads the API credential JSON file.
func LoadCredentials(path string) (Credentials, error) {
	var creds Credentials
	data, err := os.ReadFile(path)
	if err != nil {
		return creds, missing(path, err)
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return creds, fmt.Errorf("%w: parse %s: %v", internalerr.ErrConfigMissing, path, err)
	}
	if creds.YouTubeAPIKey == "" {
		return creds, fmt.Errorf("%w: %s has no youtube-comments-api-key", internalerr.ErrConfigMissing, path)
	}
	return creds, nil
}

// Stoplist represents the YAML stop-word list layout
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStopwords reads a stop-word list. .yaml and .yml files hold a Stoplist;
// anything else is a JSON array of words.
func LoadStopwords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, missing(path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var sl Stoplist
		if err := yaml.Unmarshal(data, &sl); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", internalerr.ErrConfigMissing, path, err)
		}
		return sl.Terms, nil
	default:
		var words []string
		if err := json.Unmarshal(data, &words); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", internalerr.ErrConfigMissing, path, err)
		}
		return words, nil
	}
}
