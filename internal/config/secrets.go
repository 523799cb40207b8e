package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/updatesnap/internal/foundation/errors"
)

// SecretsFile is the name of the credentials file.
const SecretsFile = "updatesnap.secrets"

// Secrets holds forge credentials.
//
//	github:
//	  user: octocat
//	  token: ghp_xxx
//	gitlab:
//	  token: glpat-xxx
type Secrets struct {
	GitHub GitHubSecrets `yaml:"github"`
	GitLab GitLabSecrets `yaml:"gitlab"`
}

type GitHubSecrets struct {
	User  string `yaml:"user"`
	Token string `yaml:"token"`
}

type GitLabSecrets struct {
	Token string `yaml:"token"`
}

// LoadSecrets reads the first existing file among paths, then applies
// environment overrides. No file at all yields anonymous access.
func LoadSecrets(paths ...string) (*Secrets, error) {
	s := &Secrets{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read secrets").
				Fatal().
				WithContext("path", path).
				Build()
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse secrets").
				Fatal().
				WithContext("path", path).
				Build()
		}
		break
	}
	applyEnv(s)
	return s, nil
}
