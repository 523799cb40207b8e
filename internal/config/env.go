package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables consulted for forge credentials.
const (
	EnvGitHubUser  = "GITHUB_USER"
	EnvGitHubToken = "GITHUB_TOKEN"
	EnvGitLabToken = "GITLAB_TOKEN"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env/.env.local from dir. Existing process variables are
// not overwritten and missing files are skipped.
func loadEnvFiles(dir string) {
	for _, name := range envFiles {
		path := name
		if dir != "" {
			path = dir + string(os.PathSeparator) + name
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("Loaded environment variables", slog.String("path", path))
	}
}

// applyEnv lets the environment override file-based secrets.
func applyEnv(s *Secrets) {
	if v := os.Getenv(EnvGitHubUser); v != "" {
		s.GitHub.User = v
	}
	if v := os.Getenv(EnvGitHubToken); v != "" {
		s.GitHub.Token = v
	}
	if v := os.Getenv(EnvGitLabToken); v != "" {
		s.GitLab.Token = v
	}
}
