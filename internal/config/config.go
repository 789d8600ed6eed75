package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileName is the rc file read from and written to the user's home
// directory.
const FileName = ".slackmirrorrc.json"

const jsonIndent = "    "

// Config is the persisted rc file plus the environment-only settings of the
// process (token, port, logging). JSON tags cover only what the rc file
// stores.
type Config struct {
	ArchiveFolder           string `json:"folder"`
	SaveEmptyConversations  bool   `json:"empty_save"`
	SaveNonmemberChannels   bool   `json:"nonmember_save"`
	UseComparativeSentiment bool   `json:"comparative_sentiment"`
	UseCounterpartColor     bool   `json:"use_user_color"`
	FileRetentionDays       int    `json:"file_days_to_save"`

	SlackToken string `json:"-"`
	Port       string `json:"-"`
	LogLevel   string `json:"-"`
	LogFormat  string `json:"-"`
}

// Load reads the rc file at path, fills defaults for anything it omits and
// applies environment overrides on top. A missing rc file is not an error;
// defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ArchiveFolder:     defaultArchiveFolder(),
		FileRetentionDays: 30,
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if folder := os.Getenv("ARCHIVE_FOLDER"); folder != "" {
		cfg.ArchiveFolder = folder
	}
	if days := os.Getenv("FILE_RETENTION_DAYS"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil {
			return nil, fmt.Errorf("FILE_RETENTION_DAYS: %w", err)
		}
		cfg.FileRetentionDays = n
	}
	cfg.SlackToken = os.Getenv("SLACK_TOKEN")
	cfg.Port = getEnvOrDefault("PORT", "8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "INFO")
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", "text")

	return cfg, nil
}

// DefaultPath is the rc file location in the user's home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(home, FileName)
}

// Save writes the persisted settings back to the rc file, pretty-printed the
// same way the archive files are.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", jsonIndent)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	var problems []string

	if c.ArchiveFolder == "" {
		problems = append(problems, "archive folder is required")
	}

	if c.FileRetentionDays < 0 {
		problems = append(problems, "file retention days must not be negative")
	}

	// The token is optional: search, analytics and export work offline. When
	// it is set it has to look like a Slack token.
	if c.SlackToken != "" && !strings.HasPrefix(c.SlackToken, "xox") {
		problems = append(problems, "SLACK_TOKEN must start with 'xox'")
	}

	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	if !contains(validLogLevels, strings.ToUpper(c.LogLevel)) {
		problems = append(problems, "LOG_LEVEL must be one of: DEBUG, INFO, WARN, ERROR")
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, strings.ToLower(c.LogFormat)) {
		problems = append(problems, "LOG_FORMAT must be one of: text, json")
	}

	if len(problems) > 0 {
		return errors.New(problems[0])
	}

	return nil
}

func defaultArchiveFolder() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "SlackMirror"
	}
	return filepath.Join(home, "SlackMirror")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
