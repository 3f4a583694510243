package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables carrying secrets. They override file values.
const (
	EnvDatabaseDSN     = "ARCHIVELOADER_DATABASE_DSN"
	EnvS3User          = "ARCHIVELOADER_S3_USER"
	EnvS3Password      = "ARCHIVELOADER_S3_PASSWORD"
	EnvArchiveUser     = "ARCHIVELOADER_ARCHIVE_USER"
	EnvArchivePassword = "ARCHIVELOADER_ARCHIVE_PASSWORD"
)

// dotenvFiles are loaded before reading the environment; a missing file is
// not an error. Variables already set in the process win over the file.
var dotenvFiles = []string{".env"}

func parseEnv(config *Config) error {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	overlay := []struct {
		name string
		dst  *string
	}{
		{EnvDatabaseDSN, &config.DatabaseDSN},
		{EnvS3User, &config.S3RootUser},
		{EnvS3Password, &config.S3RootPassword},
		{EnvArchiveUser, &config.UserInfo.User},
		{EnvArchivePassword, &config.UserInfo.Password},
	}
	for _, o := range overlay {
		if v, ok := os.LookupEnv(o.name); ok {
			*o.dst = v
		}
	}
	return nil
}
