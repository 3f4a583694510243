package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/archiveloader/internal/flagx"
)

// flagSpec lists the flags parseFlags owns; true marks flags with a value.
var flagSpec = map[string]bool{
	"-d": true,
	"-w": true,
	"-u": true,
	"-p": true,
	"-g": true,
	"-e": true,
	"-l": true,
	"-m": true,
	"-s": true,
	"-t": true,
	"-n": false,
}

// parseFlags populates selected Config fields from command-line flags.
//
//	-d string   PostgreSQL DSN
//	-w string   working directory for downloaded archives
//	-u string   S3 user
//	-p string   S3 password
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//	-l string   log level
//	-m string   metadata source ("db" or "sdrf")
//	-s string   SDRF directory
//	-t duration transfer timeout
//	-n          dry run: process archives without uploading files
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("archiveloader", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.WorkDir, "w", config.WorkDir, "working directory")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 password")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.MetadataSource, "m", config.MetadataSource, "metadata source")
	fs.StringVar(&config.SDRFDir, "s", config.SDRFDir, "SDRF directory")
	fs.DurationVar(&config.TransferTimeout, "t", config.TransferTimeout, "transfer timeout")
	dryRun := fs.Bool("n", false, "do not upload files")

	if err := fs.Parse(flagx.Filter(args, flagSpec)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	if *dryRun {
		config.UploadFiles = false
	}
	return nil
}
