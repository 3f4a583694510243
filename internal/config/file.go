package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/archiveloader/internal/flagx"
	"github.com/dmitrijs2005/archiveloader/internal/timex"
	"gopkg.in/yaml.v3"
)

type fileBuckets struct {
	Open       string `json:"open" yaml:"open"`
	Controlled string `json:"controlled" yaml:"controlled"`
}

type fileAccessTags struct {
	Open string `json:"open" yaml:"open"`
}

type fileUserInfo struct {
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
}

type fileExport struct {
	OutputKey string `json:"output_key" yaml:"output_key"`
}

type fileGDC struct {
	APIURL       string              `json:"api_url" yaml:"api_url"`
	IndexdURL    string              `json:"indexd_url" yaml:"indexd_url"`
	IndexdMax    int                 `json:"indexd_max" yaml:"indexd_max"`
	LocalDir     string              `json:"local_dir" yaml:"local_dir"`
	ManifestFile string              `json:"manifest_file" yaml:"manifest_file"`
	MaxFiles     int                 `json:"max_files" yaml:"max_files"`
	Filters      []map[string]string `json:"filters" yaml:"filters"`
}

// FileConfig is the on-disk shape of the configuration, shared by the JSON
// and YAML formats. Durations use timex.Duration so both "30s" and integer
// nanoseconds are accepted.
//
// The DTO is seeded from the current Config before decoding, so keys absent
// from the file keep their previous values.
type FileConfig struct {
	DatabaseDSN     string         `json:"database_dsn" yaml:"database_dsn"`
	S3RootUser      string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword  string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Region        string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	WorkDir         string         `json:"work_dir" yaml:"work_dir"`
	TransferTimeout timex.Duration `json:"transfer_timeout" yaml:"transfer_timeout"`
	LogLevel        string         `json:"log_level" yaml:"log_level"`
	PushGatewayURL  string         `json:"push_gateway_url" yaml:"push_gateway_url"`

	DownloadArchives bool `json:"download_archives" yaml:"download_archives"`
	UploadOpen       bool `json:"upload_open" yaml:"upload_open"`
	UploadControlled bool `json:"upload_controlled" yaml:"upload_controlled"`
	UploadFiles      bool `json:"upload_files" yaml:"upload_files"`

	Buckets          fileBuckets                    `json:"buckets" yaml:"buckets"`
	AccessTags       fileAccessTags                 `json:"access_tags" yaml:"access_tags"`
	ControlledMarker string                         `json:"controlled_marker" yaml:"controlled_marker"`
	NonUploadFiles   []string                       `json:"nonupload_files" yaml:"nonupload_files"`
	MAFUploadFiles   []string                       `json:"maf_upload_files" yaml:"maf_upload_files"`
	UploadArchives   map[string]map[string][]string `json:"upload_archives" yaml:"upload_archives"`
	ExcludeSamples   []string                       `json:"exclude_samples" yaml:"exclude_samples"`
	UserInfo         fileUserInfo                   `json:"user_info" yaml:"user_info"`

	MetadataSource string `json:"metadata_source" yaml:"metadata_source"`
	SDRFDir        string `json:"sdrf_dir" yaml:"sdrf_dir"`

	SampleCode2Letter map[string]string `json:"sample_code2letter" yaml:"sample_code2letter"`
	Export            fileExport        `json:"export" yaml:"export"`
	GDC               fileGDC           `json:"gdc" yaml:"gdc"`
}

func toFileConfig(c *Config) FileConfig {
	return FileConfig{
		DatabaseDSN:       c.DatabaseDSN,
		S3RootUser:        c.S3RootUser,
		S3RootPassword:    c.S3RootPassword,
		S3Region:          c.S3Region,
		S3BaseEndpoint:    c.S3BaseEndpoint,
		WorkDir:           c.WorkDir,
		TransferTimeout:   timex.Duration{Duration: c.TransferTimeout},
		LogLevel:          c.LogLevel,
		PushGatewayURL:    c.PushGatewayURL,
		DownloadArchives:  c.DownloadArchives,
		UploadOpen:        c.UploadOpen,
		UploadControlled:  c.UploadControlled,
		UploadFiles:       c.UploadFiles,
		Buckets:           fileBuckets{Open: c.Buckets.Open, Controlled: c.Buckets.Controlled},
		AccessTags:        fileAccessTags{Open: c.OpenAccessTag},
		ControlledMarker:  c.ControlledMarker,
		NonUploadFiles:    c.NonUploadFiles,
		MAFUploadFiles:    c.MAFUploadFiles,
		UploadArchives:    c.UploadArchives,
		ExcludeSamples:    c.ExcludeSamples,
		UserInfo:          fileUserInfo{User: c.UserInfo.User, Password: c.UserInfo.Password},
		MetadataSource:    c.MetadataSource,
		SDRFDir:           c.SDRFDir,
		SampleCode2Letter: c.SampleCode2Letter,
		Export:            fileExport{OutputKey: c.Export.OutputKey},
		GDC: fileGDC{
			APIURL:       c.GDC.APIURL,
			IndexdURL:    c.GDC.IndexdURL,
			IndexdMax:    c.GDC.IndexdMax,
			LocalDir:     c.GDC.LocalDir,
			ManifestFile: c.GDC.ManifestFile,
			MaxFiles:     c.GDC.MaxFiles,
			Filters:      c.GDC.Filters,
		},
	}
}

func (f FileConfig) apply(c *Config) {
	c.DatabaseDSN = f.DatabaseDSN
	c.S3RootUser = f.S3RootUser
	c.S3RootPassword = f.S3RootPassword
	c.S3Region = f.S3Region
	c.S3BaseEndpoint = f.S3BaseEndpoint
	c.WorkDir = f.WorkDir
	c.TransferTimeout = f.TransferTimeout.Duration
	c.LogLevel = f.LogLevel
	c.PushGatewayURL = f.PushGatewayURL
	c.DownloadArchives = f.DownloadArchives
	c.UploadOpen = f.UploadOpen
	c.UploadControlled = f.UploadControlled
	c.UploadFiles = f.UploadFiles
	c.Buckets = Buckets{Open: f.Buckets.Open, Controlled: f.Buckets.Controlled}
	c.OpenAccessTag = f.AccessTags.Open
	c.ControlledMarker = f.ControlledMarker
	c.NonUploadFiles = f.NonUploadFiles
	c.MAFUploadFiles = f.MAFUploadFiles
	c.UploadArchives = f.UploadArchives
	c.ExcludeSamples = f.ExcludeSamples
	c.UserInfo = UserInfo{User: f.UserInfo.User, Password: f.UserInfo.Password}
	c.MetadataSource = f.MetadataSource
	c.SDRFDir = f.SDRFDir
	c.SampleCode2Letter = f.SampleCode2Letter
	c.Export = ExportConfig{OutputKey: f.Export.OutputKey}
	c.GDC = GDCConfig{
		APIURL:       f.GDC.APIURL,
		IndexdURL:    f.GDC.IndexdURL,
		IndexdMax:    f.GDC.IndexdMax,
		LocalDir:     f.GDC.LocalDir,
		ManifestFile: f.GDC.ManifestFile,
		MaxFiles:     f.GDC.MaxFiles,
		Filters:      f.GDC.Filters,
	}
}

// parseFile overlays values from the file named by -c/-config. Files ending
// in .yaml or .yml are decoded as YAML, everything else as JSON. Without the
// flag nothing is loaded.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	return decodeFile(config, path, data)
}

func decodeFile(config *Config, path string, data []byte) error {
	fc := toFileConfig(config)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("decode yaml config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("decode json config %s: %w", path, err)
		}
	}

	fc.apply(config)
	return nil
}
