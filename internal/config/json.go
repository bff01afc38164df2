package config

import (
	"encoding/json"
	"os"

	"github.com/snakecogs/cogvault/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Values
// are copied into the runtime Config after parsing.
type JsonConfig struct {
	DataDir       string `json:"data_dir"`
	Prefix        string `json:"prefix"`
	LogFile       string `json:"log_file"`
	LogLevel      string `json:"log_level"`
	CatalogFile   string `json:"catalog_file"`
	AdminSalt     string `json:"admin_salt"`
	AdminVerifier string `json:"admin_verifier"`
}

// parseJson overlays cfg with values from the JSON file named by the
// -c/-config flags. Absent flags mean no JSON is loaded. Empty JSON
// fields keep the value cfg already carries. Panics on read or
// unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JSONConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	overlay(&cfg.DataDir, jc.DataDir)
	overlay(&cfg.Prefix, jc.Prefix)
	overlay(&cfg.LogFile, jc.LogFile)
	overlay(&cfg.LogLevel, jc.LogLevel)
	overlay(&cfg.CatalogFile, jc.CatalogFile)
	overlay(&cfg.AdminSalt, jc.AdminSalt)
	overlay(&cfg.AdminVerifier, jc.AdminVerifier)
}

func overlay(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
