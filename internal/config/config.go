package config

// Config holds runtime settings for the cogvault console host.
//
// Fields:
//   - DataDir: directory holding the JSON store documents.
//   - Prefix: command prefix the REPL strips before dispatching.
//   - LogFile: path of the structured log file.
//   - LogLevel: debug, info, warn or error.
//   - CatalogFile: path of the armorsmith item catalog.
//   - AdminSalt / AdminVerifier: base64 argon2id material for the admin
//     passphrase; both empty disables elevation.
type Config struct {
	DataDir       string
	Prefix        string
	LogFile       string
	LogLevel      string
	CatalogFile   string
	AdminSalt     string
	AdminVerifier string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = "data"
	c.Prefix = "!"
	c.LogFile = "data/cogvault.log"
	c.LogLevel = "info"
	c.CatalogFile = "data/items.json"
	c.AdminSalt = ""
	c.AdminVerifier = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
