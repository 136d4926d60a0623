// internal/config/model.go
//
// Typed configuration model for Vellum.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `conf/.env`                     – dotenv values,
//   • `conf/site.yaml`                         – primary static file,
//   • `VELLUM_`-prefixed environment overrides – highest precedence.
//
// Validation happens immediately after unmarshal; the build fails fast
// if required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • `Paths.Root` is filled at runtime; YAML must not try to set it.

package config

import "path/filepath"

//
// Site section
//

// Site holds site-wide values that flow into rendering: the absolute-URL
// origin, the timezone for localized datetimes, and the <head> metadata
// defaults every page inherits.
type Site struct {
	Name      string         `koanf:"name"`
	URLOrigin string         `koanf:"url_origin" validate:"required,url"`
	Timezone  string         `koanf:"timezone"`
	CodeStyle string         `koanf:"code_style"` // chroma style for fenced code
	Metadata  map[string]any `koanf:"metadata"`
}

//
// Serve section
//

// Serve holds dev-server tunables.
type Serve struct {
	ListenAddr string `koanf:"listen_addr" validate:"omitempty,hostname_port"`
	Watch      bool   `koanf:"watch"`
}

//
// Paths section
//

// Paths names the source and output directories, all relative to Root.
// Root itself is resolved at runtime—never set in YAML or env.
type Paths struct {
	Root     string `koanf:"-"`
	Views    string `koanf:"views"`
	Markdown string `koanf:"markdown"`
	Store    string `koanf:"store"`
	Styles   string `koanf:"styles"`
	Scripts  string `koanf:"scripts"`
	Images   string `koanf:"images"`
	Favicon  string `koanf:"favicon"`
	Build    string `koanf:"build"`
}

// Abs resolves a configured path against the discovered root.
func (p Paths) Abs(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Root, rel)
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the build lifetime.
type Config struct {
	Site  Site  `koanf:"site"`
	Serve Serve `koanf:"serve"`
	Paths Paths `koanf:"paths"`
}

// defaults fills every unset field with the conventional project layout.
func (c *Config) defaults() {
	def := func(field *string, val string) {
		if *field == "" {
			*field = val
		}
	}
	def(&c.Paths.Views, "views")
	def(&c.Paths.Markdown, "markdown")
	def(&c.Paths.Store, "store")
	def(&c.Paths.Styles, filepath.Join("assets", "styles"))
	def(&c.Paths.Scripts, filepath.Join("assets", "scripts"))
	def(&c.Paths.Images, filepath.Join("assets", "images"))
	def(&c.Paths.Favicon, filepath.Join("assets", "favicon.ico"))
	def(&c.Paths.Build, "build")
	def(&c.Serve.ListenAddr, ":8080")
	def(&c.Site.Name, "Vellum")
}
