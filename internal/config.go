package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/highlights"
	"github.com/starford/raido/internal/reader"
	"github.com/starford/raido/internal/syncer"
	"github.com/starford/raido/internal/template"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Vault VaultConfig       `yaml:"vault"`
	Index IndexConfig       `yaml:"index"`
	Auth  AuthConfig        `yaml:"auth"`
	Sync  SyncConfig        `yaml:"sync"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Sync.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// IndexConfig holds the SQLite article catalog configuration.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// SyncConfig holds everything the sync engine needs: the remote API,
// the fetch filter, the rendering templates, and the persisted cursor.
type SyncConfig struct {
	APIKey      string `yaml:"api_key"`
	Endpoint    string `yaml:"endpoint"`
	Filter      string `yaml:"filter"`
	CustomQuery string `yaml:"custom_query"`

	// Frequency is the background sync interval in minutes; 0 disables it.
	Frequency int `yaml:"frequency"`

	Template             string   `yaml:"template"`
	FrontMatterTemplate  string   `yaml:"front_matter_template"`
	FrontMatterVariables []string `yaml:"front_matter_variables"`
	HighlightOrder       string   `yaml:"highlight_order"`

	Folder           string `yaml:"folder"`
	Filename         string `yaml:"filename"`
	AttachmentFolder string `yaml:"attachment_folder"`

	FolderDateFormat      string `yaml:"folder_date_format"`
	FilenameDateFormat    string `yaml:"filename_date_format"`
	DateSavedFormat       string `yaml:"date_saved_format"`
	DateHighlightedFormat string `yaml:"date_highlighted_format"`

	IsSingleFile bool `yaml:"is_single_file"`

	// SyncAt is the incremental cursor: the start time of the last
	// successful run. Syncing marks a run in flight and is reset on
	// startup so a crash never wedges the engine.
	SyncAt  string `yaml:"sync_at"`
	Syncing bool   `yaml:"syncing"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required),
		validation.Field(&c.Filter, validation.Required, validation.In(
			string(reader.FilterAll),
			string(reader.FilterHighlights),
			string(reader.FilterArchived),
			string(reader.FilterLibrary),
			string(reader.FilterAdvanced),
		)),
		validation.Field(&c.HighlightOrder, validation.Required, validation.In(
			string(highlights.OrderLocation),
			string(highlights.OrderTime),
		)),
		validation.Field(&c.Frequency, validation.Min(0)),
		validation.Field(&c.Folder, validation.Required),
		validation.Field(&c.Filename, validation.Required),
	)
}

// RequireAPIKey reports whether an API key is configured; operations
// that talk to the remote call this before doing any work.
func (c *SyncConfig) RequireAPIKey() error {
	if c.APIKey == "" {
		return apperr.ErrMissingAPIKey
	}
	return nil
}

// TemplateConfig maps the sync settings onto the renderer configuration.
func (c *SyncConfig) TemplateConfig() template.Config {
	return template.Config{
		Template:              c.Template,
		FrontMatterTemplate:   c.FrontMatterTemplate,
		FrontMatterVariables:  c.FrontMatterVariables,
		HighlightOrder:        highlights.Order(c.HighlightOrder),
		DateSavedFormat:       c.DateSavedFormat,
		DateHighlightedFormat: c.DateHighlightedFormat,
		FolderDateFormat:      c.FolderDateFormat,
		FilenameDateFormat:    c.FilenameDateFormat,
		Folder:                c.Folder,
		Filename:              c.Filename,
		AttachmentFolder:      c.AttachmentFolder,
		IsSingleFile:          c.IsSingleFile,
	}
}

// SyncerConfig maps the sync settings onto the engine configuration.
func (c *SyncConfig) SyncerConfig() syncer.Config {
	return syncer.Config{
		Filter:       reader.Filter(c.Filter),
		CustomQuery:  c.CustomQuery,
		IsSingleFile: c.IsSingleFile,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		Index: IndexConfig{
			Path: "./raido.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Sync: SyncConfig{
			Endpoint:              "https://api-prod.omnivore.app/api/graphql",
			Filter:                string(reader.FilterHighlights),
			Frequency:             0,
			Template:              template.DefaultTemplate,
			HighlightOrder:        string(highlights.OrderLocation),
			Folder:                "Raido/{{{date}}}",
			Filename:              "{{{title}}}",
			AttachmentFolder:      "Raido/attachments",
			FolderDateFormat:      "yyyy-MM-dd",
			FilenameDateFormat:    "yyyy-MM-dd",
			DateSavedFormat:       "yyyy-MM-dd HH:mm:ss",
			DateHighlightedFormat: "yyyy-MM-dd HH:mm:ss",
		},
	}
}
