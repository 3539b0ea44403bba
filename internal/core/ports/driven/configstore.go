package driven

// Well-known configuration keys.
const (
	// ConfigKeyAPIURL is the base URL of the extraction API server.
	ConfigKeyAPIURL = "api_url"
	// ConfigKeySupabaseURL is the identity provider project URL.
	ConfigKeySupabaseURL = "supabase_url"
	// ConfigKeySupabaseKey is the identity provider publishable key.
	ConfigKeySupabaseKey = "supabase_publishable_key"
	// ConfigKeyRedirectScheme is the app-registered redirect URI scheme.
	ConfigKeyRedirectScheme = "redirect_scheme"
	// ConfigKeyDataDir overrides the default data directory.
	ConfigKeyDataDir = "data_dir"
	// ConfigKeyCallbackPortStart / End bound the loopback catcher port scan.
	ConfigKeyCallbackPortStart = "callback_port_start"
	ConfigKeyCallbackPortEnd   = "callback_port_end"
)

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files) and type conversion.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	// Returns empty string if key doesn't exist or isn't a string.
	GetString(key string) string

	// GetInt retrieves an integer configuration value.
	// Returns 0 if key doesn't exist or isn't an integer.
	GetInt(key string) int

	// GetBool retrieves a boolean configuration value.
	// Returns false if key doesn't exist or isn't a boolean.
	GetBool(key string) bool

	// Set stores a configuration value.
	// The value is persisted immediately.
	Set(key string, value any) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
