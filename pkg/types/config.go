package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "mdpress/0.1"). Per prd007-fetch R4.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for downloading remote PDFs.
// Per prd007-fetch R2.1-R2.4.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDelay is the delay between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// DocsDir is the base directory for documents (contains raw/, markdown/, reports/).
	DocsDir string `json:"docs_dir" yaml:"docs_dir"`
}

// ConversionBackend identifies the PDF text extraction tool.
// Per prd001-conversion R5.1.
type ConversionBackend string

const (
	BackendNative     ConversionBackend = "native"
	BackendMarkitdown ConversionBackend = "markitdown"
)

// ConversionConfig holds settings for the text extraction stage.
// Per prd001-conversion R5.1-R5.3.
type ConversionConfig struct {
	// Backend selects the extraction tool: native or markitdown.
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// DocsDir is the base directory for documents (contains raw/, markdown/, reports/).
	DocsDir string `json:"docs_dir" yaml:"docs_dir"`

	// Frontmatter prepends a YAML metadata header to converted documents.
	Frontmatter bool `json:"frontmatter" yaml:"frontmatter"`

	// Force reconverts documents whose markdown output already exists.
	Force bool `json:"force" yaml:"force"`
}

// UploadConfig holds settings for the image host client and upload fan-out.
// Per prd004-upload R1.2, R3.1-R3.4, R5.1-R5.5.
type UploadConfig struct {
	HTTPConfig `yaml:",inline"`

	// Endpoint is the image host upload URL (e.g. "https://img.example.com/api/upload").
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Token is the bearer credential attached to every upload request.
	// Supplied by the caller; the client never reads ambient process state.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// Concurrency is the maximum number of uploads in flight (default 3).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// MaxRetries is the number of retry attempts for transient upload
	// failures (default 3). Retries apply per image, outside the client.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// CacheConfig holds settings for the upload cache.
// Per prd004-upload R6.1-R6.3.
type CacheConfig struct {
	// Path is the sqlite database file (default ".mdpress/uploads.db").
	Path string `json:"path" yaml:"path"`

	// Enabled controls whether uploads consult and populate the cache.
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Upload     UploadConfig     `json:"upload" yaml:"upload"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
}
