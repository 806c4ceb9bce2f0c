package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mdpress/internal/convert"
	"github.com/pdiddy/mdpress/internal/fetch"
	"github.com/pdiddy/mdpress/internal/images"
	"github.com/pdiddy/mdpress/internal/pipeline"
	"github.com/pdiddy/mdpress/internal/upload"
	"github.com/pdiddy/mdpress/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "mdpress/0.1"
	defaultDocsDir   = "docs"
	defaultCachePath = ".mdpress/uploads.db"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdfs or urls...]",
	Short: "Convert PDFs to Markdown with re-hosted images",
	Long: `Convert turns PDF documents into Markdown artifacts. Embedded raster
images are extracted, normalized to PNG, uploaded to the configured
image host, and re-inserted as evenly spaced references in the text.

Inputs may be local PDF files, directories containing PDFs, or http(s)
URLs, which are downloaded into docs/raw first. Documents whose
artifacts already exist are skipped unless --force is given.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("endpoint", "", "image host upload endpoint URL")
	convertCmd.Flags().String("token", "", "image host bearer token (overrides config and secrets)")
	convertCmd.Flags().Int("concurrency", 0, "concurrent image uploads (default 3)")
	convertCmd.Flags().Int("retries", 0, "upload retries for transient failures (default 3)")
	convertCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	convertCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 1s)")
	convertCmd.Flags().String("backend", "", "text conversion backend: native or markitdown (default native)")
	convertCmd.Flags().String("docs-dir", "", "base directory for documents (default docs)")
	convertCmd.Flags().Bool("frontmatter", false, "prepend YAML frontmatter to artifacts")
	convertCmd.Flags().Bool("force", false, "reconvert documents whose artifacts already exist")
	convertCmd.Flags().Bool("skip-upload", false, "convert text only, without uploading images")
	convertCmd.Flags().Bool("no-cache", false, "bypass the upload cache")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PDF files, directories, or URLs")
	}

	skipUpload, _ := cmd.Flags().GetBool("skip-upload")
	cfg, err := convertConfig(cmd, skipUpload)
	if err != nil {
		return err
	}

	conv, err := convert.New(cfg.Conversion.Backend)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.Upload.Timeout}

	var uploader upload.Uploader
	var cache *upload.Cache
	if !skipUpload {
		uploader = &upload.HostClient{Client: client, Config: cfg.Upload}
		if cfg.Cache.Enabled {
			c, err := upload.OpenCache(cfg.Cache.Path)
			if err != nil {
				// A broken cache costs re-uploads, not the conversion.
				fmt.Fprintf(os.Stderr, "warning: opening upload cache: %v\n", err)
			} else {
				cache = c
				defer cache.Close()
			}
		}
	}

	p := &pipeline.Pipeline{
		Converter: conv,
		Extractor: images.PDFCPUExtractor{},
		Uploader:  uploader,
		Cache:     cache,
		Config:    cfg,
	}

	docs, fetchFailed := resolveInputs(cmd.Context(), client, args, cfg.Fetch)

	result := p.ConvertBatch(cmd.Context(), docs, os.Stdout)
	if result.HasFailures() || fetchFailed > 0 {
		return fmt.Errorf("%d document(s) failed", result.Failed+fetchFailed)
	}
	return nil
}

// convertConfig assembles the pipeline configuration from flags, the
// config file, and loaded secrets. Without --skip-upload a missing
// endpoint is a configuration error rather than a silent text-only run.
func convertConfig(cmd *cobra.Command, skipUpload bool) (types.PipelineConfig, error) {
	timeout := configDuration(cmd, "timeout", "upload.timeout", defaultTimeout)
	docsDir := configString(cmd, "docs-dir", "docs.dir", defaultDocsDir)

	endpoint := configString(cmd, "endpoint", "upload.endpoint", "")
	token := configString(cmd, "token", "upload.token", "")
	if token == "" {
		token = loadedSecrets["imagehost-token"]
	}
	if endpoint == "" && !skipUpload {
		return types.PipelineConfig{}, fmt.Errorf(
			"no image host endpoint configured: set --endpoint, upload.endpoint, or pass --skip-upload")
	}

	cachePath := viper.GetString("cache.path")
	if cachePath == "" {
		cachePath = defaultCachePath
	}
	cacheEnabled := true
	if viper.IsSet("cache.enabled") {
		cacheEnabled = viper.GetBool("cache.enabled")
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cacheEnabled = false
	}

	force, _ := cmd.Flags().GetBool("force")

	return types.PipelineConfig{
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   timeout,
				UserAgent: defaultUserAgent,
			},
			DownloadDelay: configDuration(cmd, "delay", "fetch.delay", defaultDelay),
			DocsDir:       docsDir,
		},
		Conversion: types.ConversionConfig{
			Backend:     types.ConversionBackend(configString(cmd, "backend", "convert.backend", string(types.BackendNative))),
			DocsDir:     docsDir,
			Frontmatter: configBool(cmd, "frontmatter", "convert.frontmatter"),
			Force:       force,
		},
		Upload: types.UploadConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   timeout,
				UserAgent: defaultUserAgent,
			},
			Endpoint:    endpoint,
			Token:       token,
			Concurrency: configInt(cmd, "concurrency", "upload.concurrency", upload.DefaultConcurrency),
			MaxRetries:  configInt(cmd, "retries", "upload.retries", upload.DefaultMaxRetries),
		},
		Cache: types.CacheConfig{
			Path:    cachePath,
			Enabled: cacheEnabled,
		},
	}, nil
}

// resolveInputs expands arguments into document records: URLs download
// into docs/raw, directories are scanned for *.pdf, and files are taken
// as-is. The second return value counts inputs that failed to resolve.
func resolveInputs(ctx context.Context, client *http.Client, args []string, cfg types.FetchConfig) ([]*types.Document, int) {
	var urls, paths []string
	for _, arg := range args {
		if fetch.IsRemote(arg) {
			urls = append(urls, arg)
			continue
		}
		paths = append(paths, arg)
	}

	docs, failed := fetch.FetchBatch(ctx, client, urls, cfg, os.Stdout)

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			fmt.Fprintf(os.Stdout, "failed:  %s (%v)\n", p, err)
			failed++
			continue
		}
		if info.IsDir() {
			matches, _ := filepath.Glob(filepath.Join(p, "*.pdf"))
			sort.Strings(matches)
			for _, m := range matches {
				docs = append(docs, localDocument(m))
			}
			continue
		}
		docs = append(docs, localDocument(p))
	}
	return docs, failed
}

func localDocument(path string) *types.Document {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &types.Document{ID: base, PDFPath: path}
}
