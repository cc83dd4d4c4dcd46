package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alfredjeanlab/issuefacets/internal/facet"
	"github.com/alfredjeanlab/issuefacets/internal/newcode"
	"github.com/alfredjeanlab/issuefacets/internal/provider"
)

type Config struct {
	DatabaseURL string // FACETS_DATABASE_URL (required)
	GRPCAddr    string // FACETS_GRPC_ADDR (default ":9090")
	HTTPAddr    string // FACETS_HTTP_ADDR (default ":8080")
	NATSURL     string // FACETS_NATS_URL (optional, empty = no events)
	AuthToken   string // FACETS_AUTH_TOKEN (optional, empty = auth disabled)
	Standalone  bool   // FACETS_STANDALONE (search provider runs in-process)

	// Sync settings
	SyncInterval   time.Duration // FACETS_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // FACETS_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // FACETS_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // FACETS_SYNC_S3_REGION (default "us-east-1")
	SyncS3Prefix   string        // FACETS_SYNC_S3_PREFIX (default "facets")
	SyncGitRepo    string        // FACETS_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitDir     string        // FACETS_SYNC_GIT_DIR (default "facets"; directory within the clone)
	SyncGitBranch  string        // FACETS_SYNC_GIT_BRANCH (default "main")

	// Panel is read from FACETS_PANEL_CONFIG when set.
	Panel Panel
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("FACETS_DATABASE_URL"),
		GRPCAddr:       envOrDefault("FACETS_GRPC_ADDR", ":9090"),
		HTTPAddr:       envOrDefault("FACETS_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("FACETS_NATS_URL"),
		AuthToken:      os.Getenv("FACETS_AUTH_TOKEN"),
		SyncS3Bucket:   os.Getenv("FACETS_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("FACETS_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("FACETS_SYNC_S3_REGION", "us-east-1"),
		SyncS3Prefix:   envOrDefault("FACETS_SYNC_S3_PREFIX", "facets"),
		SyncGitRepo:    os.Getenv("FACETS_SYNC_GIT_REPO"),
		SyncGitDir:     envOrDefault("FACETS_SYNC_GIT_DIR", "facets"),
		SyncGitBranch:  envOrDefault("FACETS_SYNC_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("FACETS_DATABASE_URL is required")
	}

	if v := os.Getenv("FACETS_STANDALONE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("FACETS_STANDALONE: %w", err)
		}
		c.Standalone = b
	}

	intervalStr := envOrDefault("FACETS_SYNC_INTERVAL", "3m")
	d, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("FACETS_SYNC_INTERVAL: %w", err)
	}
	c.SyncInterval = d

	panel, err := LoadPanel(os.Getenv("FACETS_PANEL_CONFIG"))
	if err != nil {
		return nil, err
	}
	c.Panel = *panel

	return c, nil
}

// Panel holds the facet panel defaults.
type Panel struct {
	Expanded []string `toml:"expanded"`
	PageSize int      `toml:"page_size"`
	NewCode  NewCode  `toml:"new_code"`
}

// NewCode bounds the number-of-days new code definition.
type NewCode struct {
	MinDays int `toml:"min_days"`
	MaxDays int `toml:"max_days"`
}

// DefaultPanel returns the panel settings used when no file is configured.
func DefaultPanel() *Panel {
	return &Panel{
		Expanded: []string{string(facet.Type), string(facet.Severity)},
		PageSize: provider.DefaultPageSize,
		NewCode: NewCode{
			MinDays: newcode.DefaultBounds.MinDays,
			MaxDays: newcode.DefaultBounds.MaxDays,
		},
	}
}

// LoadPanel reads a TOML panel file on top of DefaultPanel. An empty path or
// a missing file yields the defaults.
func LoadPanel(path string) (*Panel, error) {
	p := DefaultPanel()
	if path == "" {
		return p, nil
	}
	md, err := toml.DecodeFile(path, p)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("panel config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("panel config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("panel config %s: %w", path, err)
	}
	return p, nil
}

func (p *Panel) validate() error {
	if _, err := p.ExpandedFacets(); err != nil {
		return err
	}
	if p.PageSize < 1 || p.PageSize > provider.MaxPageSize {
		return fmt.Errorf("page_size must be between 1 and %d, got %d", provider.MaxPageSize, p.PageSize)
	}
	if p.NewCode.MinDays < 1 || p.NewCode.MaxDays < p.NewCode.MinDays {
		return fmt.Errorf("new_code: invalid day bounds %d..%d", p.NewCode.MinDays, p.NewCode.MaxDays)
	}
	return nil
}

// ExpandedFacets parses the configured facet names.
func (p *Panel) ExpandedFacets() ([]facet.Dimension, error) {
	out := make([]facet.Dimension, 0, len(p.Expanded))
	for _, name := range p.Expanded {
		d, err := facet.ParseDimension(name)
		if err != nil {
			return nil, fmt.Errorf("expanded: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Bounds converts the day bounds for newcode validation.
func (p *Panel) Bounds() newcode.Bounds {
	return newcode.Bounds{MinDays: p.NewCode.MinDays, MaxDays: p.NewCode.MaxDays}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
