package sites

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry holds site adapter configurations and answers the host-specific
// questions the classifier, extractor and reducer ask. Generic defaults apply
// when no site config matches a host.
type Registry struct {
	sitesDir string
	cache    map[string]*Config
	mu       sync.RWMutex
}

func NewRegistry(sitesDir string) *Registry {
	return &Registry{
		sitesDir: sitesDir,
		cache:    make(map[string]*Config),
	}
}

func (r *Registry) Run() error {
	if _, err := os.Stat(r.sitesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(r.sitesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		siteName := fileName[:len(fileName)-4]

		config, err := r.LoadConfig(siteName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Site configuration loaded", "site", siteName, "hosts", config.Hosts, "trusted", config.Trusted)
	}

	return nil
}

func (r *Registry) LoadConfig(siteName string) (*Config, error) {
	configFile := filepath.Join(r.sitesDir, siteName+".yml")

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.Name = siteName

	if len(config.Hosts) == 0 {
		return nil, fmt.Errorf("invalid config %s: at least one host is required", configFile)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[config.Name] = &config

	return &config, nil
}

// Register adds a configuration directly, bypassing the filesystem.
func (r *Registry) Register(config *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[config.Name] = config
}

func (r *Registry) GetConfigCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// ForHost returns the site config whose host list matches the given host, if any.
func (r *Registry) ForHost(host string) *Config {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, config := range r.cache {
		for _, h := range config.Hosts {
			h = strings.ToLower(strings.TrimPrefix(h, "www."))
			if host == h || strings.HasSuffix(host, "."+h) {
				return config
			}
		}
	}
	return nil
}

// IsTrusted reports whether the given source tag names a trusted site adapter.
// Records from trusted adapters skip the product-page plausibility guard.
func (r *Registry) IsTrusted(source string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	config, ok := r.cache[source]
	return ok && config.Trusted
}

// IsAddEndpoint reports whether the request URL path looks like a native
// add-to-cart endpoint for the URL's host.
func (r *Registry) IsAddEndpoint(u *url.URL) bool {
	path := strings.ToLower(u.Path)

	patterns := defaultAddEndpoints
	if config := r.ForHost(u.Hostname()); config != nil {
		patterns = merged(config.AddEndpoints, patterns)
	}

	for _, p := range patterns {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// GraphQLOps returns the add-mutation operation names recognized for a host.
func (r *Registry) GraphQLOps(host string) []string {
	ops := defaultGraphQLOps
	if config := r.ForHost(host); config != nil && len(config.GraphQLOps) > 0 {
		ops = merged(config.GraphQLOps, ops)
	}
	return ops
}

// VariantTokens returns the variant-picker vocabulary for a host.
func (r *Registry) VariantTokens(host string) []string {
	tokens := defaultVariantTokens
	if config := r.ForHost(host); config != nil && len(config.VariantTokens) > 0 {
		tokens = merged(config.VariantTokens, tokens)
	}
	return tokens
}

// IsProductPage reports whether the link plausibly points at a product detail
// page. Listing/category shapes disqualify; explicit product path markers
// qualify; everything else passes only when the path has a concrete slug.
func (r *Registry) IsProductPage(link string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return false
	}

	path := strings.ToLower(u.Path)
	if path == "" || path == "/" {
		return false
	}

	config := r.ForHost(u.Hostname())

	listing := defaultListingPaths
	product := defaultProductPaths
	if config != nil {
		listing = merged(config.ListingPaths, listing)
		product = merged(config.ProductPaths, product)
	}

	for _, p := range product {
		if strings.Contains(path, p) {
			return true
		}
	}
	for _, p := range listing {
		if strings.Contains(path+"/", p) {
			return false
		}
	}

	// No marker either way: require a slug-like terminal segment so that bare
	// section indexes like /shoes do not pass.
	segments := strings.Split(strings.Trim(path, "/"), "/")
	last := segments[len(segments)-1]
	return len(segments) >= 2 && (strings.Contains(last, "-") || containsDigit(last))
}

// CanonicalBrand resolves a raw brand token against the host's brand map.
func (r *Registry) CanonicalBrand(host, raw string) (string, bool) {
	config := r.ForHost(host)
	if config == nil || len(config.Brands) == 0 {
		return "", false
	}

	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := config.Brands[key]; ok {
		return canonical, true
	}
	return "", false
}

// IsTrackingImage reports whether an image URL matches tracking-pixel
// heuristics: data URIs, SVG placeholders, or pixel/beacon style filenames.
func IsTrackingImage(src string) bool {
	if src == "" {
		return false
	}

	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "data:") {
		return true
	}
	if strings.HasSuffix(strings.SplitN(lower, "?", 2)[0], ".svg") {
		return true
	}

	base := strings.ToLower(filepath.Base(strings.SplitN(lower, "?", 2)[0]))
	for _, token := range trackingImageTokens {
		if strings.Contains(base, token) {
			return true
		}
	}
	return false
}

func merged(site, defaults []string) []string {
	out := make([]string, 0, len(site)+len(defaults))
	out = append(out, site...)
	out = append(out, defaults...)
	return out
}

func containsDigit(s string) bool {
	for _, c := range s {
		if c >= '0' && c <= '9' {
			return true
		}
	}
	return false
}
