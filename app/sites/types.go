package sites

// Config describes one site family's detection heuristics. All lists extend the
// generic defaults rather than replacing them; the values here are tuning data,
// not logic.
type Config struct {
	Name          string            // Derived from filename (without .yml extension)
	Hosts         []string          `yaml:"hosts"`
	Trusted       bool              `yaml:"trusted"`
	AddEndpoints  []string          `yaml:"add_endpoints"`
	GraphQLOps    []string          `yaml:"graphql_ops"`
	ProductPaths  []string          `yaml:"product_paths"`
	ListingPaths  []string          `yaml:"listing_paths"`
	Brands        map[string]string `yaml:"brands"`
	VariantTokens []string          `yaml:"variant_tokens"`
}
