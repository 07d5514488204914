package alignment

// Config holds thresholds and switches used while building and
// checking alignments. A nil *Config means DefaultConfig.
type Config struct {
	// Threads is the number of goroutines for data-parallel
	// regions, 0 means GOMAXPROCS.
	Threads int
	// MaxErrorsPerSite limits the number of verbatim error lines
	// collected for one site.
	MaxErrorsPerSite int
	// GapThreshold is the fraction of gaps/ambiguity above which a
	// sequence is reported as problematic.
	GapThreshold float64
	// CompositionAlpha is the p-value cutoff of the composition
	// chi-squared test.
	CompositionAlpha float64
	// KeepZeroFreq disables the minimum state frequency floor.
	KeepZeroFreq bool
	// MinStateFreq is the lower bound for state frequencies.
	MinStateFreq float64
	// EMIterations is the number of EM rounds used to resolve
	// ambiguous characters in state frequencies.
	EMIterations int
	// Verbose enables per-site debug messages.
	Verbose bool
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		MaxErrorsPerSite: 100,
		GapThreshold:     0.5,
		CompositionAlpha: 0.05,
		MinStateFreq:     1e-4,
		EMIterations:     8,
	}
}

func (c *Config) orDefault() *Config {
	if c == nil {
		return DefaultConfig()
	}
	return c
}
