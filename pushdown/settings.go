// Package pushdown defines the configuration spec.md §6/§9 calls pushdown
// settings: a small set of independently-togglable permissions the prepper
// consults before attempting a time-series pushdown.
package pushdown

// Settings controls which categories of pushdown the prepper is permitted
// to attempt. The zero value enables every pushdown, matching spec.md §6's
// "single entry point" framing where a bare call with no configuration
// does the most aggressive rewrite possible.
type Settings struct {
	// disableGroupBy, when true, forbids the prepper from attempting
	// complex group-by pushdown (spec.md §4.5's GroupBy setting).
	disableGroupBy bool
	// disableValueConditions, when true, forbids pushing filter
	// expressions over ?value into a time-series query (spec.md §4.5's
	// ValueConditions setting).
	disableValueConditions bool
}

// Default returns the zero-value Settings: every pushdown enabled.
func Default() Settings { return Settings{} }

// WithGroupBy returns a copy of s with GroupBy pushdown enabled or disabled.
func (s Settings) WithGroupBy(enabled bool) Settings {
	s.disableGroupBy = !enabled
	return s
}

// WithValueConditions returns a copy of s with ValueConditions pushdown
// enabled or disabled.
func (s Settings) WithValueConditions(enabled bool) Settings {
	s.disableValueConditions = !enabled
	return s
}

// GroupByEnabled reports whether complex group-by pushdown may be attempted.
func (s Settings) GroupByEnabled() bool { return !s.disableGroupBy }

// ValueConditionsEnabled reports whether filter expressions over ?value
// may be pushed into a time-series query.
func (s Settings) ValueConditionsEnabled() bool { return !s.disableValueConditions }
