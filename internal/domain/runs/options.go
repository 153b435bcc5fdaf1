package runs

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithJobPrefix sets the job-name prefix preceding the participant id.
func WithJobPrefix(prefix string) Option {
	return func(s *Selector) {
		if prefix != "" {
			s.jobPrefix = prefix
		}
	}
}

// WithOutputSuffix restricts candidates to keys ending with suffix. An empty
// suffix accepts every key.
func WithOutputSuffix(suffix string) Option {
	return func(s *Selector) {
		s.outputSuffix = suffix
	}
}
