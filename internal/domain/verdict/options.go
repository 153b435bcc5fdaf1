package verdict

import "github.com/okian/judgeboard/pkg/logger"

// Option applies a configuration option to the Parser.
type Option func(*Parser)

// WithLogger sets the logger used for malformed-line warnings.
func WithLogger(l logger.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPreviewLength bounds how much of a malformed line is logged.
func WithPreviewLength(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.previewLen = n
		}
	}
}
