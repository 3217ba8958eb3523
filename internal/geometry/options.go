package geometry

import "go.uber.org/zap"

type options struct {
	logger   *zap.Logger
	cellInfo []CellInfo
}

// Option configures station construction.
type Option func(*options)

// WithLogger sets the logger used while building stations.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCellInfo annotates cells with per-cell scalars once the tree is built.
func WithCellInfo(info []CellInfo) Option {
	return func(o *options) {
		o.cellInfo = info
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
