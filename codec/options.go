package codec

import "github.com/portmux/ipcwire"

type config struct {
	disposer ipcwire.Disposer
}

func defaultConfig() config {
	return config{disposer: ipcwire.NopDisposer{}}
}

// Option configures a Decoder or Encoder.
type Option func(*config)

// WithDisposer sets the disposer used to discharge handles on failure paths
// and for rejected handles during encode. The default discards them.
func WithDisposer(d ipcwire.Disposer) Option {
	return func(c *config) {
		if d != nil {
			c.disposer = d
		}
	}
}
