package spectrum

import (
	"fmt"
	"math"

	"github.com/turtacn/NMReportChecker/pkg/errors"
)

// Renderer defaults.
const (
	DefaultLoPPM            = -1.0
	DefaultHiPPM            = 15.0
	DefaultPoints           = 65536
	DefaultBaseLineWidth    = 0.001
	DefaultTailEpsilon      = 1e-7
	DefaultMinWindow        = 4
	DefaultPaddingPPM       = 0.5
	DefaultBroadeningFactor = 20.0

	// MaxPoints bounds the axis length a caller may request.
	MaxPoints = 1 << 20
)

// Config holds the render target and lineshape parameters.
type Config struct {
	LoPPM  float64
	HiPPM  float64
	Points int

	// BaseLineWidth is the Lorentzian half-width in ppm before range and
	// broadening adjustments.
	BaseLineWidth float64

	// TailEpsilon is the fraction of a line's peak height below which its
	// tail is not summed.
	TailEpsilon float64

	// MinWindow is the smallest half-span, in samples, touched per line.
	MinWindow int

	PaddingPPM       float64
	BroadeningFactor float64

	// FullSummation disables windowing and sums every line over the whole
	// axis.
	FullSummation bool
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the renderer defaults.
func DefaultConfig() Config {
	return Config{
		LoPPM:            DefaultLoPPM,
		HiPPM:            DefaultHiPPM,
		Points:           DefaultPoints,
		BaseLineWidth:    DefaultBaseLineWidth,
		TailEpsilon:      DefaultTailEpsilon,
		MinWindow:        DefaultMinWindow,
		PaddingPPM:       DefaultPaddingPPM,
		BroadeningFactor: DefaultBroadeningFactor,
	}
}

// WithRange sets the ppm range. The bounds may be given in either order.
func WithRange(lo, hi float64) Option {
	return func(cfg *Config) {
		cfg.LoPPM, cfg.HiPPM = lo, hi
	}
}

// WithPoints sets the number of axis samples.
func WithPoints(n int) Option {
	return func(cfg *Config) {
		cfg.Points = n
	}
}

// WithBaseLineWidth sets the base Lorentzian half-width in ppm.
func WithBaseLineWidth(gamma float64) Option {
	return func(cfg *Config) {
		if gamma > 0 {
			cfg.BaseLineWidth = gamma
		}
	}
}

// WithTailEpsilon sets the relative tail cut-off used for windowing.
func WithTailEpsilon(eps float64) Option {
	return func(cfg *Config) {
		if eps > 0 && eps < 1 {
			cfg.TailEpsilon = eps
		}
	}
}

// WithMinWindow sets the minimum half-span in samples.
func WithMinWindow(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MinWindow = n
		}
	}
}

// WithPadding sets the ppm margin added on both sides of the range.
func WithPadding(pad float64) Option {
	return func(cfg *Config) {
		if pad >= 0 {
			cfg.PaddingPPM = pad
		}
	}
}

// WithBroadeningFactor sets the width multiplier for broadened signals.
func WithBroadeningFactor(f float64) Option {
	return func(cfg *Config) {
		if f >= 1 {
			cfg.BroadeningFactor = f
		}
	}
}

// WithFullSummation toggles full-axis summation.
func WithFullSummation(on bool) Option {
	return func(cfg *Config) {
		cfg.FullSummation = on
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Validate checks that the config describes a usable axis. Failures carry
// errors.ErrCodeRenderParamsInvalid.
func (c Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return errors.New(errors.ErrCodeRenderParamsInvalid, fmt.Sprintf(format, args...))
	}
	switch {
	case c.Points < 2:
		return invalid("points must be at least 2, got %d", c.Points)
	case c.Points > MaxPoints:
		return invalid("points must not exceed %d, got %d", MaxPoints, c.Points)
	case !isFinite(c.LoPPM) || !isFinite(c.HiPPM):
		return invalid("range bounds must be finite, got [%v, %v]", c.LoPPM, c.HiPPM)
	case !(c.PaddingPPM >= 0) || !isFinite(c.PaddingPPM):
		return invalid("padding must be non-negative, got %v", c.PaddingPPM)
	case c.LoPPM == c.HiPPM && c.PaddingPPM == 0:
		return invalid("empty range [%v, %v]", c.LoPPM, c.HiPPM)
	case !(c.BaseLineWidth > 0) || !isFinite(c.BaseLineWidth):
		return invalid("base line width must be positive, got %v", c.BaseLineWidth)
	case !(c.TailEpsilon > 0 && c.TailEpsilon < 1):
		return invalid("tail epsilon must be in (0,1), got %v", c.TailEpsilon)
	case c.MinWindow < 0:
		return invalid("min window must be non-negative, got %d", c.MinWindow)
	case !(c.BroadeningFactor >= 1) || !isFinite(c.BroadeningFactor):
		return invalid("broadening factor must be at least 1, got %v", c.BroadeningFactor)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

//Personal.AI order the ending
