package collab

import (
	"fmt"
	"math"

	"github.com/desertthunder/squadify/internal/shared"
)

const (
	DefaultMaxCollabSize  = 50
	DefaultMinFrequency   = 2
	DefaultMinShareFactor = 0.5
)

// Config holds the tunables of the collab builder.
type Config struct {
	MaxCollabSize  int     // upper bound on the collab length
	MinFrequency   int     // fewest members a track needs behind it
	MinShareFactor float64 // fraction of an even split each member is guaranteed

	// ShareBelowFloor keeps sub-floor tracks in each member's pool so the
	// minimum share phase can place them.
	ShareBelowFloor bool
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{
		MaxCollabSize:  DefaultMaxCollabSize,
		MinFrequency:   DefaultMinFrequency,
		MinShareFactor: DefaultMinShareFactor,
	}
}

// Validate checks the tunables and returns an error wrapping [shared.ErrInvalidConfig].
func (c Config) Validate() error {
	if c.MaxCollabSize <= 0 {
		return fmt.Errorf("%w: max collab size must be positive, got %d", shared.ErrInvalidConfig, c.MaxCollabSize)
	}
	if c.MinFrequency < 1 {
		return fmt.Errorf("%w: min frequency must be at least 1, got %d", shared.ErrInvalidConfig, c.MinFrequency)
	}
	if math.IsNaN(c.MinShareFactor) || c.MinShareFactor < 0 || c.MinShareFactor > 1 {
		return fmt.Errorf("%w: min share factor must be within [0, 1], got %v", shared.ErrInvalidConfig, c.MinShareFactor)
	}
	return nil
}

// MinTracksPerMember is floor(MaxCollabSize / members * MinShareFactor).
func (c Config) MinTracksPerMember(members int) int {
	if members <= 0 {
		return 0
	}
	return int(float64(c.MaxCollabSize) / float64(members) * c.MinShareFactor)
}
