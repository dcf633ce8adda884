package collab

import (
	"errors"
	"math"
	"testing"

	"github.com/desertthunder/squadify/internal/shared"
)

func TestConfigValidate(t *testing.T) {
	tt := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero share factor", mutate: func(c *Config) { c.MinShareFactor = 0 }},
		{name: "full share factor", mutate: func(c *Config) { c.MinShareFactor = 1 }},
		{name: "floor of one", mutate: func(c *Config) { c.MinFrequency = 1 }},
		{name: "zero size", mutate: func(c *Config) { c.MaxCollabSize = 0 }, wantErr: true},
		{name: "negative size", mutate: func(c *Config) { c.MaxCollabSize = -3 }, wantErr: true},
		{name: "zero floor", mutate: func(c *Config) { c.MinFrequency = 0 }, wantErr: true},
		{name: "negative factor", mutate: func(c *Config) { c.MinShareFactor = -0.1 }, wantErr: true},
		{name: "factor above one", mutate: func(c *Config) { c.MinShareFactor = 1.5 }, wantErr: true},
		{name: "NaN factor", mutate: func(c *Config) { c.MinShareFactor = math.NaN() }, wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}

			_, err = NewBuilder(cfg)
			if (err != nil) != tc.wantErr {
				t.Errorf("NewBuilder() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestMinTracksPerMember(t *testing.T) {
	tt := []struct {
		size    int
		factor  float64
		members int
		want    int
	}{
		{size: 50, factor: 0.5, members: 2, want: 12},
		{size: 50, factor: 0.5, members: 3, want: 8},
		{size: 50, factor: 0.5, members: 4, want: 6},
		{size: 5, factor: 1, members: 4, want: 1},
		{size: 5, factor: 0.5, members: 3, want: 0},
		{size: 50, factor: 0, members: 2, want: 0},
		{size: 50, factor: 0.5, members: 0, want: 0},
	}

	for _, tc := range tt {
		cfg := Config{MaxCollabSize: tc.size, MinFrequency: 2, MinShareFactor: tc.factor}
		if got := cfg.MinTracksPerMember(tc.members); got != tc.want {
			t.Errorf("MinTracksPerMember(%d) with size %d factor %v = %d, want %d",
				tc.members, tc.size, tc.factor, got, tc.want)
		}
	}
}
