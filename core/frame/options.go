// Package frame turns one bucket of an activity table into a racing bar chart frame.
package frame

import (
	"time"

	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/schema"
)

// Chart layout shared by every frame.
const (
	gridTop        = 10
	gridBottom     = 30
	gridLeft       = 160
	gridRight      = 50
	axisFontSize   = 14
	labelPrecision = 1
	overlayOffset  = 40
	overlayZ       = 100
	overlayFont    = "bolder 40px monospace"
	gradientMid    = 0.5
)

// Options control how a bucket becomes a frame.
type Options struct {
	Speed     float64
	MaxBars   int
	Animate   bool
	Workers   int    // Concurrent color lookups; 0 means one per bar
	AvatarURL string // Holds one %s for the entity id
}

// OptionsFromConfig copies the frame settings out of a validated config.
func OptionsFromConfig(cfg *contract.Config) Options {
	return Options{
		Speed:     cfg.Speed,
		MaxBars:   cfg.MaxBars,
		Animate:   cfg.Animate,
		Workers:   cfg.Workers,
		AvatarURL: cfg.AvatarURL,
	}
}

// Validate rejects options that cannot produce a frame.
func (o Options) Validate() error {
	return contract.ValidateFrameInputs(o.Speed, o.MaxBars)
}

// UpdateFrequency is the time one bucket stays on screen, in milliseconds.
func UpdateFrequency(speed float64) float64 {
	return schema.BaseFrequency / speed
}

// Interval converts UpdateFrequency into a ticker period.
func (o Options) Interval() time.Duration {
	return time.Duration(UpdateFrequency(o.Speed) * float64(time.Millisecond))
}
