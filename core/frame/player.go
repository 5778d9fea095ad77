package frame

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/schema"
)

// Sequencer hands out request generations. Only the latest generation is current.
type Sequencer struct {
	gen atomic.Uint64
}

// Next starts a new generation and returns it.
func (s *Sequencer) Next() uint64 {
	return s.gen.Add(1)
}

// Current reports whether gen is still the latest generation.
func (s *Sequencer) Current(gen uint64) bool {
	return s.gen.Load() == gen
}

// Player builds frames for a fixed table on demand. A new request cancels the
// build still in flight, and that build reports ErrStaleResult instead of a frame.
type Player struct {
	colors contract.ColorResolver
	table  *schema.ActivityTable
	opts   Options
	seq    Sequencer

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewPlayer creates a player over table.
func NewPlayer(colors contract.ColorResolver, table *schema.ActivityTable, opts Options) *Player {
	return &Player{colors: colors, table: table, opts: opts}
}

// Options returns the frame options of the player.
func (p *Player) Options() Options {
	return p.opts
}

// Request builds the frame for bucket and supersedes any earlier request.
func (p *Player) Request(ctx context.Context, bucket string) (*schema.ChartFrame, error) {
	gen := p.seq.Next()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	p.mu.Unlock()

	frame, err := BuildFrame(ctx, p.colors, p.table, bucket, p.opts)
	if !p.seq.Current(gen) {
		return nil, fmt.Errorf("bucket %q: %w", bucket, schema.ErrStaleResult)
	}
	return frame, err
}

// Play walks the table in bucket order and hands each frame to sink, waiting
// interval between frames. A zero interval emits frames back to back.
func Play(ctx context.Context, player *Player, interval time.Duration, sink func(*schema.ChartFrame) error) error {
	buckets := player.table.Keys()
	if len(buckets) == 0 {
		return nil
	}

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for i, bucket := range buckets {
		if i > 0 && tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
		frame, err := player.Request(ctx, bucket)
		if errors.Is(err, schema.ErrStaleResult) {
			contract.LogDebug("dropping stale frame", "bucket", bucket)
			continue
		}
		if err != nil {
			return err
		}
		if err := sink(frame); err != nil {
			return err
		}
	}
	return nil
}
