package frame

import (
	"context"
	"fmt"
	"net/url"

	"github.com/huangsam/racebar/core/algo"
	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/schema"
	"golang.org/x/sync/errgroup"
)

// Builder assembles a ChartFrame step by step. The first failing step
// short-circuits the rest and its error is returned by Build.
type Builder struct {
	ctx    context.Context
	colors contract.ColorResolver
	table  *schema.ActivityTable
	bucket string
	opts   Options

	bars     []schema.RankedBar
	failures []schema.StyleResolutionError
	frame    *schema.ChartFrame
	err      error
}

// NewBuilder is the starting point for building a frame.
func NewBuilder(ctx context.Context, colors contract.ColorResolver, table *schema.ActivityTable, bucket string, opts Options) *Builder {
	return &Builder{
		ctx:    ctx,
		colors: colors,
		table:  table,
		bucket: bucket,
		opts:   opts,
		frame:  &schema.ChartFrame{Bucket: bucket},
	}
}

// Validate checks speed, bar count and the table itself.
func (b *Builder) Validate() *Builder {
	if b.err != nil {
		return b
	}
	if err := b.opts.Validate(); err != nil {
		b.err = err
		return b
	}
	if b.table == nil {
		b.err = schema.NewInvalidInput("table", "table is nil")
		return b
	}
	if b.colors == nil {
		b.err = schema.NewInvalidInput("colors", "no color resolver configured")
		return b
	}
	if b.opts.AvatarURL == "" {
		b.opts.AvatarURL = schema.DefaultAvatarURL
	}
	if err := contract.ValidateAvatarTemplate(b.opts.AvatarURL); err != nil {
		b.err = schema.NewInvalidInput("avatar_url", err.Error())
		return b
	}
	return b
}

// Rank sorts the bucket, keeps the Top-N and assigns unique style keys.
// A bucket missing from the table ranks as empty.
func (b *Builder) Rank() *Builder {
	if b.err != nil {
		return b
	}
	records, _ := b.table.Bucket(b.bucket)
	ranked := algo.RankRecords(records, b.opts.MaxBars)

	ids := make([]string, len(ranked))
	for i, rec := range ranked {
		ids[i] = rec.EntityID
	}
	keys := algo.AssignStyleKeys(ids)

	b.bars = make([]schema.RankedBar, len(ranked))
	for i, rec := range ranked {
		b.bars[i] = schema.RankedBar{
			Rank:     i + 1,
			EntityID: rec.EntityID,
			Value:    rec.Value,
			RichKey:  keys[rec.EntityID],
			Bot:      algo.IsBot(rec.EntityID),
		}
	}
	return b
}

// ResolveStyles looks up every bar's gradient concurrently and waits for all of them.
// A failed lookup falls back to DefaultColors and is recorded, never returned.
func (b *Builder) ResolveStyles() *Builder {
	if b.err != nil || len(b.bars) == 0 {
		return b
	}

	g, ctx := errgroup.WithContext(b.ctx)
	if b.opts.Workers > 0 {
		g.SetLimit(b.opts.Workers)
	}
	lookupErrs := make([]error, len(b.bars))
	for i := range b.bars {
		g.Go(func() error {
			pair, err := b.colors.GetColors(ctx, b.bars[i].EntityID)
			if err != nil {
				lookupErrs[i] = err
				pair = schema.DefaultColors
				b.bars[i].Fallback = true
			}
			b.bars[i].Colors = pair
			return nil
		})
	}
	_ = g.Wait()

	if err := b.ctx.Err(); err != nil {
		b.err = fmt.Errorf("building frame for %q: %w", b.bucket, err)
		return b
	}

	log := contract.LoggerFromContext(b.ctx)
	for i, err := range lookupErrs {
		if err == nil {
			continue
		}
		failure := schema.StyleResolutionError{EntityID: b.bars[i].EntityID, Err: err}
		b.failures = append(b.failures, failure)
		log.Warn("using default colors", "bucket", b.bucket, "entity", failure.EntityID, "err", err)
	}
	return b
}

// BuildAxes sets up the value axis, the inverted category axis and its avatar labels.
func (b *Builder) BuildAxes() *Builder {
	if b.err != nil {
		return b
	}
	update := 0.0
	if b.opts.Animate {
		update = schema.AxisUpdateDuration
	}

	rich := make(map[string]schema.RichStyle, len(b.bars))
	formatted := make(map[string]string, len(b.bars))
	for _, bar := range b.bars {
		rich[bar.RichKey] = schema.RichStyle{
			BackgroundColor: schema.RichImage{Image: fmt.Sprintf(b.opts.AvatarURL, url.PathEscape(bar.EntityID))},
			Height:          schema.AvatarHeight,
		}
		formatted[bar.EntityID] = algo.FormatCategoryLabel(bar.EntityID, bar.RichKey)
	}

	b.frame.Grid = schema.Grid{Top: gridTop, Bottom: gridBottom, Left: gridLeft, Right: gridRight}
	b.frame.XAxis = schema.XAxis{
		Max:                     "dataMax",
		AxisLabel:               schema.AxisLabel{Show: true, Color: schema.DarkTextColor},
		AnimationDurationUpdate: update,
	}
	b.frame.YAxis = schema.YAxis{
		Type:    "category",
		Inverse: true,
		Max:     b.opts.MaxBars,
		AxisLabel: schema.AxisLabel{
			Show:      true,
			Color:     schema.DarkTextColor,
			FontSize:  axisFontSize,
			Formatted: formatted,
			Rich:      rich,
		},
		AxisTick:                schema.AxisTick{Show: false},
		AnimationDurationUpdate: update,
	}
	return b
}

// BuildSeries emits the single realtime-sorted bar series.
func (b *Builder) BuildSeries() *Builder {
	if b.err != nil {
		return b
	}
	data := make([]schema.BarDatum, len(b.bars))
	for i, bar := range b.bars {
		data[i] = schema.BarDatum{
			Value:     schema.ActivityRecord{EntityID: bar.EntityID, Value: bar.Value},
			ItemStyle: schema.ItemStyle{Color: gradient(bar.Colors)},
		}
	}
	b.frame.Series = []schema.BarSeries{{
		RealtimeSort:   true,
		SeriesLayoutBy: "column",
		Type:           "bar",
		Data:           data,
		Encode:         schema.Encode{X: 1, Y: 0},
		Label: schema.BarLabel{
			Show:           true,
			Precision:      labelPrecision,
			Position:       "right",
			ValueAnimation: true,
			FontFamily:     "monospace",
			Color:          schema.DarkTextColor,
		},
	}}
	return b
}

// BuildTiming derives the update frequency and collapses durations when animation is off.
func (b *Builder) BuildTiming() *Builder {
	if b.err != nil {
		return b
	}
	freq := UpdateFrequency(b.opts.Speed)
	b.frame.UpdateFrequency = freq
	b.frame.AnimationDuration = 0
	b.frame.AnimationDurationUpdate = 0
	if b.opts.Animate {
		b.frame.AnimationDurationUpdate = freq
	}
	b.frame.AnimationEasing = schema.LinearEasing
	b.frame.AnimationEasingUpdate = schema.LinearEasing
	return b
}

// BuildGraphic adds the static bucket label overlay.
func (b *Builder) BuildGraphic() *Builder {
	if b.err != nil {
		return b
	}
	b.frame.Graphic = schema.Graphic{Elements: []schema.GraphicText{{
		Type:   "text",
		Right:  overlayOffset,
		Bottom: overlayOffset,
		Style:  schema.TextStyle{Text: b.bucket, Font: overlayFont, Fill: schema.DarkTextColor},
		Z:      overlayZ,
	}}}
	return b
}

// Build returns the finished frame or the first error encountered.
func (b *Builder) Build() (*schema.ChartFrame, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.frame.Ranking = b.bars
	b.frame.StyleFailures = b.failures
	return b.frame, nil
}

// BuildFrame runs every builder step for one bucket.
func BuildFrame(ctx context.Context, colors contract.ColorResolver, table *schema.ActivityTable, bucket string, opts Options) (*schema.ChartFrame, error) {
	return NewBuilder(ctx, colors, table, bucket, opts).
		Validate().
		Rank().
		ResolveStyles().
		BuildAxes().
		BuildSeries().
		BuildTiming().
		BuildGraphic().
		Build()
}

func gradient(colors schema.ColorPair) schema.LinearGradient {
	return schema.LinearGradient{
		Type: "linear",
		X2:   1,
		ColorStops: []schema.ColorStop{
			{Offset: 0, Color: colors[0]},
			{Offset: gradientMid, Color: colors[1]},
		},
	}
}
