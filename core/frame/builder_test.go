package frame

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/huangsam/racebar/internal/contract"
	"github.com/huangsam/racebar/internal/palette"
	"github.com/huangsam/racebar/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubColors resolves "#<id>" pairs and can fail or block for chosen entities.
type stubColors struct {
	mu      sync.Mutex
	fail    map[string]error
	block   map[string]bool
	started chan string

	inflight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func newStubColors() *stubColors {
	return &stubColors{fail: map[string]error{}, block: map[string]bool{}}
}

func (s *stubColors) GetColors(ctx context.Context, entityID string) (schema.ColorPair, error) {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	s.mu.Lock()
	err, block := s.fail[entityID], s.block[entityID]
	started := s.started
	s.mu.Unlock()

	if started != nil {
		started <- entityID
	}
	if block {
		<-ctx.Done()
		return schema.ColorPair{}, ctx.Err()
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err != nil {
		return schema.ColorPair{}, err
	}
	return schema.ColorPair{"#" + entityID, "#" + entityID + "-light"}, nil
}

func mustTable(t *testing.T, doc string) *schema.ActivityTable {
	t.Helper()
	table := schema.NewActivityTable()
	require.NoError(t, json.Unmarshal([]byte(doc), table))
	return table
}

const aliceBobTable = `{
	"2023-01": [["alice", 5], ["bob", 9]],
	"2023-02": [["alice", 6]],
	"2023-03": [["alice", 7]],
	"2023-04": [["alice", 8]]
}`

const busyTable = `{
	"2024-01": [["carol", 3], ["dave", 12], ["erin", 7], ["renovate[bot]", 12], ["frank", 1]]
}`

func TestBuildFrameScenario(t *testing.T) {
	table := mustTable(t, aliceBobTable)

	frame, err := BuildFrame(context.Background(), newStubColors(), table, "2023-02", Options{Speed: 1, MaxBars: 2})
	require.NoError(t, err)

	bars := frame.Bars()
	require.Len(t, bars, 1)
	assert.Equal(t, schema.ActivityRecord{EntityID: "alice", Value: 6}, bars[0].Value)
	assert.Equal(t, 2000.0, frame.UpdateFrequency)
	assert.Zero(t, frame.AnimationDuration)
	assert.Zero(t, frame.AnimationDurationUpdate)
	assert.Zero(t, frame.XAxis.AnimationDurationUpdate)
	assert.Zero(t, frame.YAxis.AnimationDurationUpdate)
	assert.Equal(t, schema.LinearEasing, frame.AnimationEasing)
	assert.Equal(t, 2, frame.YAxis.Max)
	require.Len(t, frame.Graphic.Elements, 1)
	assert.Equal(t, "2023-02", frame.Graphic.Elements[0].Style.Text)
	assert.Equal(t, "2023-02", frame.Bucket)
}

func TestBuildFrameTiming(t *testing.T) {
	table := mustTable(t, aliceBobTable)
	tests := []struct {
		name           string
		opts           Options
		wantFreq       float64
		wantSeriesAnim float64
		wantAxisAnim   float64
	}{
		{name: "speed 4 animated", opts: Options{Speed: 4, MaxBars: 5, Animate: true}, wantFreq: 500, wantSeriesAnim: 500, wantAxisAnim: 200},
		{name: "speed 4 static", opts: Options{Speed: 4, MaxBars: 5}, wantFreq: 500},
		{name: "half speed animated", opts: Options{Speed: 0.5, MaxBars: 5, Animate: true}, wantFreq: 4000, wantSeriesAnim: 4000, wantAxisAnim: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := BuildFrame(context.Background(), newStubColors(), table, "2023-01", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFreq, frame.UpdateFrequency)
			assert.Equal(t, tt.wantSeriesAnim, frame.AnimationDurationUpdate)
			assert.Equal(t, tt.wantAxisAnim, frame.XAxis.AnimationDurationUpdate)
			assert.Equal(t, tt.wantAxisAnim, frame.YAxis.AnimationDurationUpdate)
			assert.Zero(t, frame.AnimationDuration, "initial animation is always off")
			assert.Equal(t, schema.LinearEasing, frame.AnimationEasingUpdate)
			assert.Equal(t, "2023-01", frame.Graphic.Elements[0].Style.Text, "overlay is present either way")
		})
	}
	assert.Equal(t, 500*time.Millisecond, Options{Speed: 4}.Interval())
}

func TestBuildFrameInvalidInput(t *testing.T) {
	table := mustTable(t, aliceBobTable)
	tests := []struct {
		name  string
		table *schema.ActivityTable
		opts  Options
		field string
	}{
		{name: "zero speed", table: table, opts: Options{Speed: 0, MaxBars: 2}, field: "speed"},
		{name: "negative speed", table: table, opts: Options{Speed: -2, MaxBars: 2}, field: "speed"},
		{name: "NaN speed", table: table, opts: Options{Speed: math.NaN(), MaxBars: 2}, field: "speed"},
		{name: "infinite speed", table: table, opts: Options{Speed: math.Inf(1), MaxBars: 2}, field: "speed"},
		{name: "zero bars", table: table, opts: Options{Speed: 1, MaxBars: 0}, field: "max_bars"},
		{name: "negative bars", table: table, opts: Options{Speed: 1, MaxBars: -3}, field: "max_bars"},
		{name: "nil table", table: nil, opts: Options{Speed: 1, MaxBars: 2}, field: "table"},
		{name: "avatar template with extra verb", table: table, opts: Options{Speed: 1, MaxBars: 2, AvatarURL: "https://example.com/%s/%d"}, field: "avatar_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := BuildFrame(context.Background(), newStubColors(), tt.table, "2023-01", tt.opts)
			require.Error(t, err)
			assert.Nil(t, frame)
			assert.ErrorIs(t, err, schema.ErrInvalidInput)
			var invalid *schema.InvalidInputError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestBuildFrameAbsentBucket(t *testing.T) {
	frame, err := BuildFrame(context.Background(), newStubColors(), mustTable(t, aliceBobTable), "1999-12", Options{Speed: 1, MaxBars: 3})
	require.NoError(t, err)
	assert.Empty(t, frame.Bars())
	assert.Empty(t, frame.Ranking)
	assert.Equal(t, "1999-12", frame.Graphic.Elements[0].Style.Text)

	out, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"data":[]`)
}

func TestBuildFrameRanking(t *testing.T) {
	table := mustTable(t, busyTable)
	tests := []struct {
		name    string
		maxBars int
		wantIDs []string
	}{
		{name: "truncated", maxBars: 3, wantIDs: []string{"dave", "renovate[bot]", "erin"}},
		{name: "fewer records than bars", maxBars: 10, wantIDs: []string{"dave", "renovate[bot]", "erin", "carol", "frank"}},
		{name: "single bar", maxBars: 1, wantIDs: []string{"dave"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := BuildFrame(context.Background(), newStubColors(), table, "2024-01", Options{Speed: 1, MaxBars: tt.maxBars})
			require.NoError(t, err)

			bars := frame.Bars()
			require.Len(t, bars, len(tt.wantIDs))
			for i, bar := range bars {
				assert.Equal(t, tt.wantIDs[i], bar.Value.EntityID)
				assert.Equal(t, i+1, frame.Ranking[i].Rank)
				if i > 0 {
					assert.GreaterOrEqual(t, bars[i-1].Value.Value, bar.Value.Value)
				}
			}
		})
	}
}

func TestBuildFrameLabels(t *testing.T) {
	frame, err := BuildFrame(context.Background(), newStubColors(), mustTable(t, busyTable), "2024-01", Options{Speed: 1, MaxBars: 5})
	require.NoError(t, err)

	labels := frame.YAxis.AxisLabel
	assert.Equal(t, "dave {avatardave|}", labels.Label("dave"))
	assert.Equal(t, "renovate[bot]", labels.Label("renovate[bot]"), "bots never get an avatar glyph")
	assert.Equal(t, "unknown", labels.Label("unknown"))

	rich, ok := labels.Rich["avatardave"]
	require.True(t, ok)
	assert.Equal(t, "https://avatars.githubusercontent.com/dave?s=48&v=4", rich.BackgroundColor.Image)
	assert.Equal(t, schema.AvatarHeight, rich.Height)

	var bot schema.RankedBar
	for _, bar := range frame.Ranking {
		if bar.EntityID == "renovate[bot]" {
			bot = bar
		}
	}
	assert.True(t, bot.Bot)
}

func TestBuildFrameStyleKeyCollisions(t *testing.T) {
	table := mustTable(t, `{"b": [["a-b", 2], ["ab", 1]]}`)
	frame, err := BuildFrame(context.Background(), newStubColors(), table, "b", Options{Speed: 1, MaxBars: 5})
	require.NoError(t, err)

	assert.Len(t, frame.YAxis.AxisLabel.Rich, 2)
	assert.Equal(t, "a-b {avatarab|}", frame.YAxis.AxisLabel.Label("a-b"))
	assert.Equal(t, "ab {avatarab2|}", frame.YAxis.AxisLabel.Label("ab"))
	assert.Contains(t, frame.YAxis.AxisLabel.Rich["avatarab2"].BackgroundColor.Image, "/ab?")
}

func TestBuildFrameGradient(t *testing.T) {
	frame, err := BuildFrame(context.Background(), newStubColors(), mustTable(t, aliceBobTable), "2023-01", Options{Speed: 1, MaxBars: 2})
	require.NoError(t, err)

	grad := frame.Bars()[0].ItemStyle.Color
	assert.Equal(t, "linear", grad.Type)
	assert.Equal(t, 1.0, grad.X2)
	assert.Zero(t, grad.Y2)
	assert.False(t, grad.Global)
	assert.Equal(t, []schema.ColorStop{{Offset: 0, Color: "#bob"}, {Offset: 0.5, Color: "#bob-light"}}, grad.ColorStops)
}

func TestBuildFrameStyleFailure(t *testing.T) {
	var buf bytes.Buffer
	ctx := contract.WithLogger(context.Background(), log.New(&buf))

	colors := newStubColors()
	colors.fail["bob"] = errors.New("avatar unavailable")

	frame, err := BuildFrame(ctx, colors, mustTable(t, aliceBobTable), "2023-01", Options{Speed: 1, MaxBars: 2})
	require.NoError(t, err, "one bad lookup does not abort the frame")

	require.Len(t, frame.Ranking, 2)
	assert.Equal(t, "bob", frame.Ranking[0].EntityID)
	assert.Equal(t, schema.DefaultColors, frame.Ranking[0].Colors)
	assert.True(t, frame.Ranking[0].Fallback)
	assert.False(t, frame.Ranking[1].Fallback)
	assert.Equal(t, schema.DefaultColors[0], frame.Bars()[0].ItemStyle.Color.ColorStops[0].Color)

	require.Len(t, frame.StyleFailures, 1)
	failure := frame.StyleFailures[0]
	assert.Equal(t, "bob", failure.EntityID)
	assert.ErrorIs(t, &failure, schema.ErrStyleResolution)
	assert.Contains(t, buf.String(), "bob")
}

func TestBuildFrameDeterministic(t *testing.T) {
	table := mustTable(t, busyTable)
	colors := palette.NewCache(palette.DefaultHashSource(), time.Second)
	opts := Options{Speed: 2, MaxBars: 4, Animate: true}

	var outputs [][]byte
	for range 3 {
		frame, err := BuildFrame(context.Background(), colors, table, "2024-01", opts)
		require.NoError(t, err)
		out, err := json.Marshal(frame)
		require.NoError(t, err)
		outputs = append(outputs, out)
	}
	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[1], outputs[2])
}

func TestBuildFrameJSONShape(t *testing.T) {
	frame, err := BuildFrame(context.Background(), newStubColors(), mustTable(t, aliceBobTable), "2023-01", Options{Speed: 1, MaxBars: 2, Animate: true})
	require.NoError(t, err)

	out, err := json.Marshal(frame)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))

	series := doc["series"].([]any)[0].(map[string]any)
	assert.Equal(t, true, series["realtimeSort"])
	assert.Equal(t, "column", series["seriesLayoutBy"])
	first := series["data"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"bob", 9.0}, first["value"])

	yAxis := doc["yAxis"].(map[string]any)
	assert.Equal(t, "category", yAxis["type"])
	assert.Equal(t, true, yAxis["inverse"])
	assert.Equal(t, "dataMax", doc["xAxis"].(map[string]any)["max"])
	assert.Equal(t, 2000.0, doc["animationDurationUpdate"])
	assert.NotContains(t, doc, "Ranking")
	assert.NotContains(t, doc, "Bucket")
}

func TestBuildFrameWorkerLimit(t *testing.T) {
	colors := newStubColors()
	colors.delay = 5 * time.Millisecond

	frame, err := BuildFrame(context.Background(), colors, mustTable(t, busyTable), "2024-01", Options{Speed: 1, MaxBars: 5, Workers: 2})
	require.NoError(t, err)
	assert.Len(t, frame.Bars(), 5)
	assert.LessOrEqual(t, colors.peak.Load(), int32(2))
}

func TestBuildFrameCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildFrame(ctx, newStubColors(), mustTable(t, aliceBobTable), "2023-01", Options{Speed: 1, MaxBars: 2})
	assert.ErrorIs(t, err, context.Canceled)
}
