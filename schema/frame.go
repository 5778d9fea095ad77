package schema

// ChartFrame is the renderer-facing configuration for a single bucket.
// Field names follow the declarative chart option format consumed by the renderer.
type ChartFrame struct {
	Grid                    Grid        `json:"grid"`
	XAxis                   XAxis       `json:"xAxis"`
	YAxis                   YAxis       `json:"yAxis"`
	Series                  []BarSeries `json:"series"`
	Graphic                 Graphic     `json:"graphic"`
	AnimationDuration       float64     `json:"animationDuration"`
	AnimationDurationUpdate float64     `json:"animationDurationUpdate"`
	AnimationEasing         string      `json:"animationEasing"`
	AnimationEasingUpdate   string      `json:"animationEasingUpdate"`
	UpdateFrequency         float64     `json:"updateFrequency"`

	// Not part of the renderer contract.
	Bucket        string                 `json:"-"`
	Ranking       []RankedBar            `json:"-"`
	StyleFailures []StyleResolutionError `json:"-"`
}

// Bars returns the bar data of the single bar series, or nil.
func (f *ChartFrame) Bars() []BarDatum {
	if len(f.Series) == 0 {
		return nil
	}
	return f.Series[0].Data
}

// Grid is the chart padding in pixels.
type Grid struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

// XAxis is the value axis, auto-scaled to the data maximum.
type XAxis struct {
	Max                     string    `json:"max"`
	AxisLabel               AxisLabel `json:"axisLabel"`
	AnimationDuration       float64   `json:"animationDuration"`
	AnimationDurationUpdate float64   `json:"animationDurationUpdate"`
}

// YAxis is the inverted category axis holding one row per ranked entity.
type YAxis struct {
	Type                    string    `json:"type"`
	Inverse                 bool      `json:"inverse"`
	Max                     int       `json:"max"`
	AxisLabel               AxisLabel `json:"axisLabel"`
	AxisTick                AxisTick  `json:"axisTick"`
	AnimationDuration       float64   `json:"animationDuration"`
	AnimationDurationUpdate float64   `json:"animationDurationUpdate"`
}

// AxisLabel configures axis label text. Formatted holds the rendered label per
// category value and Rich is the style registry the labels refer to.
type AxisLabel struct {
	Show      bool                 `json:"show"`
	Color     string               `json:"color"`
	FontSize  int                  `json:"fontSize,omitempty"`
	Formatted map[string]string    `json:"formatted,omitempty"`
	Rich      map[string]RichStyle `json:"rich,omitempty"`
}

// Label returns the formatted label for a category value, falling back to the value.
func (a AxisLabel) Label(value string) string {
	if s, ok := a.Formatted[value]; ok {
		return s
	}
	return value
}

// RichStyle is one style registry entry: an avatar glyph drawn as a label background.
type RichStyle struct {
	BackgroundColor RichImage `json:"backgroundColor"`
	Height          int       `json:"height"`
}

// RichImage points a rich style at an image.
type RichImage struct {
	Image string `json:"image"`
}

// AxisTick toggles axis ticks.
type AxisTick struct {
	Show bool `json:"show"`
}

// BarSeries is the single realtime-sorted bar series.
type BarSeries struct {
	RealtimeSort   bool       `json:"realtimeSort"`
	SeriesLayoutBy string     `json:"seriesLayoutBy"`
	Type           string     `json:"type"`
	Data           []BarDatum `json:"data"`
	Encode         Encode     `json:"encode"`
	Label          BarLabel   `json:"label"`
}

// Encode maps data dimensions to axes.
type Encode struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// BarLabel configures the value label at the end of each bar.
type BarLabel struct {
	Show           bool   `json:"show"`
	Precision      int    `json:"precision"`
	Position       string `json:"position"`
	ValueAnimation bool   `json:"valueAnimation"`
	FontFamily     string `json:"fontFamily"`
	Color          string `json:"color"`
}

// BarDatum is one bar. Value encodes as [entityId, value].
type BarDatum struct {
	Value     ActivityRecord `json:"value"`
	ItemStyle ItemStyle      `json:"itemStyle"`
}

// ItemStyle holds the bar fill.
type ItemStyle struct {
	Color LinearGradient `json:"color"`
}

// LinearGradient is a left-to-right two stop gradient.
type LinearGradient struct {
	Type       string      `json:"type"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	X2         float64     `json:"x2"`
	Y2         float64     `json:"y2"`
	ColorStops []ColorStop `json:"colorStops"`
	Global     bool        `json:"global"`
}

// ColorStop is a gradient stop.
type ColorStop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// Graphic holds overlay elements.
type Graphic struct {
	Elements []GraphicText `json:"elements"`
}

// GraphicText is a static text overlay, used for the bucket label.
type GraphicText struct {
	Type   string    `json:"type"`
	Right  int       `json:"right"`
	Bottom int       `json:"bottom"`
	Style  TextStyle `json:"style"`
	Z      int       `json:"z"`
}

// TextStyle styles overlay text.
type TextStyle struct {
	Text string `json:"text"`
	Font string `json:"font"`
	Fill string `json:"fill"`
}
