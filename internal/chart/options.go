package chart

// Axis is the configuration of one chart axis
type Axis struct {
	Offset       int `json:"offset"`
	LabelOffsetX int `json:"labelOffsetX"`
	LabelOffsetY int `json:"labelOffsetY"`
}

// Smoothing configures line interpolation
type Smoothing struct {
	Type    string `json:"type"`
	Divisor int    `json:"divisor"`
}

// Options is the renderer configuration for the statistics chart
type Options struct {
	Low        int       `json:"low"`
	FullWidth  bool      `json:"fullWidth"`
	AxisX      Axis      `json:"axisX"`
	AxisY      Axis      `json:"axisY"`
	LineSmooth Smoothing `json:"lineSmooth"`
}

// DefaultOptions returns the dashboard chart configuration
func DefaultOptions() Options {
	return Options{
		Low:        0,
		FullWidth:  true,
		AxisX:      Axis{Offset: 25, LabelOffsetY: 10},
		AxisY:      Axis{Offset: 35, LabelOffsetX: -10, LabelOffsetY: 3},
		LineSmooth: Smoothing{Type: "simple", Divisor: 5},
	}
}
