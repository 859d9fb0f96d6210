package api

// Response headers set on a rendered chart
const (
	HeaderChartTitle  = "X-Chart-Title"
	HeaderChartKind   = "X-Chart-Kind"
	HeaderDroppedRows = "X-Chart-Dropped-Rows"
)
