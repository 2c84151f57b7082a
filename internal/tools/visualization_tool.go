package tools

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Tableau 10 palette, cycled per series.
var defaultChartColors = []drawing.Color{
	drawing.ColorFromHex("4e79a7"),
	drawing.ColorFromHex("f28e2c"),
	drawing.ColorFromHex("e15759"),
	drawing.ColorFromHex("76b7b2"),
	drawing.ColorFromHex("59a14f"),
	drawing.ColorFromHex("edc949"),
	drawing.ColorFromHex("af7aa1"),
	drawing.ColorFromHex("ff9da7"),
	drawing.ColorFromHex("9c755f"),
	drawing.ColorFromHex("bab0ab"),
}

type chartDataset struct {
	label  string
	values []float64
}

type chartData struct {
	labels   []string
	datasets []chartDataset
}

// NewCreateVisualizationTool creates the create_visualization tool. Charts
// are written as PNG files under chartDir and served from /charts.
func NewCreateVisualizationTool(chartDir string) *Tool {
	return &Tool{
		Name:        "create_visualization",
		DisplayName: "Create Visualization",
		Description: "Create a chart from tabular data and save it as a PNG image. Supports line, bar, pie, and scatter charts. Returns the URL of the rendered chart. Grouped series (via group_by) are supported for line and scatter charts.",
		Icon:        "BarChart",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"type": map[string]interface{}{
					"type":        "string",
					"description": "Type of chart to create",
					"enum":        []string{"line", "bar", "pie", "scatter"},
				},
				"data": map[string]interface{}{
					"type":        "array",
					"description": "Data to visualize, as an array of row objects",
					"items":       map[string]interface{}{"type": "object"},
				},
				"x_axis": map[string]interface{}{
					"type":        "string",
					"description": "Column to use for the x-axis",
				},
				"y_axis": map[string]interface{}{
					"type":        "string",
					"description": "Column to use for the y-axis",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Optional chart title",
				},
				"group_by": map[string]interface{}{
					"type":        "string",
					"description": "Optional column to split the data into one series per value",
				},
				"options": map[string]interface{}{
					"type":        "object",
					"description": "Optional rendering options",
					"properties": map[string]interface{}{
						"width": map[string]interface{}{
							"type":        "number",
							"description": "Image width in pixels (default: 800)",
							"default":     800,
						},
						"height": map[string]interface{}{
							"type":        "number",
							"description": "Image height in pixels (default: 600)",
							"default":     600,
						},
						"legend": map[string]interface{}{
							"type":        "boolean",
							"description": "Whether to draw a legend (default: true)",
							"default":     true,
						},
					},
				},
			},
			"required": []string{"type", "data", "x_axis", "y_axis"},
		},
		Execute:  executeCreateVisualization(chartDir),
		Category: "visualization",
		Keywords: []string{"chart", "graph", "plot", "visualize", "line", "bar", "pie", "scatter", "png"},
	}
}

func executeCreateVisualization(chartDir string) ExecuteFunc {
	return func(args map[string]interface{}) (string, error) {
		chartType, _ := args["type"].(string)
		switch chartType {
		case "line", "bar", "pie", "scatter":
		default:
			return "", fmt.Errorf("type must be one of line, bar, pie, scatter")
		}

		rawData, ok := args["data"].([]interface{})
		if !ok || len(rawData) == 0 {
			return "", fmt.Errorf("data parameter is required and must be a non-empty array")
		}
		xAxis, ok := args["x_axis"].(string)
		if !ok || xAxis == "" {
			return "", fmt.Errorf("x_axis parameter is required and must be a string")
		}
		yAxis, ok := args["y_axis"].(string)
		if !ok || yAxis == "" {
			return "", fmt.Errorf("y_axis parameter is required and must be a string")
		}
		title, _ := args["title"].(string)
		groupBy, _ := args["group_by"].(string)

		width, height, legend := 800, 600, true
		if opts, ok := args["options"].(map[string]interface{}); ok {
			if w, ok := opts["width"].(float64); ok && w > 0 {
				width = int(w)
			}
			if h, ok := opts["height"].(float64); ok && h > 0 {
				height = int(h)
			}
			if l, ok := opts["legend"].(bool); ok {
				legend = l
			}
		}

		rows := make([]map[string]interface{}, 0, len(rawData))
		for i, entry := range rawData {
			row, ok := entry.(map[string]interface{})
			if !ok {
				return "", fmt.Errorf("data row %d must be an object", i)
			}
			rows = append(rows, row)
		}

		data := processChartData(rows, xAxis, yAxis, groupBy)
		if len(data.labels) == 0 {
			return "", fmt.Errorf("no usable data points for columns %q and %q", xAxis, yAxis)
		}

		if err := os.MkdirAll(chartDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create chart directory: %w", err)
		}
		fileName := fmt.Sprintf("chart-%d.png", time.Now().UnixMilli())
		filePath := filepath.Join(chartDir, fileName)

		f, err := os.Create(filePath)
		if err != nil {
			return "", fmt.Errorf("failed to create chart file: %w", err)
		}
		defer f.Close()

		switch chartType {
		case "line", "scatter":
			err = renderXYChart(f, chartType, data, title, xAxis, yAxis, width, height, legend)
		case "bar":
			err = renderBarChart(f, data, title, width, height)
		case "pie":
			err = renderPieChart(f, data, title, width, height)
		}
		if err != nil {
			os.Remove(filePath)
			return "", fmt.Errorf("failed to render chart: %w", err)
		}

		log.Printf("📊 [CHARTS] Rendered %s chart (%s vs %s) to %s", chartType, xAxis, yAxis, fileName)

		summary := fmt.Sprintf("Created a %s chart comparing %s vs %s", chartType, xAxis, yAxis)
		if title != "" {
			summary += fmt.Sprintf(" titled %q", title)
		}

		encoded, err := json.Marshal(map[string]interface{}{
			"chart_url": "/charts/" + fileName,
			"file_path": filePath,
			"dimensions": map[string]int{
				"width":  width,
				"height": height,
			},
			"summary": summary,
		})
		if err != nil {
			return "", fmt.Errorf("failed to encode result: %w", err)
		}
		return string(encoded), nil
	}
}

// processChartData turns row objects into labeled series. Without group_by
// there is a single series named after the y-axis column; with group_by each
// distinct group value becomes its own series, with missing points as zero.
func processChartData(rows []map[string]interface{}, xAxis, yAxis, groupBy string) chartData {
	if groupBy == "" {
		labels := make([]string, 0, len(rows))
		values := make([]float64, 0, len(rows))
		for _, row := range rows {
			labels = append(labels, fmt.Sprintf("%v", row[xAxis]))
			values = append(values, toFloat(row[yAxis]))
		}
		return chartData{
			labels:   labels,
			datasets: []chartDataset{{label: yAxis, values: values}},
		}
	}

	var labels []string
	seen := make(map[string]bool)
	for _, row := range rows {
		label := fmt.Sprintf("%v", row[xAxis])
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}
	labelIndex := make(map[string]int, len(labels))
	for i, label := range labels {
		labelIndex[label] = i
	}

	var groupOrder []string
	groups := make(map[string][]float64)
	for _, row := range rows {
		group := fmt.Sprintf("%v", row[groupBy])
		if _, ok := groups[group]; !ok {
			groups[group] = make([]float64, len(labels))
			groupOrder = append(groupOrder, group)
		}
		groups[group][labelIndex[fmt.Sprintf("%v", row[xAxis])]] = toFloat(row[yAxis])
	}

	datasets := make([]chartDataset, 0, len(groupOrder))
	for _, group := range groupOrder {
		datasets = append(datasets, chartDataset{label: group, values: groups[group]})
	}
	return chartData{labels: labels, datasets: datasets}
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}

func renderXYChart(f *os.File, chartType string, data chartData, title, xAxis, yAxis string, width, height int, legend bool) error {
	xValues := make([]float64, len(data.labels))
	ticks := make([]chart.Tick, len(data.labels))
	for i, label := range data.labels {
		xValues[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: label}
	}

	series := make([]chart.Series, 0, len(data.datasets))
	for i, dataset := range data.datasets {
		color := defaultChartColors[i%len(defaultChartColors)]
		style := chart.Style{StrokeColor: color}
		if chartType == "scatter" {
			style = chart.Style{
				StrokeWidth: chart.Disabled,
				DotColor:    color,
				DotWidth:    5,
			}
		}
		series = append(series, chart.ContinuousSeries{
			Name:    dataset.label,
			XValues: xValues,
			YValues: dataset.values,
			Style:   style,
		})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Name:  xAxis,
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name: yAxis,
		},
		Series: series,
	}
	if legend && len(series) > 1 {
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	}
	return graph.Render(chart.PNG, f)
}

// Bar and pie charts render the first series only. go-chart has no grouped
// bar support, so group_by callers are steered to line or scatter.
func renderBarChart(f *os.File, data chartData, title string, width, height int) error {
	dataset := data.datasets[0]
	bars := make([]chart.Value, len(data.labels))
	for i, label := range data.labels {
		bars[i] = chart.Value{
			Label: label,
			Value: dataset.values[i],
			Style: chart.Style{FillColor: defaultChartColors[i%len(defaultChartColors)]},
		}
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    width,
		Height:   height,
		BarWidth: 40,
		Bars:     bars,
	}
	return graph.Render(chart.PNG, f)
}

func renderPieChart(f *os.File, data chartData, title string, width, height int) error {
	dataset := data.datasets[0]
	values := make([]chart.Value, len(data.labels))
	for i, label := range data.labels {
		values[i] = chart.Value{
			Label: label,
			Value: dataset.values[i],
			Style: chart.Style{FillColor: defaultChartColors[i%len(defaultChartColors)]},
		}
	}

	graph := chart.PieChart{
		Title:  title,
		Width:  width,
		Height: height,
		Values: values,
	}
	return graph.Render(chart.PNG, f)
}
