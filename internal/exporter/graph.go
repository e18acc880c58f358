package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"figflow/pkg/contracts/domain"
)

// utf8BOM helps spreadsheet tools recognize the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// GraphExporter writes flow graphs to CSV or JSON files.
type GraphExporter struct {
	logger *slog.Logger
}

// NewGraphExporter creates a graph exporter.
func NewGraphExporter(logger *slog.Logger) *GraphExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphExporter{logger: logger.With(slog.String("component", "graph_exporter"))}
}

// WriteCSV writes the graph as an edge list, one row per link with resolved
// node labels. Node order and link order are preserved from the graph, so
// identical graphs produce identical files.
func (e *GraphExporter) WriteCSV(graph *domain.FlowGraph, path string) error {
	file, err := createFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"source", "target", "source_region", "source_activity", "target_region", "target_activity", "value"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, link := range graph.Links {
		src := graph.Nodes[link.Source]
		dst := graph.Nodes[link.Target]
		row := []string{
			src.Label,
			dst.Label,
			src.Region,
			src.Activity,
			dst.Region,
			dst.Activity,
			formatValue(link.Value),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write link %d: %w", i, err)
		}
	}

	if err := writer.Error(); err != nil {
		return err
	}

	e.logger.Info("graph exported",
		slog.String("path", path),
		slog.String("format", "csv"),
		slog.Int("links", len(graph.Links)))

	return nil
}

// WriteNodesCSV writes the node table with positional indices. Together with
// the edge list it fully describes the graph.
func (e *GraphExporter) WriteNodesCSV(graph *domain.FlowGraph, path string) error {
	file, err := createFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"index", "region", "activity", "label"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, node := range graph.Nodes {
		row := []string{strconv.Itoa(i), node.Region, node.Activity, node.Label}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write node %d: %w", i, err)
		}
	}
	return writer.Error()
}

// WriteJSON serializes the graph for direct consumption by a renderer.
func (e *GraphExporter) WriteJSON(graph *domain.FlowGraph, path string) error {
	file, err := createFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(graph); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}

	e.logger.Info("graph exported",
		slog.String("path", path),
		slog.String("format", "json"),
		slog.Int("nodes", len(graph.Nodes)),
		slog.Int("links", len(graph.Links)))

	return nil
}

func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	return file, nil
}

// formatValue keeps full float precision so round-tripping the file does not
// lose mass relative to the in-memory graph.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
