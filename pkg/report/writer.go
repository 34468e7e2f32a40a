// Package report writes run results as workbooks, HTML pages and JSON
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/probe"
	"github.com/Ramsey-B/clover/pkg/runner"
)

// Formats accepted by Writer.Write
const (
	FormatXLSX = "xlsx"
	FormatHTML = "html"
	FormatJSON = "json"
)

// Writer writes reports under a results directory
type Writer struct {
	dir    string
	now    func() time.Time
	logger ectologger.Logger
}

// NewWriter creates a Writer rooted at dir
func NewWriter(dir string, logger ectologger.Logger) *Writer {
	return &Writer{dir: dir, now: time.Now, logger: logger}
}

// Write renders result in each format and returns the written paths
func (w *Writer) Write(result *runner.Result, formats ...string) ([]string, error) {
	var paths []string
	for _, format := range formats {
		var (
			path string
			err  error
		)
		switch format {
		case FormatXLSX:
			path, err = w.Workbook(result)
		case FormatHTML:
			path, err = w.HTML(result)
		case FormatJSON:
			path, err = w.JSON(result.Mode, result)
		default:
			err = fmt.Errorf("unknown report format %q", format)
		}
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Workbook writes the xlsx report
func (w *Writer) Workbook(result *runner.Result) (string, error) {
	f, err := BuildWorkbook(result)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", fmt.Errorf("failed to encode workbook: %w", err)
	}
	return w.save(result.Mode, FormatXLSX, buf.Bytes())
}

// HTML writes the static HTML report
func (w *Writer) HTML(result *runner.Result) (string, error) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, result, w.now()); err != nil {
		return "", err
	}
	return w.save(result.Mode, FormatHTML, buf.Bytes())
}

// JSON writes v as indented JSON
func (w *Writer) JSON(kind string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s report: %w", kind, err)
	}
	return w.save(kind, FormatJSON, data)
}

// ProbeReport is the JSON document written for a probe run
type ProbeReport struct {
	Results  []probe.Result `json:"results"`
	Analysis probe.Analysis `json:"analysis"`
}

// Probe writes probe results with their analysis
func (w *Writer) Probe(results []probe.Result, analysis probe.Analysis) (string, error) {
	return w.JSON("security_test", ProbeReport{Results: results, Analysis: analysis})
}

func (w *Writer) save(kind, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}
	path := filepath.Join(w.dir, FileName(kind, ext, w.now()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	w.logger.WithFields(map[string]any{"path": path, "format": ext}).Info("Report written")
	return path, nil
}
