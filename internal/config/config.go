// Package config owns the hierarchical configuration tree the tracking core
// round-trips its settings through. The tree is plain data: the coordinator
// decides which fields must round-trip, this package only loads, validates
// and saves the JSON form. Optional fields are pointers so partial configs
// leave unspecified settings untouched.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// maxFileSize caps configuration files at 1MB.
const maxFileSize = 1 * 1024 * 1024

// Document is the root of the configuration tree.
type Document struct {
	Tracker *TrackerNode `json:"tracker,omitempty"`
}

// TrackerNode holds the tracker-level scalars and the per-tool entries.
type TrackerNode struct {
	Frequency            *float64  `json:"frequency,omitempty"`
	MaxConsecutiveErrors *int      `json:"max_consecutive_errors,omitempty"`
	Calibrated           *bool     `json:"calibrated,omitempty"`
	WorldCalibration     []float64 `json:"world_calibration,omitempty"`
	Tools                []ToolNode `json:"tools,omitempty"`
}

// ToolNode configures one tool port.
type ToolNode struct {
	Port        int       `json:"port"`
	Name        string    `json:"name,omitempty"`
	Role        string    `json:"role,omitempty"`
	Enabled     *bool     `json:"enabled,omitempty"`
	Calibration []float64 `json:"calibration,omitempty"`
}

// Load reads and parses a configuration document from a JSON file.
func Load(path string) (*Document, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &doc, nil
}

// Save writes a configuration document as indented JSON.
func Save(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
