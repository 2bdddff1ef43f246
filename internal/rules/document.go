// Package rules obtains, caches and compiles the remote filesystem ignore
// rules.
package rules

import (
	"encoding/json"
	"fmt"
)

// Document is the remote filter rule payload. Patterns are only validated
// when compiled.
type Document struct {
	MountpointIgnorePatterns string `json:"mountpoint_ignore_patterns"`
	FilesystemIgnorePatterns string `json:"filesystem_ignore_patterns"`
}

// ParseDocument decodes raw rule bytes. Absent fields decode as empty patterns.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rule document: %w", err)
	}
	return &doc, nil
}
