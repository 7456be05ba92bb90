// Package session persists a cover edit so it can be resumed later.
package session

import (
	"github.com/AnyUserName/covercrop/internal/editstate"
	"github.com/AnyUserName/covercrop/internal/target"
)

// Record is the persisted form of one cover edit.
type Record struct {
	Version int    `json:"version"`
	SavedAt string `json:"saved_at"`
	// FormatID names the active format; Target is stored as well so a
	// record stays meaningful if the format table changes.
	FormatID string                   `json:"format_id"`
	Target   target.CropTarget        `json:"target"`
	State    editstate.CoverCropState `json:"state"`
	// FormulaVersion of the color math the state was tuned against.
	FormulaVersion int         `json:"formula_version"`
	Source         *SourceInfo `json:"source,omitempty"`
	Export         *ExportInfo `json:"export,omitempty"`
}

// SourceInfo fingerprints the original image the edit belongs to.
type SourceInfo struct {
	FileName string `json:"file_name,omitempty"`
	MIMEType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int64  `json:"size"`
	Hash     string `json:"hash"` // 16 hex chars of xxhash64
}

// ExportInfo describes the last successful export.
type ExportInfo struct {
	Path     string `json:"path"`
	MIMEType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int64  `json:"size"`
}

// SupportedVersion is the current schema version.
const SupportedVersion = 1
