package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/AnyUserName/covercrop/internal/editstate"
	"github.com/AnyUserName/covercrop/internal/export"
	"github.com/AnyUserName/covercrop/internal/target"
)

// New creates a record for the given format and state.
func New(formatID string, tg target.CropTarget, state editstate.CoverCropState) *Record {
	return &Record{
		Version:        SupportedVersion,
		SavedAt:        time.Now().UTC().Format(time.RFC3339),
		FormatID:       formatID,
		Target:         tg,
		State:          state,
		FormulaVersion: export.FormulaVersion,
	}
}

// Validate reports every problem with the record.
func (r *Record) Validate() []string {
	var errs []string
	if r.Version != SupportedVersion {
		errs = append(errs, fmt.Sprintf("unsupported session version: %d", r.Version))
	}
	if r.FormulaVersion > export.FormulaVersion {
		errs = append(errs, fmt.Sprintf("formula version %d is newer than supported %d", r.FormulaVersion, export.FormulaVersion))
	}
	if err := r.Target.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := r.State.Validate(); err != nil {
		errs = append(errs, "state: "+err.Error())
	}
	if r.Source != nil && (r.Source.Width <= 0 || r.Source.Height <= 0) {
		errs = append(errs, fmt.Sprintf("source: invalid dimensions %dx%d", r.Source.Width, r.Source.Height))
	}
	return errs
}

// Marshal serializes the record as indented JSON.
func (r *Record) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Unmarshal parses a record. Unknown fields are ignored.
func Unmarshal(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return &r, nil
}

// FileName is the session file name for a source. The source extension
// is kept so a.jpg and a.png in one directory do not share a session.
func FileName(source string) string {
	return path.Base(source) + ".session.json"
}

// WriteJSON writes the record to path.
func WriteJSON(r *Record, path string) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a record from path.
func ReadJSON(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	return Unmarshal(data)
}
