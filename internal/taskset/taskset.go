// Package taskset loads and stores task sets. JSON (a bare array of tasks,
// or an object with a "tasks" array), HCL and CBOR files are supported.
package taskset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/joshharrison/srpa/internal/ctxlog"
	"github.com/joshharrison/srpa/internal/model"
)

var (
	// ErrInvalidTaskSet wraps every structural problem found in a task set.
	ErrInvalidTaskSet = errors.New("invalid task set")
	// ErrUnsupportedFormat is returned for unknown file extensions or
	// formats that cannot be written.
	ErrUnsupportedFormat = errors.New("unsupported task set format")
)

// Format identifies a task set encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatHCL  Format = "hcl"
	FormatCBOR Format = "cbor"
)

// FormatOf derives the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".hcl":
		return FormatHCL, nil
	case ".cbor":
		return FormatCBOR, nil
	}
	return "", fmt.Errorf("%w: %s (use .json, .hcl or .cbor)", ErrUnsupportedFormat, path)
}

// Load reads, decodes and validates the task set at path.
func Load(ctx context.Context, path string) (model.Tasks, error) {
	logger := ctxlog.FromContext(ctx)

	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task set: %w", err)
	}

	tasks, err := Decode(data, format, path)
	if err != nil {
		return nil, err
	}
	if err := Validate(tasks); err != nil {
		return nil, err
	}

	logger.Debug("loaded task set", "path", path, "format", format, "tasks", len(tasks))
	return tasks, nil
}

// Decode decodes data in the given format without validating it. name is
// used in diagnostics only.
func Decode(data []byte, format Format, name string) (model.Tasks, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatHCL:
		return decodeHCL(data, name)
	case FormatCBOR:
		var tasks model.Tasks
		if err := cbor.Unmarshal(data, &tasks); err != nil {
			return nil, fmt.Errorf("%w: parse CBOR: %v", ErrInvalidTaskSet, err)
		}
		return tasks, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// Encode encodes tasks in the given format. HCL is read-only.
func Encode(tasks model.Tasks, format Format) ([]byte, error) {
	if tasks == nil {
		tasks = model.Tasks{}
	}
	switch format {
	case FormatJSON:
		return json.MarshalIndent(tasks, "", "  ")
	case FormatCBOR:
		return cbor.Marshal(tasks)
	}
	return nil, fmt.Errorf("%w: cannot write %s", ErrUnsupportedFormat, format)
}

// Store writes tasks to path in the format implied by its extension.
func Store(ctx context.Context, path string, tasks model.Tasks) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Encode(tasks, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write task set: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("stored task set", "path", path, "format", format, "tasks", len(tasks))
	return nil
}
