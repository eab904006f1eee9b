package problem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/supportree/pkg/errors"
)

// Serialization formats.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unknown file extension %q (want .json or .toml)", ext)
	}
}

// =============================================================================
// Problems
// =============================================================================

// ReadFile reads a problem from a .json or .toml file.
func ReadFile(path string) (*Problem, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "problem file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	p, err := Read(f, format)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Read decodes a problem in the given format.
func Read(r io.Reader, format string) (*Problem, error) {
	var p Problem
	if err := decode(r, format, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Write encodes a problem in the given format.
func Write(w io.Writer, p *Problem, format string) error {
	return encode(w, format, p)
}

// =============================================================================
// Results
// =============================================================================

// MarshalResult encodes a result as JSON.
func MarshalResult(r *Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, FormatJSON, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalResult decodes a JSON result.
func UnmarshalResult(data []byte) (*Result, error) {
	var r Result
	if err := decode(bytes.NewReader(data), FormatJSON, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// WriteResult encodes a result in the given format.
func WriteResult(w io.Writer, r *Result, format string) error {
	return encode(w, format, r)
}

// WriteResultFile writes a result to a .json or .toml file.
func WriteResultFile(path string, r *Result) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := encode(f, format, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// =============================================================================
// Internal Implementation
// =============================================================================

func encode(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(v); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
	default:
		return errors.ValidateFormat(format, FormatJSON, FormatTOML)
	}
	return nil
}

func decode(r io.Reader, format string, v any) error {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode json")
		}
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode toml")
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return errors.New(errors.ErrCodeInvalidInput, "unknown toml keys: %v", undec)
		}
	default:
		return errors.ValidateFormat(format, FormatJSON, FormatTOML)
	}
	return nil
}
