package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	peakerrors "github.com/alexisbeaulieu97/peakflow/pkg/errors"
)

// Format identifies a document encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

func (f Format) String() string {
	if f == FormatTOML {
		return "toml"
	}
	return "yaml"
}

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// DetectFormat picks the encoding from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return 0, fmt.Errorf("unsupported document extension %q (want .yaml, .yml or .toml)", filepath.Ext(path))
}

// ParseWorkflowFile loads a workflow document from disk and validates it.
func ParseWorkflowFile(path string) (*WorkflowFile, error) {
	var doc WorkflowFile
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	if err := ValidateWorkflowFile(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParseSessionFile loads a session document from disk and validates it.
func ParseSessionFile(path string) (*SessionFile, error) {
	var doc SessionFile
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	if err := ValidateSessionFile(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func decodeFile(path string, out any) error {
	format, err := DetectFormat(path)
	if err != nil {
		return peakerrors.NewParseError(path, 0, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return peakerrors.NewParseError(path, 0, err)
	}

	if err := decode(format, data, out); err != nil {
		return peakerrors.NewParseError(path, extractLine(err), err)
	}
	return nil
}

func decode(format Format, data []byte, out any) error {
	if format == FormatTOML {
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(out)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		row, _ := decodeErr.Position()
		return row
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
