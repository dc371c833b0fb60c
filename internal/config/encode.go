package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
)

// SessionDocument converts a session, results included, into its document form.
func SessionDocument(session *workflow.Session) *SessionFile {
	if session == nil {
		return nil
	}
	doc := &SessionFile{
		Name:       session.Name,
		Injections: entityDocs(session.Injections),
		Segments:   entityDocs(session.Segments),
		Groups:     entityDocs(session.Groups),
	}
	if len(session.Parameters) > 0 {
		doc.Parameters = make(map[string]map[string]any, len(session.Parameters))
		for method, params := range session.Parameters {
			raw := make(map[string]any, len(params))
			for name, text := range params {
				raw[name] = text
			}
			doc.Parameters[method] = raw
		}
	}
	return doc
}

func entityDocs(entities []workflow.Entity) []EntitySpec {
	if len(entities) == 0 {
		return nil
	}
	docs := make([]EntitySpec, len(entities))
	for i, e := range entities {
		doc := EntitySpec{Name: e.Name, Members: append([]string(nil), e.Members...)}
		if len(e.Results) > 0 {
			doc.Results = make(map[string]any, len(e.Results))
			for key, v := range e.Results {
				if v.IsSet() {
					doc.Results[key] = v.Interface()
				}
			}
		}
		docs[i] = doc
	}
	return docs
}

// EncodeSession writes the session document in the given format.
func EncodeSession(w io.Writer, format Format, session *workflow.Session) error {
	doc := SessionDocument(session)
	if doc == nil {
		return fmt.Errorf("encode session: session is nil")
	}

	if format == FormatTOML {
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(doc)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// WriteSession writes the session to path, choosing the format from the
// extension.
func WriteSession(path string, session *workflow.Session) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := EncodeSession(&buf, format, session); err != nil {
		return fmt.Errorf("write session %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write session %s: %w", path, err)
	}
	return nil
}
