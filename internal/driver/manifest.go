package driver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"shadec/internal/diag"
)

// Manifest is a batch of calls to resolve.
//
//	dialect: core          # core, hlsl or auto
//	stage: runtime         # default evaluation stage
//	pipeline: fragment     # default pipeline stage
//	calls:
//	  - name: clamp
//	    args: [i32, 1, 2i]
//	  - name: vec3
//	    template_args: [f32]
//	    args: [1.0, 2.0, 3.0]
//	    expect: vec3<f32>
type Manifest struct {
	Dialect  string     `yaml:"dialect"`
	Stage    string     `yaml:"stage"`
	Pipeline string     `yaml:"pipeline"`
	Calls    []CallSpec `yaml:"calls"`

	Path string `yaml:"-"`
	Raw  []byte `yaml:"-"`
}

// CallSpec is one call of a manifest.
type CallSpec struct {
	Name string `yaml:"name"`
	// Kind is builtin, unary, binary or ctor_conv. When empty it is inferred
	// from the name and the argument count.
	Kind         string   `yaml:"kind"`
	Args         []string `yaml:"args"`
	TemplateArgs []string `yaml:"template_args"`
	// Stage is constant, override or runtime. Empty means constant when every
	// argument is a literal, runtime otherwise.
	Stage    string `yaml:"stage"`
	Pipeline string `yaml:"pipeline"`
	// Discard marks a call whose result is not used.
	Discard bool `yaml:"discard"`
	// Expect is the expected return type, or one of no_match, ambiguous and
	// unknown for calls that must fail.
	Expect string `yaml:"expect"`

	Line   int `yaml:"-"`
	Column int `yaml:"-"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(path, data)
}

// ParseManifest parses manifest YAML. Unknown keys are errors. Identifiers
// and argument strings are NFC-normalised.
func ParseManifest(path string, data []byte) (*Manifest, error) {
	m := &Manifest{Path: path, Raw: data}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	recordPositions(&root, m)

	for i := range m.Calls {
		c := &m.Calls[i]
		c.Name = normalize(c.Name)
		for j := range c.Args {
			c.Args[j] = normalize(c.Args[j])
		}
		for j := range c.TemplateArgs {
			c.TemplateArgs[j] = normalize(c.TemplateArgs[j])
		}
	}
	return m, nil
}

func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// recordPositions copies the line and column of every calls entry from the
// node tree into m.
func recordPositions(root *yaml.Node, m *Manifest) {
	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, val := doc.Content[i], doc.Content[i+1]
		if key.Value != "calls" || val.Kind != yaml.SequenceNode {
			continue
		}
		for j, item := range val.Content {
			if j >= len(m.Calls) {
				break
			}
			m.Calls[j].Line = item.Line
			m.Calls[j].Column = item.Column
		}
	}
}

// Location returns the diagnostic location of call i.
func (m *Manifest) Location(i int) diag.Location {
	loc := diag.Location{File: m.Path}
	if i < 0 || i >= len(m.Calls) {
		return loc
	}
	c := m.Calls[i]
	if n, err := safecast.Conv[uint32](c.Line); err == nil {
		loc.Line = n
	}
	if n, err := safecast.Conv[uint32](c.Column); err == nil {
		loc.Column = n
	}
	return loc
}
