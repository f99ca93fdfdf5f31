package def

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Document is one table definition file.
type Document struct {
	Dialect    string      `toml:"dialect"`
	Extends    string      `toml:"extends"`
	TypeSets   []TypeSet   `toml:"type_set"`
	NumberSets []NumberSet `toml:"number_set"`
	Intrinsics []Intrinsic `toml:"intrinsic"`
}

// TypeSet names a set of scalar types usable as a matcher.
type TypeSet struct {
	Name    string   `toml:"name"`
	Members []string `toml:"members"`
}

// NumberSet names a set of numbers or enumerators usable as a matcher.
type NumberSet struct {
	Name    string   `toml:"name"`
	Members []string `toml:"members"`
}

// Intrinsic groups the overload signatures of one name.
type Intrinsic struct {
	Name      string   `toml:"name"`
	Doc       string   `toml:"doc"`
	Overloads []string `toml:"overloads"`
}

// Decode parses a definition document. Unknown keys are errors.
func Decode(name, data string) (*Document, error) {
	var doc Document
	md, err := toml.Decode(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: unknown keys: %s", name, strings.Join(keys, ", "))
	}
	if doc.Dialect == "" {
		return nil, fmt.Errorf("%s: missing dialect name", name)
	}
	return &doc, nil
}

// DecodeFS reads and decodes path from fsys.
func DecodeFS(fsys fs.FS, path string) (*Document, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	return Decode(path, string(data))
}
