package dialect

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"

	"shadec/internal/intrinsic"
	"shadec/internal/intrinsic/def"
	"shadec/internal/trace"
)

//go:embed tables/*.toml
var tablesFS embed.FS

// Kind names a built-in dialect.
type Kind uint8

const (
	Core Kind = iota
	HLSL

	kindCount
)

// ErrUnknownDialect is returned for names and kinds outside the registry.
var ErrUnknownDialect = errors.New("unknown dialect")

func (k Kind) String() string {
	switch k {
	case Core:
		return "core"
	case HLSL:
		return "hlsl"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

func (k Kind) GoString() string {
	return fmt.Sprintf("dialect.Kind(%s)", k.String())
}

// Kinds lists every built-in dialect in registry order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Core; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind maps a dialect name (case-insensitive) to its Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "core", "wgsl":
		return Core, nil
	case "hlsl":
		return HLSL, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownDialect, s)
}

type entry struct {
	once  sync.Once
	table *intrinsic.Table
	err   error
}

var registry [kindCount]entry

// Load returns the table of dialect k, building it on first use.
func Load(k Kind) (*intrinsic.Table, error) {
	return LoadContext(context.Background(), k)
}

// LoadContext is Load with a tracer taken from ctx. Only the first caller's
// tracer observes the build.
func LoadContext(ctx context.Context, k Kind) (*intrinsic.Table, error) {
	if k >= kindCount {
		return nil, fmt.Errorf("%w %s", ErrUnknownDialect, k)
	}
	e := &registry[k]
	e.once.Do(func() {
		e.table, e.err = build(ctx, k)
	})
	return e.table, e.err
}

// MustLoad is Load that panics on error. Embedded tables are validated by
// tests, so a failure here is a programming error.
func MustLoad(k Kind) *intrinsic.Table {
	t, err := Load(k)
	if err != nil {
		panic(err)
	}
	return t
}

func build(ctx context.Context, k Kind) (*intrinsic.Table, error) {
	_, span := trace.Start(ctx, trace.ScopeTable, "load "+k.String())
	docs, err := Documents(k.String())
	if err != nil {
		span.End(err.Error())
		return nil, err
	}
	data, err := def.Build(docs...)
	if err != nil {
		span.End(err.Error())
		return nil, fmt.Errorf("dialect %s: %w", k, err)
	}
	t, err := intrinsic.NewTable(data)
	if err != nil {
		span.End(err.Error())
		return nil, fmt.Errorf("dialect %s: %w", k, err)
	}
	span.WithExtra("documents", strconv.Itoa(len(docs))).
		WithExtra("intrinsics", strconv.Itoa(len(data.Intrinsics))).
		WithExtra("overloads", strconv.Itoa(len(data.Overloads))).
		End("")
	return t, nil
}

// Documents decodes the embedded definition named name together with the
// chain of documents it extends, base first.
func Documents(name string) ([]*def.Document, error) {
	var chain []*def.Document
	seen := make(map[string]bool)
	for name != "" {
		if seen[name] {
			return nil, fmt.Errorf("dialect %s: extends cycle", name)
		}
		seen[name] = true
		doc, err := def.DecodeFS(tablesFS, path.Join("tables", name+".toml"))
		if err != nil {
			return nil, err
		}
		if doc.Dialect != name {
			return nil, fmt.Errorf("tables/%s.toml declares dialect %q", name, doc.Dialect)
		}
		chain = append(chain, doc)
		name = doc.Extends
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Source returns the raw embedded definition of dialect k, without the
// documents it extends.
func Source(k Kind) ([]byte, error) {
	if k >= kindCount {
		return nil, fmt.Errorf("%w %s", ErrUnknownDialect, k)
	}
	return tablesFS.ReadFile(path.Join("tables", k.String()+".toml"))
}
