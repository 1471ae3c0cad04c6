package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Kind identifies which list of a file result a declaration belongs to.
type Kind int

const (
	KindClass Kind = iota
	KindStruct
	KindInterface
	KindEnum
	KindMethod
	KindFunction
	KindImport
	KindExport
	KindNamespace
)

// Kinds lists every declaration kind in emission order.
var Kinds = []Kind{
	KindClass,
	KindStruct,
	KindInterface,
	KindEnum,
	KindMethod,
	KindFunction,
	KindImport,
	KindExport,
	KindNamespace,
}

var kindKeys = map[Kind]string{
	KindClass:     "classes",
	KindStruct:    "structs",
	KindInterface: "interfaces",
	KindEnum:      "enums",
	KindMethod:    "methods",
	KindFunction:  "functions",
	KindImport:    "imports",
	KindExport:    "exports",
	KindNamespace: "namespaces",
}

var kindNames = map[Kind]string{
	KindClass:     "class",
	KindStruct:    "struct",
	KindInterface: "interface",
	KindEnum:      "enum",
	KindMethod:    "method",
	KindFunction:  "function",
	KindImport:    "import",
	KindExport:    "export",
	KindNamespace: "namespace",
}

// Key returns the JSON key of the kind's list (e.g. "classes").
func (k Kind) Key() string {
	return kindKeys[k]
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsType reports whether records of this kind appear in the flattened index.
func (k Kind) IsType() bool {
	switch k {
	case KindClass, KindStruct, KindInterface, KindEnum, KindNamespace:
		return true
	}
	return false
}

// Position locates a declaration: 1-based anchor line, 0-based anchor byte
// offset and the name of the nearest enclosing type or namespace ("" at
// file level).
type Position struct {
	Line   int
	Offset int
	Scope  string
}

// Record is a single extracted declaration. Which fields are meaningful
// depends on Kind. Records are built through the New* constructors and are
// not modified afterwards.
type Record struct {
	Kind Kind
	Name string
	Position

	// Class, Struct
	Bases   []string
	Methods []string

	// Function, Method (display form)
	Signature string

	// Function, Method (structured form)
	Structured bool
	Parameters string
	ReturnType string
	Modifiers  []string

	// Import
	Source        string
	ImportedItems []string
}

// NewClass builds a class record. A nil bases slice means the declaration
// had no inheritance clause.
func NewClass(pos Position, name string, bases, methods []string) Record {
	return Record{Kind: KindClass, Name: name, Position: pos, Bases: clone(bases), Methods: clone(methods)}
}

// NewStruct builds a struct record.
func NewStruct(pos Position, name string, methods []string) Record {
	return Record{Kind: KindStruct, Name: name, Position: pos, Methods: clone(methods)}
}

// NewInterface builds an interface record.
func NewInterface(pos Position, name string) Record {
	return Record{Kind: KindInterface, Name: name, Position: pos}
}

// NewEnum builds an enum record.
func NewEnum(pos Position, name string) Record {
	return Record{Kind: KindEnum, Name: name, Position: pos}
}

// NewFunction builds a function record in display form.
func NewFunction(pos Position, name, signature string) Record {
	return Record{Kind: KindFunction, Name: name, Position: pos, Signature: signature}
}

// NewMethod builds a structured method record (name, parameters, return
// type, modifiers).
func NewMethod(pos Position, name, parameters, returnType string, modifiers []string) Record {
	if modifiers == nil {
		modifiers = []string{}
	}
	return Record{
		Kind:       KindMethod,
		Name:       name,
		Position:   pos,
		Structured: true,
		Parameters: parameters,
		ReturnType: returnType,
		Modifiers:  clone(modifiers),
	}
}

// NewImport builds an import record.
func NewImport(pos Position, source string, items []string) Record {
	if items == nil {
		items = []string{}
	}
	return Record{Kind: KindImport, Name: source, Position: pos, Source: source, ImportedItems: clone(items)}
}

// NewExport builds an export record.
func NewExport(pos Position, name string) Record {
	return Record{Kind: KindExport, Name: name, Position: pos}
}

// NewNamespace builds a namespace (package, module) record.
func NewNamespace(pos Position, name string) Record {
	return Record{Kind: KindNamespace, Name: name, Position: pos}
}

// marshal encodes without HTML escaping so generic signatures keep their
// angle brackets.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func clone(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

type classJSON struct {
	Name    string   `json:"name"`
	Bases   []string `json:"bases,omitempty"`
	Methods []string `json:"methods,omitempty"`
}

type nameJSON struct {
	Name string `json:"name"`
}

type methodJSON struct {
	Name       string   `json:"name"`
	Parameters string   `json:"parameters"`
	ReturnType string   `json:"return_type"`
	Modifiers  []string `json:"modifiers"`
}

type importJSON struct {
	Source        string   `json:"source"`
	ImportedItems []string `json:"imported_items"`
}

// MarshalJSON renders the record in the structured index shape for its kind.
func (r Record) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case KindClass, KindStruct:
		return marshal(classJSON{Name: r.Name, Bases: r.Bases, Methods: r.Methods})
	case KindInterface, KindEnum:
		return marshal(nameJSON{Name: r.Name})
	case KindFunction, KindMethod:
		if r.Structured {
			return marshal(methodJSON{
				Name:       r.Name,
				Parameters: r.Parameters,
				ReturnType: r.ReturnType,
				Modifiers:  r.Modifiers,
			})
		}
		return marshal(r.Signature)
	case KindImport:
		return marshal(importJSON{Source: r.Source, ImportedItems: r.ImportedItems})
	case KindExport, KindNamespace:
		return marshal(r.Name)
	}
	return nil, fmt.Errorf("unknown declaration kind %d", int(r.Kind))
}

// FileResult holds the declarations extracted from one source file, grouped
// by kind. Kinds without records are never emitted.
type FileResult struct {
	Language string

	// MarkupOnly marks files that are recorded by path alone (razor views).
	MarkupOnly bool

	// KeyPrefix is prepended to every kind key (python uses "py_").
	KeyPrefix string

	records map[Kind][]Record
}

// NewFileResult creates an empty result for the given language tag.
func NewFileResult(language, keyPrefix string) *FileResult {
	return &FileResult{
		Language:  language,
		KeyPrefix: keyPrefix,
		records:   make(map[Kind][]Record),
	}
}

// NewMarkupResult creates a path-only result.
func NewMarkupResult(language string) *FileResult {
	r := NewFileResult(language, "")
	r.MarkupOnly = true
	return r
}

// Add appends a record to its kind list.
func (f *FileResult) Add(rec Record) {
	if f.records == nil {
		f.records = make(map[Kind][]Record)
	}
	f.records[rec.Kind] = append(f.records[rec.Kind], rec)
}

// Records returns a copy of the records of the given kind in source order.
func (f *FileResult) Records(kind Kind) []Record {
	recs := f.records[kind]
	if len(recs) == 0 {
		return nil
	}
	out := make([]Record, len(recs))
	copy(out, recs)
	return out
}

// All returns every record in emission order (kind order, then source order).
func (f *FileResult) All() []Record {
	var out []Record
	for _, kind := range Kinds {
		out = append(out, f.records[kind]...)
	}
	return out
}

// Count returns the total number of records.
func (f *FileResult) Count() int {
	n := 0
	for _, recs := range f.records {
		n += len(recs)
	}
	return n
}

// IsEmpty reports whether the result carries no declarations.
func (f *FileResult) IsEmpty() bool {
	return f.Count() == 0
}

// Key returns the JSON key used for a kind in this file.
func (f *FileResult) Key(kind Kind) string {
	return f.KeyPrefix + kind.Key()
}

// MarshalJSON renders the kind lists as an object with keys in fixed order.
func (f *FileResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, kind := range Kinds {
		recs := f.records[kind]
		if len(recs) == 0 {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := marshal(f.Key(kind))
		if err != nil {
			return nil, err
		}
		value, err := marshal(recs)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", kind.Key(), err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ProjectIndex maps slash-separated relative paths to file results. It is
// safe for concurrent use.
type ProjectIndex struct {
	mu    sync.Mutex
	files map[string]*FileResult
}

// NewProjectIndex creates an empty index.
func NewProjectIndex() *ProjectIndex {
	return &ProjectIndex{files: make(map[string]*FileResult)}
}

// Add stores a file result. Empty results are discarded; markup-only
// results are kept. Reports whether the result was stored.
func (p *ProjectIndex) Add(relPath string, result *FileResult) bool {
	if result == nil || (!result.MarkupOnly && result.IsEmpty()) {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[relPath] = result
	return true
}

// Get returns the result stored for a path.
func (p *ProjectIndex) Get(relPath string) (*FileResult, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.files[relPath]
	return r, ok
}

// Paths returns all stored paths in sorted order.
func (p *ProjectIndex) Paths() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	paths := make([]string, 0, len(p.files))
	for path := range p.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of stored files.
func (p *ProjectIndex) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.files)
}

// DeclarationCount returns the number of records across all files.
func (p *ProjectIndex) DeclarationCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, r := range p.files {
		n += r.Count()
	}
	return n
}

// MarshalJSON renders the structured index: an object keyed by sorted path.
// Markup-only files carry no declarations and are left out.
func (p *ProjectIndex) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, path := range p.Paths() {
		result, _ := p.Get(path)
		if result.MarkupOnly {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := marshal(path)
		if err != nil {
			return nil, err
		}
		value, err := marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", path, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
