package extraction

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for extraction types:
// - Each record kind renders its own JSON shape
// - Classes without an inheritance clause or methods omit those keys
// - File results emit only non-empty kinds, in fixed kind order, with the key prefix
// - Empty results are not stored in a ProjectIndex; markup results are
// - Paths come back sorted; structured JSON leaves markup files out
// - Concurrent adds are safe
// - Records do not alias the slices they were built from

func TestRecord_MarshalJSON(t *testing.T) {
	t.Parallel()

	pos := Position{Line: 1}
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"class", NewClass(pos, "A", []string{"B"}, []string{"m(self) -> int"}), `{"name":"A","bases":["B"],"methods":["m(self) -> int"]}`},
		{"bare class", NewClass(pos, "A", nil, nil), `{"name":"A"}`},
		{"struct", NewStruct(pos, "S", []string{"Run() error"}), `{"name":"S","methods":["Run() error"]}`},
		{"interface", NewInterface(pos, "I"), `{"name":"I"}`},
		{"enum", NewEnum(pos, "E"), `{"name":"E"}`},
		{"function", NewFunction(pos, "f", "f(a) -> None"), `"f(a) -> None"`},
		{"method", NewMethod(pos, "Load", "(int id)", "Task<User>", nil), `{"name":"Load","parameters":"(int id)","return_type":"Task<User>","modifiers":[]}`},
		{"import", NewImport(pos, "os", nil), `{"source":"os","imported_items":[]}`},
		{"export", NewExport(pos, "default: App"), `"default: App"`},
		{"namespace", NewNamespace(pos, "App.Models"), `"App.Models"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data, err := json.Marshal(tt.rec)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestRecord_NoHTMLEscaping(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(NewFunction(Position{}, "f", "f(): Promise<void>")))
	assert.Equal(t, "\"f(): Promise<void>\"\n", buf.String())
}

func TestRecord_ClonesInputs(t *testing.T) {
	t.Parallel()

	methods := []string{"a()"}
	rec := NewClass(Position{}, "A", nil, methods)
	methods[0] = "changed"

	assert.Equal(t, []string{"a()"}, rec.Methods)
}

func TestFileResult_MarshalJSON(t *testing.T) {
	t.Parallel()

	r := NewFileResult("python", "py_")
	r.Add(NewFunction(Position{Line: 4}, "f", "f() -> None"))
	r.Add(NewClass(Position{Line: 1}, "A", nil, nil))

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(r))
	assert.Equal(t, "{\"py_classes\":[{\"name\":\"A\"}],\"py_functions\":[\"f() -> None\"]}\n", buf.String())

	assert.Equal(t, 2, r.Count())
	assert.Equal(t, "py_classes", r.Key(KindClass))
	assert.Equal(t, []Kind{KindClass, KindFunction}, []Kind{r.All()[0].Kind, r.All()[1].Kind})
}

func TestFileResult_Empty(t *testing.T) {
	t.Parallel()

	r := NewFileResult("go", "")
	assert.True(t, r.IsEmpty())
	assert.Nil(t, r.Records(KindStruct))

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestProjectIndex_Add(t *testing.T) {
	t.Parallel()

	index := NewProjectIndex()

	assert.False(t, index.Add("empty.py", NewFileResult("python", "py_")))
	assert.False(t, index.Add("nil.py", nil))
	assert.True(t, index.Add("Views/Index.cshtml", NewMarkupResult("razor")))

	r := NewFileResult("go", "")
	r.Add(NewNamespace(Position{Line: 1}, "main"))
	assert.True(t, index.Add("main.go", r))

	assert.Equal(t, []string{"Views/Index.cshtml", "main.go"}, index.Paths())
	assert.Equal(t, 2, index.Len())
	assert.Equal(t, 1, index.DeclarationCount())

	data, err := json.Marshal(index)
	require.NoError(t, err)
	assert.Equal(t, `{"main.go":{"namespaces":["main"]}}`, string(data))
}

func TestProjectIndex_ConcurrentAdd(t *testing.T) {
	t.Parallel()

	index := NewProjectIndex()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := NewFileResult("python", "py_")
			r.Add(NewFunction(Position{Line: 1}, "f", "f() -> None"))
			index.Add(string(rune('a'+i%26))+".py", r)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 26, index.Len())
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "class", KindClass.String())
	assert.Equal(t, "namespaces", KindNamespace.Key())
	assert.Equal(t, "kind(99)", Kind(99).String())
	assert.True(t, KindEnum.IsType())
	assert.False(t, KindFunction.IsType())
}
