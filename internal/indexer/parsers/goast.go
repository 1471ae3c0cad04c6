package parsers

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"strconv"

	"github.com/mvp-joe/project-indexer/internal/grammar"
	"github.com/mvp-joe/project-indexer/internal/indexer/extraction"
)

// goASTExtractor indexes Go files with the standard compiler front end
// instead of tree-sitter. Its output matches the Go tree-sitter catalog.
type goASTExtractor struct {
	imports bool
}

// goTypeDecl accumulates a struct or interface until its methods are known.
type goTypeDecl struct {
	kind    extraction.Kind
	name    string
	pos     extraction.Position
	methods []string
}

func (e *goASTExtractor) Extract(ctx context.Context, relPath string, src []byte) (*extraction.FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	file, parseErr := parser.ParseFile(fset, relPath, src, parser.SkipObjectResolution)
	if file == nil {
		return nil, fmt.Errorf("failed to parse go file %s: %w", relPath, parseErr)
	}

	text := func(n ast.Node) string {
		start := fset.Position(n.Pos()).Offset
		end := fset.Position(n.End()).Offset
		if start < 0 || end > len(src) || start > end {
			return ""
		}
		return string(src[start:end])
	}
	pkg := ""
	if file.Name != nil {
		pkg = file.Name.Name
	}
	position := func(n ast.Node) extraction.Position {
		p := fset.Position(n.Pos())
		return extraction.Position{Line: p.Line, Offset: p.Offset, Scope: pkg}
	}

	var types []*goTypeDecl
	byName := make(map[string]*goTypeDecl)
	ast.Inspect(file, func(n ast.Node) bool {
		spec, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}
		decl := &goTypeDecl{name: spec.Name.Name, pos: position(spec)}
		switch spec.Type.(type) {
		case *ast.StructType:
			decl.kind = extraction.KindStruct
		case *ast.InterfaceType:
			decl.kind = extraction.KindInterface
		default:
			return true
		}
		types = append(types, decl)
		if _, exists := byName[decl.name]; !exists {
			byName[decl.name] = decl
		}
		return true
	})

	result := extraction.NewFileResult(string(grammar.Go), "")
	var functions []extraction.Record

	for _, d := range file.Decls {
		fn, ok := d.(*ast.FuncDecl)
		if !ok {
			continue
		}

		sig := Signature{Name: fn.Name.Name, Parameters: text(fn.Type.Params)}
		if fn.Type.Results != nil {
			sig.ReturnType = text(fn.Type.Results)
		}
		rendered := sig.Render(StyleSpace)

		if fn.Recv != nil && len(fn.Recv.List) > 0 {
			if owner := byName[receiverTypeName(fn.Recv.List[0].Type)]; owner != nil && owner.kind == extraction.KindStruct {
				owner.methods = append(owner.methods, rendered)
				continue
			}
		}
		functions = append(functions, extraction.NewFunction(position(fn), fn.Name.Name, rendered))
	}

	for _, t := range types {
		if t.kind == extraction.KindStruct {
			result.Add(extraction.NewStruct(t.pos, t.name, t.methods))
		} else {
			result.Add(extraction.NewInterface(t.pos, t.name))
		}
	}
	for _, f := range functions {
		result.Add(f)
	}

	if e.imports {
		for _, spec := range file.Imports {
			importPath, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				importPath = spec.Path.Value
			}
			name := path.Base(importPath)
			if spec.Name != nil {
				name = spec.Name.Name
			}
			result.Add(extraction.NewImport(position(spec), importPath, []string{name}))
		}
	}

	if pkg != "" {
		p := fset.Position(file.Package)
		result.Add(extraction.NewNamespace(extraction.Position{Line: p.Line, Offset: p.Offset}, pkg))
	}

	if parseErr != nil {
		return result, fmt.Errorf("%s: %w: %v", relPath, grammar.ErrSyntax, parseErr)
	}
	return result, nil
}

// receiverTypeName strips pointers and type parameters from a receiver type.
func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	case *ast.ParenExpr:
		return receiverTypeName(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}
