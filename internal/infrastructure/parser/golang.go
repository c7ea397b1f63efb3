package parser

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"github.com/khanhnv2901/assess/internal/domain/source"
)

// goDangerousCalls are package-qualified calls flagged regardless of arguments.
var goDangerousCalls = map[string]struct{}{
	"exec.Command":        {},
	"exec.CommandContext": {},
	"template.HTML":       {},
	"template.JS":         {},
	"template.URL":        {},
	"unsafe.Pointer":      {},
	"syscall.Exec":        {},
}

// goQueryMethods maps database methods to the index of their query argument.
var goQueryMethods = map[string]int{
	"Query":           0,
	"QueryRow":        0,
	"Exec":            0,
	"Prepare":         0,
	"QueryContext":    1,
	"QueryRowContext": 1,
	"ExecContext":     1,
	"PrepareContext":  1,
}

func extractGo(r *source.ParseResult) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, r.FilePath, r.Source, parser.SkipObjectResolution)
	if err != nil {
		return err
	}

	lineText := func(pos token.Pos) (int, string) {
		n := fset.Position(pos).Line
		return n, strings.TrimSpace(r.Line(n))
	}

	ast.Inspect(file, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.BasicLit:
			if node.Kind != token.STRING {
				return true
			}
			value, err := strconv.Unquote(node.Value)
			if err != nil || value == "" {
				return true
			}
			line, text := lineText(node.Pos())
			r.Literals = append(r.Literals, source.Extraction{Line: line, Text: value})
			if reSQLStatement.MatchString(value) {
				r.Queries = append(r.Queries, source.Extraction{Line: line, Text: text})
			}
		case *ast.CallExpr:
			name := calleeName(node.Fun)
			if name == "" {
				return true
			}
			if _, ok := goDangerousCalls[name]; ok {
				line, text := lineText(node.Pos())
				r.DangerousCalls = append(r.DangerousCalls, source.Call{Line: line, Name: name, Text: text})
				return true
			}
			method := name[strings.LastIndex(name, ".")+1:]
			if idx, ok := goQueryMethods[method]; ok && strings.Contains(name, ".") && len(node.Args) > idx {
				if _, constant := node.Args[idx].(*ast.BasicLit); !constant {
					line, text := lineText(node.Pos())
					r.DangerousCalls = append(r.DangerousCalls, source.Call{Line: line, Name: "sql." + method, Text: text})
				}
			}
		}
		return true
	})
	return nil
}

// calleeName renders pkg.Func or recv.Method for selector calls and the bare
// identifier otherwise.
func calleeName(fun ast.Expr) string {
	switch f := fun.(type) {
	case *ast.Ident:
		return f.Name
	case *ast.SelectorExpr:
		if x, ok := f.X.(*ast.Ident); ok {
			return x.Name + "." + f.Sel.Name
		}
		return "_." + f.Sel.Name
	default:
		return ""
	}
}
