// Package sqlconcat содержит анализатор, запрещающий собирать SQL-запросы
// конкатенацией строк или через fmt.Sprintf при вызове методов Exec*, Query* и Prepare*.
package sqlconcat

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer находит SQL-запросы, собранные из строк во время выполнения
var Analyzer = &analysis.Analyzer{
	Name:     "sqlconcat",
	Doc:      "запрещает передавать в Exec/Query/Prepare запрос, собранный конкатенацией или fmt.Sprintf",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// queryArg хранит индекс аргумента с текстом запроса для каждого метода
var queryArg = map[string]int{
	"Exec":            0,
	"Query":           0,
	"QueryRow":        0,
	"Prepare":         0,
	"ExecContext":     1,
	"QueryContext":    1,
	"QueryRowContext": 1,
	"PrepareContext":  1,
}

func run(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	insp.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return
		}
		idx, ok := queryArg[sel.Sel.Name]
		if !ok || len(call.Args) <= idx {
			return
		}
		// Только вызовы методов, не функций пакетов
		if s, ok := pass.TypesInfo.Selections[sel]; !ok || s.Kind() != types.MethodVal {
			return
		}

		arg := ast.Unparen(call.Args[idx])
		if !isString(pass, arg) {
			return
		}

		switch e := arg.(type) {
		case *ast.BinaryExpr:
			// Конкатенация констант вычисляется при компиляции и безопасна
			if e.Op == token.ADD && pass.TypesInfo.Types[e].Value == nil {
				pass.Reportf(arg.Pos(), "SQL-запрос собран конкатенацией строк, используйте плейсхолдеры")
			}
		case *ast.CallExpr:
			if isSprintf(pass, e) {
				pass.Reportf(arg.Pos(), "SQL-запрос собран через fmt.Sprintf, используйте плейсхолдеры")
			}
		}
	})

	return nil, nil
}

func isString(pass *analysis.Pass, e ast.Expr) bool {
	t := pass.TypesInfo.TypeOf(e)
	if t == nil {
		return false
	}
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Info()&types.IsString != 0
}

func isSprintf(pass *analysis.Pass, call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
	if !ok || fn.Pkg() == nil {
		return false
	}
	return fn.Pkg().Path() == "fmt" && fn.Name() == "Sprintf"
}
