// Package noerrtext defines an analyzer that reports handlers sending an
// error's text to the client through http.Error. API responses carry fixed
// messages; the underlying error belongs in the log.
package noerrtext

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

var Analyzer = &analysis.Analyzer{
	Name:     "noerrtext",
	Doc:      "reports err.Error() passed as the message of http.Error",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var errorType = types.Universe.Lookup("error").Type().Underlying().(*types.Interface)

func run(pass *analysis.Pass) (interface{}, error) {
	calls := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	calls.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		if !isHTTPError(pass, call) || len(call.Args) < 2 {
			return
		}

		ast.Inspect(call.Args[1], func(node ast.Node) bool {
			if inner, ok := node.(*ast.CallExpr); ok && isErrorMethodCall(pass, inner) {
				pass.Reportf(inner.Pos(), "internal error text sent to the client")
				return false
			}
			return true
		})
	})

	return nil, nil
}

func isHTTPError(pass *analysis.Pass, call *ast.CallExpr) bool {
	callee, ok := typeutil.Callee(pass.TypesInfo, call).(*types.Func)
	return ok && callee.Pkg() != nil && callee.Pkg().Path() == "net/http" && callee.Name() == "Error"
}

func isErrorMethodCall(pass *analysis.Pass, call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Error" || len(call.Args) != 0 {
		return false
	}
	receiver := pass.TypesInfo.TypeOf(sel.X)

	return receiver != nil && types.Implements(receiver, errorType)
}
