// Package randsource is a nogo analyzer that forbids the package-level
// functions of math/rand.  Renders must be reproducible from a seed, so every
// random draw has to come from an explicitly constructed *rand.Rand.
package randsource

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

var Analyzer = &analysis.Analyzer{
	Name: "randsource",
	Doc:  "reports calls to the global math/rand source",
	Run:  run,
}

// Constructors that do not touch the global source.
var allowed = map[string]bool{
	"New":       true,
	"NewSource": true,
	"NewZipf":   true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			ident, ok := sel.X.(*ast.Ident)
			if !ok {
				return true
			}
			pkgName, ok := pass.TypesInfo.Uses[ident].(*types.PkgName)
			if !ok || pkgName.Imported().Path() != "math/rand" {
				return true
			}
			if allowed[sel.Sel.Name] {
				return true
			}

			pass.Reportf(call.Pos(), "math/rand.%s uses the global source; draw from a seeded *rand.Rand instead", sel.Sel.Name)
			return true
		})
	}
	return nil, nil
}
