// randcheck runs the randsource analyzer as a standalone vet tool:
//
//	go vet -vettool=$(which randcheck) ./...
package main

import (
	"covtrace/repo-tools/nogo/randsource"

	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(randsource.Analyzer)
}
