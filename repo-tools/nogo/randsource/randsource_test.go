package randsource_test

import (
	"testing"

	"covtrace/repo-tools/nogo/randsource"

	"golang.org/x/tools/go/analysis/analysistest"
)

func TestAnalyzer(t *testing.T) {
	analysistest.Run(t, analysistest.TestData(), randsource.Analyzer, "a")
}
