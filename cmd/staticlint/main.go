// Command staticlint проверяет код сервиса набором статических анализаторов.
//
// В набор входят:
//   - анализаторы golang.org/x/tools/go/analysis/passes: assign, atomic, bools,
//     buildtag, copylocks, httpresponse, lostcancel, nilness, printf, shadow, unreachable;
//   - все проверки класса SA из staticcheck и отдельные проверки ST и S (см. extraChecks);
//   - errcheck: необработанные ошибки;
//   - sqlconcat: SQL-запрос, собранный конкатенацией строк или через fmt.Sprintf.
//
// Запуск:
//
//	go run ./cmd/staticlint ./...
package main

import (
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/buildtag"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/kisielk/errcheck/errcheck"

	"github.com/tempizhere/shortlink/cmd/staticlint/sqlconcat"
)

// extraChecks перечисляет проверки staticcheck вне класса SA, которые включены в линтер
var extraChecks = map[string]bool{
	"ST1000": true, // комментарий пакета
	"ST1005": true, // формат текста ошибок
	"S1000":  true, // select с одной веткой
	"S1002":  true, // сравнение bool с константой
}

func main() {
	multichecker.Main(buildAnalyzers()...)
}

// enabled сообщает, входит ли проверка staticcheck в набор
func enabled(name string) bool {
	return strings.HasPrefix(name, "SA") || extraChecks[name]
}

// buildAnalyzers возвращает набор анализаторов multichecker
func buildAnalyzers() []*analysis.Analyzer {
	analyzers := []*analysis.Analyzer{
		assign.Analyzer,
		atomic.Analyzer,
		bools.Analyzer,
		buildtag.Analyzer,
		copylock.Analyzer,
		httpresponse.Analyzer,
		lostcancel.Analyzer,
		nilness.Analyzer,
		printf.Analyzer,
		shadow.Analyzer,
		unreachable.Analyzer,
		errcheck.Analyzer,
		sqlconcat.Analyzer,
	}

	for _, a := range staticcheck.Analyzers {
		if enabled(a.Analyzer.Name) {
			analyzers = append(analyzers, a.Analyzer)
		}
	}
	for _, a := range stylecheck.Analyzers {
		if enabled(a.Analyzer.Name) {
			analyzers = append(analyzers, a.Analyzer)
		}
	}
	for _, a := range simple.Analyzers {
		if enabled(a.Analyzer.Name) {
			analyzers = append(analyzers, a.Analyzer)
		}
	}
	return analyzers
}
