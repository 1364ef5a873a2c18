// The application provides a custom Go static analysis tool that combines
// standard analyzers from the Go toolchain, third-party analyzers, and project-specific
// analyzers into a single `multichecker.Main` invocation.
//
// The static analyzer list can be extended or filtered via a config file (config.json),
// which lists the names of the staticcheck, simple and stylecheck analyzers to be enabled.
//
// This package is intended to be compiled into a standalone binary used to enforce
// coding rules and catch potential bugs across a Go project.
package main

import (
	// Standard analyzers from the Go toolchain.
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unusedresult"

	// Third-party analyzers.
	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"

	// Project-specific analyzers.
	"github.com/patric-chuzhbe/wanderlust/cmd/staticlint/noambientstore"
	"github.com/patric-chuzhbe/wanderlust/cmd/staticlint/noosexit"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the name of the JSON configuration file that lists enabled analyzers.
const Config = `config.json`

// ConfigData describes the structure of the configuration file.
// Each field lists analyzer names of one honnef.co suite, e.g. "SA4006", "S1002", "ST1005".
type ConfigData struct {
	Staticcheck []string
	Simple      []string
	Stylecheck  []string
}

// main loads config.json from the binary's directory, collects the analyzers and
// launches them using multichecker.Main.
//
// It includes:
//   - Standard Go analyzers for detecting common bugs.
//   - Third-party analyzers like ineffassign and nilerr.
//   - noosexit, which disallows os.Exit and log.Fatal in main.main.
//   - noambientstore, which disallows package-level database and session store handles.
//   - The honnef.co analyzers enabled in the configuration.
func main() {
	appfile, err := os.Executable()
	if err != nil {
		panic(err)
	}
	data, err := os.ReadFile(filepath.Join(filepath.Dir(appfile), Config))
	if err != nil {
		panic(err)
	}
	var cfg ConfigData
	if err = json.Unmarshal(data, &cfg); err != nil {
		panic(err)
	}

	// Standard and project-specific analyzers that are always run.
	myChecks := []*analysis.Analyzer{
		copylock.Analyzer,     // Checks for copying of locks by value.
		errorsas.Analyzer,     // Checks the second argument of errors.As.
		httpresponse.Analyzer, // Finds uses of an HTTP response before its error is checked.
		loopclosure.Analyzer,  // Detects references to loop variables inside closures.
		lostcancel.Analyzer,   // Finds contexts that are not canceled.
		printf.Analyzer,       // Verifies format strings.
		structtag.Analyzer,    // Checks for incorrect struct field tags.
		unmarshal.Analyzer,    // Detects non-pointer unmarshal targets.
		unreachable.Analyzer,  // Detects unreachable code.
		unusedresult.Analyzer, // Flags ignored results of pure functions.

		ineffassign.Analyzer, // Detects ineffective assignments.
		nilerr.Analyzer,      // Flags returning nil after an error was created.

		noosexit.Analyzer,       // Forbids os.Exit and log.Fatal in main.main.
		noambientstore.Analyzer, // Forbids store handles in package-level variables.
	}

	myChecks = append(myChecks, enabled(staticcheck.Analyzers, cfg.Staticcheck)...)
	myChecks = append(myChecks, enabled(simple.Analyzers, cfg.Simple)...)
	myChecks = append(myChecks, enabled(stylecheck.Analyzers, cfg.Stylecheck)...)

	multichecker.Main(myChecks...)
}

// enabled picks the analyzers of suite whose names are listed.
func enabled(suite []*lint.Analyzer, names []string) []*analysis.Analyzer {
	checks := make(map[string]bool, len(names))
	for _, v := range names {
		checks[v] = true
	}

	var result []*analysis.Analyzer
	for _, v := range suite {
		if checks[v.Analyzer.Name] {
			result = append(result, v.Analyzer)
		}
	}
	return result
}
