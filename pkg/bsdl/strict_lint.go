package bsdl

import "fmt"

// LintDiagnostic is one deviation the strict participle grammar found while
// re-parsing a file that the best-effort extractor already accepted.
type LintDiagnostic struct {
	Message string
}

// ParseStrict runs the strict grammar (pkg/bsdl's participle-based Parser)
// against the file and returns any grammar diagnostics. It never affects the
// Data produced by Parse/ParseString — strict mode is purely a lint pass for
// tooling like "jtagscan parse --lint", never load-bearing for normal
// parsing, since the spec requires malformed sections to degrade gracefully
// rather than fail the whole file.
func ParseStrict(path string) ([]LintDiagnostic, error) {
	p, err := NewParser()
	if err != nil {
		return nil, fmt.Errorf("bsdl: build strict parser: %w", err)
	}
	if _, err := p.ParseFile(path); err != nil {
		return []LintDiagnostic{{Message: err.Error()}}, nil
	}
	return nil, nil
}
