package domain

import (
	"fmt"
	"io"
)

// Variant selects one of the three analyzer output trees.
type Variant string

const (
	VariantBase  Variant = "base"
	VariantExtra Variant = "extra"
	VariantUser  Variant = "user"
)

// Variants lists every variant in storage order.
var Variants = []Variant{VariantBase, VariantExtra, VariantUser}

// ParseVariant maps "" to VariantBase and rejects unknown names.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case "", VariantBase:
		return VariantBase, nil
	case VariantExtra, VariantUser:
		return Variant(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidVariant, s)
}

// Dir returns the per-image directory holding outputs of this variant.
func (v Variant) Dir() string {
	if v == "" || v == VariantBase {
		return "analyzer_output"
	}
	return "analyzer_output_" + string(v)
}

// AnalysisOutput is a loaded artifact: exactly one of KV or Archive is set,
// or neither when the artifact does not exist.
type AnalysisOutput struct {
	KV      map[string]string
	Archive io.Reader
}

// Found reports whether the artifact existed.
func (o AnalysisOutput) Found() bool {
	return o.KV != nil || o.Archive != nil
}

// AnalyzerOutput is one key-value artifact extracted from an analysis report.
type AnalyzerOutput struct {
	ModuleName  string
	ModuleValue string
	Variant     Variant
	Data        map[string]string
}
