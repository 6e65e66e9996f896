package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Report is an opaque JSON document (analysis, gates and gates-eval reports).
// Numbers decode as json.Number so they keep their original text.
type Report map[string]any

func (r *Report) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*r = m
	return nil
}

// AnalyzerOutputs walks an analysis report shaped as
// module_name -> module_value -> variant -> {key: value} and returns the
// non-empty key-value artifacts it holds, sorted by module name, value and variant.
// Branches that do not have this shape are skipped.
func (r Report) AnalyzerOutputs() []AnalyzerOutput {
	var ret []AnalyzerOutput
	for _, moduleName := range sortedKeys(r) {
		values, ok := r[moduleName].(map[string]any)
		if !ok {
			continue
		}
		for _, moduleValue := range sortedKeys(values) {
			variants, ok := values[moduleValue].(map[string]any)
			if !ok {
				continue
			}
			for _, variant := range Variants {
				data, ok := variants[string(variant)].(map[string]any)
				if !ok || len(data) == 0 {
					continue
				}
				ret = append(ret, AnalyzerOutput{
					ModuleName:  moduleName,
					ModuleValue: moduleValue,
					Variant:     variant,
					Data:        stringify(data),
				})
			}
		}
	}
	return ret
}

// GateOutputs returns the gates report as gate name -> output lines.
// Gates whose value is not a list are skipped.
func (r Report) GateOutputs() map[string][]string {
	ret := map[string][]string{}
	for name, v := range r {
		items, ok := v.([]any)
		if !ok {
			continue
		}
		lines := make([]string, 0, len(items))
		for _, item := range items {
			lines = append(lines, formatValue(item))
		}
		ret[name] = lines
	}
	return ret
}

func stringify(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = formatValue(v)
	}
	return out
}

// formatValue renders a scalar the way it appeared in the report, never in exponent form.
func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
