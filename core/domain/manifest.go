package domain

// StatusSuccess is the analyzer status marking a completed module run.
const StatusSuccess = "SUCCESS"

// AnalyzerManifest maps analyzer module names to their completion record.
type AnalyzerManifest map[string]AnalyzerRecord

type AnalyzerRecord struct {
	Status  string         `json:"status"`
	Outputs []OutputRecord `json:"analyzer_outputs,omitempty"`
}

// OutputRecord names one key-value artifact produced by an analyzer module.
type OutputRecord struct {
	ModuleName  string `json:"module_name"`
	ModuleValue string `json:"module_value"`
}

// Complete reports whether the manifest is non-empty and every module succeeded.
func (m AnalyzerManifest) Complete() bool {
	if len(m) == 0 {
		return false
	}
	for _, record := range m {
		if record.Status != StatusSuccess {
			return false
		}
	}
	return true
}

// Outputs indexes the recorded outputs as module name -> module value -> true.
func (m AnalyzerManifest) Outputs() map[string]map[string]bool {
	ret := map[string]map[string]bool{}
	for _, record := range m {
		for _, o := range record.Outputs {
			if _, ok := ret[o.ModuleName]; !ok {
				ret[o.ModuleName] = map[string]bool{}
			}
			ret[o.ModuleName][o.ModuleValue] = true
		}
	}
	return ret
}
