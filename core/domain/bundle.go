package domain

// ImageBundle groups every document stored for one image.
type ImageBundle struct {
	ImageReport      ImageReport      `json:"image_report"`
	AnalysisReport   Report           `json:"analysis_report"`
	AnalyzerManifest AnalyzerManifest `json:"analyzer_manifest"`
	GatesReport      Report           `json:"gates_report"`
	GatesEvalReport  Report           `json:"gates_eval_report"`
}
