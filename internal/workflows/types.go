package workflows

type ExtractionBatchInput struct {
	InputDir              string `json:"input_dir,omitempty"`
	OutputDir             string `json:"output_dir,omitempty"`
	MaxConcurrentChildren int    `json:"max_concurrent_children"`
}

type ExtractionBatchResult struct {
	RunID        string `json:"run_id"`
	OutputDir    string `json:"output_dir"`
	Files        int    `json:"files"`
	Failed       int    `json:"failed"`
	Questions    int    `json:"questions"`
	Explanations int    `json:"explanations"`
}

type DocumentExtractInput struct {
	RunID string `json:"run_id"`
	Path  string `json:"path"`
	Index int    `json:"index"`
}

type DocumentExtractResult struct {
	FileName     string `json:"file_name"`
	Status       string `json:"status"`
	FailReason   string `json:"fail_reason,omitempty"`
	ArtifactPath string `json:"artifact_path,omitempty"`
	PersistError string `json:"persist_error,omitempty"`
	Questions    int    `json:"questions"`
	Explanations int    `json:"explanations"`
}

type DocumentStatus struct {
	DocID       string            `json:"doc_id"`
	Path        string            `json:"path"`
	CurrentStep string            `json:"current_step"`
	Status      string            `json:"status"`
	FailReason  string            `json:"fail_reason,omitempty"`
	Steps       map[string]string `json:"steps"`
}

type BatchProgress struct {
	RunID         string            `json:"run_id"`
	Total         int               `json:"total"`
	Done          int               `json:"done"`
	Failed        int               `json:"failed"`
	PersistFailed int               `json:"persist_failed"`
	Questions     int               `json:"questions"`
	Explanations  int               `json:"explanations"`
	PerDocument   map[string]string `json:"per_document_status"`
	ChildWorkflow map[string]string `json:"child_workflow_ids,omitempty"`
	Completed     bool              `json:"completed"`
}
