package activities

type ListPDFsInput struct {
	InputDir string `json:"input_dir"`
}

type ListPDFsOutput struct {
	Paths []string `json:"paths"`
}

type ComputeDocIDInput struct {
	Path string `json:"path"`
}

type ComputeDocIDOutput struct {
	DocID string `json:"doc_id"`
}

type ExtractDocumentInput struct {
	RunID string `json:"run_id"`
	Path  string `json:"path"`
	// Index is the document's position in the batch listing; it keeps
	// artifact names unique and ordered.
	Index int `json:"index"`
}

type ExtractDocumentOutput struct {
	DocID        string `json:"doc_id"`
	FileName     string `json:"file_name"`
	Cluster      string `json:"cluster"`
	Questions    int    `json:"questions"`
	Explanations int    `json:"explanations"`
	Dropped      int    `json:"dropped"`
	Failed       bool   `json:"failed"`
	FailReason   string `json:"fail_reason,omitempty"`
	ArtifactPath string `json:"artifact_path"`
}

type UpsertRecordsInput struct {
	ArtifactPath string `json:"artifact_path"`
}

type UpdateDocumentStatusInput struct {
	DocID      string `json:"doc_id"`
	FileName   string `json:"file_name"`
	Status     string `json:"status"`
	FailReason string `json:"fail_reason,omitempty"`
}

// DocumentRef points the output writer at one document of a batch. A ref
// without an artifact stands for a document whose processing never finished.
type DocumentRef struct {
	FileName     string `json:"file_name"`
	ArtifactPath string `json:"artifact_path,omitempty"`
	FailReason   string `json:"fail_reason,omitempty"`
}

type WriteOutputsInput struct {
	RunID     string        `json:"run_id"`
	OutputDir string        `json:"output_dir,omitempty"`
	Documents []DocumentRef `json:"documents"`
}

type WriteOutputsOutput struct {
	OutputDir    string `json:"output_dir"`
	Files        int    `json:"files"`
	Failed       int    `json:"failed"`
	Questions    int    `json:"questions"`
	Explanations int    `json:"explanations"`
}
