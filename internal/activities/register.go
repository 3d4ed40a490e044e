package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ListPDFsActivity)
	w.RegisterActivity(a.ComputeDocIDActivity)
	w.RegisterActivity(a.ExtractDocumentActivity)
	w.RegisterActivity(a.UpsertRecordsActivity)
	w.RegisterActivity(a.UpdateDocumentStatusActivity)
	w.RegisterActivity(a.WriteOutputsActivity)
}
