package handlers

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/casework"
	"github.com/linesmerrill/legal-case-api/config"
)

// Analysis exported for testing purposes
type Analysis struct {
	Svc *casework.Service
}

type simulateRequest struct {
	Language string `json:"language" validate:"omitempty,min=2,max=8"`
}

type summarizeRequest struct {
	DocumentType    string `json:"documentType" validate:"required,min=2,max=100"`
	DocumentContent string `json:"documentContent" validate:"required,min=50"`
}

// StoredAnalysisHandler returns the analysis written when the case was filed
func (a Analysis) StoredAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := a.Svc.StoredAnalysis(ctx, p, mux.Vars(r)["case_id"])
	if err != nil {
		writeCaseworkError("failed to get analysis", w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// SimulateOutcomeHandler runs a fresh analysis of the case as it stands. The result is
// returned only, the stored analysis is left alone.
func (a Analysis) SimulateOutcomeHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	// an empty body asks for the default language
	var req simulateRequest
	if err := decodeRequest(r, &req); err != nil && errors.Cause(err) != io.EOF {
		config.ErrorStatus("failed to simulate outcome", http.StatusBadRequest, w, err)
		return
	}
	if req.Language == "" {
		req.Language = "en"
	}

	// the analysis service is slow, it gets the request deadline rather than the query one
	report, err := a.Svc.SimulateOutcome(r.Context(), p, mux.Vars(r)["case_id"], req.Language)
	if err != nil {
		writeCaseworkError("failed to simulate outcome", w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// PredictBailHandler asks the analysis service how likely bail is
func (a Analysis) PredictBailHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	prediction, err := a.Svc.PredictBail(r.Context(), p, mux.Vars(r)["case_id"])
	if err != nil {
		writeCaseworkError("failed to predict bail", w, err)
		return
	}
	writeJSON(w, http.StatusOK, prediction)
}

// SummarizeDocumentHandler returns a plain language summary of a pasted legal document
func (a Analysis) SummarizeDocumentHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req summarizeRequest
	if err := decodeRequest(r, &req); err != nil {
		config.ErrorStatus("failed to summarize document", http.StatusBadRequest, w, err)
		return
	}

	summary, err := a.Svc.SummarizeDocument(r.Context(), p, plainText(req.DocumentType), req.DocumentContent)
	if err != nil {
		writeCaseworkError("failed to summarize document", w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
