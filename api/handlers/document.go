package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/casework"
	"github.com/linesmerrill/legal-case-api/config"
)

// Document exported for testing purposes
type Document struct {
	Svc *casework.Service
	Hub *Hub
}

type addDocumentRequest struct {
	Name        string `json:"name" validate:"required"`
	URL         string `json:"url" validate:"omitempty,url"`
	PDFLink     string `json:"pdfLink" validate:"omitempty,url"`
	VideoLink   string `json:"videoLink" validate:"omitempty,url"`
	Description string `json:"description"`
}

// DocumentsHandler lists the documents of a case, newest first, optionally narrowed to
// the side that uploaded them with ?group=plaintiff|defense|court
func (d Document) DocumentsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	group, ok := casework.ParseRoleGroup(r.URL.Query().Get("group"))
	if !ok {
		config.ErrorStatus("failed to get documents", http.StatusBadRequest, w, errors.Errorf("unknown group %q", r.URL.Query().Get("group")))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	docs, err := d.Svc.ListDocuments(ctx, p, mux.Vars(r)["case_id"], group)
	if err != nil {
		writeCaseworkError("failed to get documents", w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// AddDocumentHandler registers a document already stored with the upload provider
func (d Document) AddDocumentHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req addDocumentRequest
	if err := decodeRequest(r, &req); err != nil {
		config.ErrorStatus("failed to add document", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	doc, err := d.Svc.AddDocument(ctx, p, mux.Vars(r)["case_id"], casework.NewDocument{
		Name:        plainText(req.Name),
		URL:         req.URL,
		PDFLink:     req.PDFLink,
		VideoLink:   req.VideoLink,
		Description: plainText(req.Description),
	})
	if err != nil {
		writeCaseworkError("failed to add document", w, err)
		return
	}
	d.Hub.DocumentAdded(doc)
	writeJSON(w, http.StatusCreated, doc)
}
