package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/casework"
	"github.com/linesmerrill/legal-case-api/config"
	"github.com/linesmerrill/legal-case-api/models"
)

// Message exported for testing purposes
type Message struct {
	Svc *casework.Service
	Hub *Hub
}

type sendMessageRequest struct {
	RecipientID string `json:"recipientId"`
	Text        string `json:"text"`
}

type orderRequest struct {
	Text string `json:"text"`
}

type evidenceRequest struct {
	Text      string `json:"text"`
	ImageURL  string `json:"imageUrl" validate:"omitempty,url"`
	PDFLink   string `json:"pdfLink" validate:"omitempty,url"`
	VideoLink string `json:"videoLink" validate:"omitempty,url"`
}

// ConversationHandler returns the thread the caller sees with ?with= selected, oldest
// first. No addressee selects the thread addressed to everyone.
func (m Message) ConversationHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	messages, err := m.Svc.Conversation(ctx, p, mux.Vars(r)["case_id"], r.URL.Query().Get("with"))
	if err != nil {
		writeCaseworkError("failed to get conversation", w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// SendMessageHandler posts a chat message to everyone or to one participant
func (m Message) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := decodeRequest(r, &req); err != nil {
		config.ErrorStatus("failed to send message", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	msg, err := m.Svc.SendMessage(ctx, p, mux.Vars(r)["case_id"], req.RecipientID, plainText(req.Text))
	m.respond(w, "failed to send message", msg, err)
}

// IssueOrderHandler posts a court order
func (m Message) IssueOrderHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req orderRequest
	if err := decodeRequest(r, &req); err != nil {
		config.ErrorStatus("failed to issue order", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	msg, err := m.Svc.IssueOrder(ctx, p, mux.Vars(r)["case_id"], plainText(req.Text))
	m.respond(w, "failed to issue order", msg, err)
}

// SubmitEvidenceHandler posts an evidence submission with its attachment links
func (m Message) SubmitEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req evidenceRequest
	if err := decodeRequest(r, &req); err != nil {
		config.ErrorStatus("failed to submit evidence", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	msg, err := m.Svc.SubmitEvidence(ctx, p, mux.Vars(r)["case_id"], plainText(req.Text), casework.Attachments{
		ImageURL:  req.ImageURL,
		PDFLink:   req.PDFLink,
		VideoLink: req.VideoLink,
	})
	m.respond(w, "failed to submit evidence", msg, err)
}

// CourtRecordHandler lists orders and evidence submissions, most recent first, narrowed
// by ?kind=all|orders|submissions and a ?q= text search
func (m Message) CourtRecordHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	kind, ok := casework.ParseRecordKind(r.URL.Query().Get("kind"))
	if !ok {
		config.ErrorStatus("failed to get court record", http.StatusBadRequest, w, errors.Errorf("unknown kind %q", r.URL.Query().Get("kind")))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	messages, err := m.Svc.CourtRecord(ctx, p, mux.Vars(r)["case_id"], casework.RecordFilter{
		Kind:   kind,
		Search: r.URL.Query().Get("q"),
	})
	if err != nil {
		writeCaseworkError("failed to get court record", w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// ContactsHandler lists the threads the caller can open on the case
func (m Message) ContactsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	c, _, err := m.Svc.GetCase(ctx, p, mux.Vars(r)["case_id"])
	if err != nil {
		writeCaseworkError("failed to get contacts", w, err)
		return
	}
	writeJSON(w, http.StatusOK, casework.Contacts(c.Details, p.ID))
}

func (m Message) respond(w http.ResponseWriter, message string, msg *models.Message, err error) {
	if err != nil {
		writeCaseworkError(message, w, err)
		return
	}
	m.Hub.MessageCreated(msg)
	writeJSON(w, http.StatusCreated, msg)
}
