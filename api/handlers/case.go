package handlers

import (
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/casework"
	"github.com/linesmerrill/legal-case-api/config"
	"github.com/linesmerrill/legal-case-api/models"
)

// Case exported for testing purposes
type Case struct {
	Svc *casework.Service
	Hub *Hub
}

type createCaseRequest struct {
	LawyerID    string `json:"lawyerId" validate:"required"`
	Description string `json:"description" validate:"required"`
	Language    string `json:"language"`
}

type assignRequest struct {
	OpposingLawyerID string `json:"opposingLawyerId"`
	JudgeID          string `json:"judgeId"`
}

type caseDetailsRequest struct {
	CaseNotes       string     `json:"caseNotes"`
	NextHearingDate *time.Time `json:"nextHearingDate"`
}

type verdictRequest struct {
	Verdict string `json:"verdict" validate:"required"`
}

type ratingRequest struct {
	LawyerID string `json:"lawyerId"`
	Stars    int    `json:"stars" validate:"min=1,max=5"`
}

type caseResponse struct {
	*models.Case
	Role string `json:"role"`
}

// CreateCaseHandler files a new pending case with the chosen lawyer
func (cc Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req createCaseRequest
	if err := decodeRequest(r, &req); err != nil {
		config.ErrorStatus("failed to create case", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	c, err := cc.Svc.CreateCase(ctx, p, casework.NewCase{
		LawyerID:    req.LawyerID,
		Description: plainText(req.Description),
		Language:    req.Language,
	})
	if err != nil {
		writeCaseworkError("failed to create case", w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// CaseByIDHandler returns a case together with the caller's role on it
func (cc Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	c, role, err := cc.Svc.GetCase(ctx, p, mux.Vars(r)["case_id"])
	if err != nil {
		writeCaseworkError("failed to get case", w, err)
		return
	}
	writeJSON(w, http.StatusOK, caseResponse{Case: c, Role: role.String()})
}

// CasesByUserIDHandler returns a page of the cases a user takes part in. Users may only
// list their own cases, admins may list anyone's.
func (cc Case) CasesByUserIDHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	userID := mux.Vars(r)["user_id"]
	if userID != p.ID {
		if p.ProfileRole != models.RoleAdmin {
			config.ErrorStatus("failed to get cases", http.StatusForbidden, w, errors.New("cannot list another user's cases"))
			return
		}
		p = casework.Principal{ID: userID}
	}
	limit := getLimit(r)
	page := getPage(r)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cases, total, err := cc.Svc.CasesFor(ctx, p, limit, page)
	if err != nil {
		writeCaseworkError("failed to get cases", w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.PaginatedResponse{
		Data:       cases,
		Page:       page,
		Limit:      limit,
		TotalCount: total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	})
}

// AcceptCaseHandler lets the chosen lawyer take a pending case
func (cc Case) AcceptCaseHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	c, err := cc.Svc.AcceptCase(ctx, p, mux.Vars(r)["case_id"])
	cc.respond(w, "failed to accept case", c, err)
}

// AssignParticipantsHandler lets an admin seat the opposing lawyer and the judge
func (cc Case) AssignParticipantsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req assignRequest
	if err := decodeRequest(r, &req); err != nil {
		config.ErrorStatus("failed to assign participants", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	c, err := cc.Svc.AssignParticipants(ctx, p, mux.Vars(r)["case_id"], casework.Assignment{
		OpposingLawyerID: req.OpposingLawyerID,
		JudgeID:          req.JudgeID,
	})
	cc.respond(w, "failed to assign participants", c, err)
}

// UpdateCaseDetailsHandler replaces the case notes and the next hearing date. Omitting
// the date clears it.
func (cc Case) UpdateCaseDetailsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req caseDetailsRequest
	if err := decodeRequest(r, &req); err != nil {
		config.ErrorStatus("failed to update case details", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	c, err := cc.Svc.UpdateCaseDetails(ctx, p, mux.Vars(r)["case_id"], casework.CaseDetailsUpdate{
		Notes:           plainText(req.CaseNotes),
		NextHearingDate: req.NextHearingDate,
	})
	cc.respond(w, "failed to update case details", c, err)
}

// RequestEndCaseHandler records the caller's consent to end the case
func (cc Case) RequestEndCaseHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	c, err := cc.Svc.RequestEndCase(ctx, p, mux.Vars(r)["case_id"])
	cc.respond(w, "failed to request end of case", c, err)
}

// DeliverVerdictHandler closes the case with the judge's verdict
func (cc Case) DeliverVerdictHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req verdictRequest
	if err := decodeRequest(r, &req); err != nil {
		config.ErrorStatus("failed to deliver verdict", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	c, err := cc.Svc.DeliverVerdict(ctx, p, mux.Vars(r)["case_id"], plainText(req.Verdict))
	cc.respond(w, "failed to deliver verdict", c, err)
}

// RateLawyerHandler stores the client's rating of a closed case
func (cc Case) RateLawyerHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req ratingRequest
	if err := decodeRequest(r, &req); err != nil {
		config.ErrorStatus("failed to rate lawyer", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	c, err := cc.Svc.RateLawyer(ctx, p, mux.Vars(r)["case_id"], req.LawyerID, req.Stars)
	cc.respond(w, "failed to rate lawyer", c, err)
}

// respond writes the outcome of a case mutation and pushes the new state to subscribers
func (cc Case) respond(w http.ResponseWriter, message string, c *models.Case, err error) {
	if err != nil {
		writeCaseworkError(message, w, err)
		return
	}
	cc.Hub.CaseUpdated(c)
	writeJSON(w, http.StatusOK, c)
}
