package casework

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/models"
)

// NewCase is the input for CreateCase
type NewCase struct {
	LawyerID    string
	Description string
	Language    string
}

// CreateCase opens a pending case between the calling client and a lawyer. The initial
// AI analysis is stored on the case when the analyzer answers; a failing analyzer does
// not stop the case from being created.
func (s *Service) CreateCase(ctx context.Context, p Principal, in NewCase) (*models.Case, error) {
	const op = "createCase"
	if p.ProfileRole != models.RoleUser {
		return nil, observe(op, validationError(op, "only clients can open a case"))
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, observe(op, validationError(op, "description is required"))
	}
	lawyer, err := s.loadUser(ctx, op, in.LawyerID)
	if err != nil {
		return nil, observe(op, err)
	}
	if lawyer.Details.Role != models.RoleLawyer {
		return nil, observe(op, validationError(op, "user %s is not a lawyer", in.LawyerID))
	}

	now := s.stamp()
	c := &models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			Description:       description,
			Status:            models.CaseStatusPending,
			UserID:            p.ID,
			LawyerID:          lawyer.ID,
			UserDisplayName:   p.Name,
			LawyerDisplayName: lawyer.Details.Name,
			History:           []models.CaseHistoryEntry{historyEntry("created", p, "", now)},
			CreatedAt:         now,
			UpdatedAt:         now,
		},
	}

	if s.Analyzer != nil {
		result, err := s.Analyzer.AnalyzeCase(ctx, description, in.Language)
		if err == nil {
			var blob string
			blob, err = EncodeAnalysisReport(*result, models.AnalysisKindInitial, in.Language, s.now())
			c.Details.AnalysisReport = blob
		}
		if err != nil {
			zap.S().Warnw("initial case analysis unavailable, creating case without it",
				"caseId", c.ID.Hex(),
				"error", err)
		}
	}

	if _, err := s.Cases.InsertOne(ctx, c); err != nil {
		return nil, observe(op, writeError(op, err))
	}
	return c, observe(op, nil)
}

// AcceptCase lets the plaintiff's lawyer take on a pending case, making it active.
func (s *Service) AcceptCase(ctx context.Context, p Principal, caseID string) (*models.Case, error) {
	const op = "acceptCase"
	c, role, err := s.authorize(ctx, op, p, caseID)
	if err != nil {
		return nil, observe(op, err)
	}
	switch role {
	case RolePlaintiffLawyer:
	case RoleClient, RoleOpposingLawyer, RoleJudge, RoleAdmin:
		return nil, observe(op, validationError(op, "only the client's lawyer can accept the case"))
	}
	if c.Details.Status != models.CaseStatusPending {
		return nil, observe(op, validationError(op, "case status is '%s', expected '%s'", c.Details.Status, models.CaseStatusPending))
	}

	now := s.stamp()
	entry := historyEntry("accepted", p, "", now)
	res, err := s.Cases.UpdateOne(ctx,
		bson.M{"_id": c.ID, "case.status": models.CaseStatusPending},
		bson.M{
			"$set":  bson.M{"case.status": models.CaseStatusActive, "case.updatedAt": now},
			"$push": bson.M{"case.history": entry},
		},
	)
	if err != nil {
		return nil, observe(op, writeError(op, err))
	}
	if !matched(res) {
		return nil, observe(op, newError(KindConflict, op, "case changed status while accepting", nil))
	}
	c.Details.Status = models.CaseStatusActive
	c.Details.UpdatedAt = now
	c.Details.History = append(c.Details.History, entry)
	return c, observe(op, nil)
}

// Assignment names the opposing lawyer and/or judge to attach to a case
type Assignment struct {
	OpposingLawyerID string
	JudgeID          string
}

// AssignParticipants lets an admin attach an opposing lawyer and a judge to an open case.
func (s *Service) AssignParticipants(ctx context.Context, p Principal, caseID string, a Assignment) (*models.Case, error) {
	const op = "assignParticipants"
	if p.ProfileRole != models.RoleAdmin {
		return nil, observe(op, newError(KindForbidden, op, "only admins can assign participants", nil))
	}
	if a.OpposingLawyerID == "" && a.JudgeID == "" {
		return nil, observe(op, validationError(op, "nothing to assign"))
	}
	c, err := s.loadCase(ctx, op, caseID)
	if err != nil {
		return nil, observe(op, err)
	}
	if c.Details.Status == models.CaseStatusClosed {
		return nil, observe(op, validationError(op, "case is closed"))
	}

	now := s.stamp()
	set := bson.M{"case.updatedAt": now}
	var notes []string
	if a.OpposingLawyerID != "" {
		if a.OpposingLawyerID == c.Details.LawyerID || a.OpposingLawyerID == c.Details.UserID {
			return nil, observe(op, validationError(op, "opposing lawyer must not already be on the plaintiff side"))
		}
		lawyer, err := s.loadUser(ctx, op, a.OpposingLawyerID)
		if err != nil {
			return nil, observe(op, err)
		}
		if lawyer.Details.Role != models.RoleLawyer {
			return nil, observe(op, validationError(op, "user %s is not a lawyer", a.OpposingLawyerID))
		}
		set["case.opposingLawyerId"] = lawyer.ID
		set["case.opposingLawyerDisplayName"] = lawyer.Details.Name
		c.Details.OpposingLawyerID = lawyer.ID
		c.Details.OpposingLawyerDisplayName = lawyer.Details.Name
		notes = append(notes, "opposing lawyer "+lawyer.Details.Name)
	}
	if a.JudgeID != "" {
		judge, err := s.loadUser(ctx, op, a.JudgeID)
		if err != nil {
			return nil, observe(op, err)
		}
		if judge.Details.Role != models.RoleJudge {
			return nil, observe(op, validationError(op, "user %s is not a judge", a.JudgeID))
		}
		set["case.judgeId"] = judge.ID
		set["case.judgeDisplayName"] = judge.Details.Name
		c.Details.JudgeID = judge.ID
		c.Details.JudgeDisplayName = judge.Details.Name
		notes = append(notes, "judge "+judge.Details.Name)
	}

	entry := historyEntry("assigned", p, strings.Join(notes, ", "), now)
	res, err := s.Cases.UpdateOne(ctx,
		bson.M{"_id": c.ID, "case.status": bson.M{"$ne": models.CaseStatusClosed}},
		bson.M{"$set": set, "$push": bson.M{"case.history": entry}},
	)
	if err != nil {
		return nil, observe(op, writeError(op, err))
	}
	if !matched(res) {
		return nil, observe(op, validationError(op, "case is closed"))
	}
	c.Details.UpdatedAt = now
	c.Details.History = append(c.Details.History, entry)
	return c, observe(op, nil)
}

// CaseDetailsUpdate carries the editable case metadata. A nil NextHearingDate clears it.
type CaseDetailsUpdate struct {
	Notes           string
	NextHearingDate *time.Time
}

// UpdateCaseDetails sets the case notes and next hearing date. Lawyers on either side and
// the judge may edit them; the status is never touched.
func (s *Service) UpdateCaseDetails(ctx context.Context, p Principal, caseID string, in CaseDetailsUpdate) (*models.Case, error) {
	const op = "updateCaseDetails"
	c, role, err := s.authorize(ctx, op, p, caseID)
	if err != nil {
		return nil, observe(op, err)
	}
	switch role {
	case RolePlaintiffLawyer, RoleOpposingLawyer, RoleJudge:
	case RoleClient, RoleAdmin:
		return nil, observe(op, validationError(op, "only lawyers and the judge can update case details"))
	}

	now := s.stamp()
	entry := historyEntry("details_updated", p, "", now)
	update := bson.M{
		"$set": bson.M{
			"case.caseNotes": in.Notes,
			"case.updatedAt": now,
		},
		"$push": bson.M{"case.history": entry},
	}
	var hearing *primitive.DateTime
	if in.NextHearingDate != nil {
		d := primitive.NewDateTimeFromTime(*in.NextHearingDate)
		hearing = &d
		update["$set"].(bson.M)["case.nextHearingDate"] = d
	} else {
		update["$unset"] = bson.M{"case.nextHearingDate": ""}
	}

	if _, err := s.Cases.UpdateOne(ctx, bson.M{"_id": c.ID}, update); err != nil {
		return nil, observe(op, writeError(op, err))
	}
	c.Details.CaseNotes = in.Notes
	c.Details.NextHearingDate = hearing
	c.Details.UpdatedAt = now
	c.Details.History = append(c.Details.History, entry)
	return c, observe(op, nil)
}

// RequestEndCase records the caller's consent to end the case. When the other party has
// already consented the same write closes the case. The write is conditional on the other
// party's flag still holding the value it was read with, so two requests racing each other
// cannot both miss the close.
func (s *Service) RequestEndCase(ctx context.Context, p Principal, caseID string) (*models.Case, error) {
	const op = "requestEndCase"
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		c, role, err := s.authorize(ctx, op, p, caseID)
		if err != nil {
			return nil, observe(op, err)
		}

		var mineField, otherField string
		var mine, other bool
		switch role {
		case RoleClient:
			mineField, otherField = "case.userRequestsToEnd", "case.lawyerRequestsToEnd"
			mine, other = c.Details.UserRequestsToEnd, c.Details.LawyerRequestsToEnd
		case RolePlaintiffLawyer:
			mineField, otherField = "case.lawyerRequestsToEnd", "case.userRequestsToEnd"
			mine, other = c.Details.LawyerRequestsToEnd, c.Details.UserRequestsToEnd
		case RoleOpposingLawyer, RoleJudge, RoleAdmin:
			return nil, observe(op, validationError(op, "only the client and the client's lawyer can request to end the case"))
		}
		if c.Details.Status == models.CaseStatusClosed {
			return nil, observe(op, validationError(op, "case is closed"))
		}
		if mine {
			return c, observe(op, nil)
		}

		now := s.stamp()
		filter := bson.M{"_id": c.ID, "case.status": bson.M{"$ne": models.CaseStatusClosed}}
		set := bson.M{mineField: true, "case.updatedAt": now}
		action := "end_requested"
		if other {
			filter[otherField] = true
			set["case.status"] = models.CaseStatusClosed
			action = "closed"
		} else {
			filter[otherField] = bson.M{"$ne": true}
		}
		entry := historyEntry(action, p, "", now)

		res, err := s.Cases.UpdateOne(ctx, filter, bson.M{"$set": set, "$push": bson.M{"case.history": entry}})
		if err != nil {
			return nil, observe(op, writeError(op, err))
		}
		if matched(res) {
			if role == RoleClient {
				c.Details.UserRequestsToEnd = true
			} else {
				c.Details.LawyerRequestsToEnd = true
			}
			if other {
				c.Details.Status = models.CaseStatusClosed
			}
			c.Details.UpdatedAt = now
			c.Details.History = append(c.Details.History, entry)
			return c, observe(op, nil)
		}
		casRetriesTotal.WithLabelValues(op).Inc()
	}
	return nil, observe(op, newError(KindConflict, op, "case kept changing, try again", nil))
}

// DeliverVerdict lets the case's judge close it with a verdict, regardless of consent.
func (s *Service) DeliverVerdict(ctx context.Context, p Principal, caseID, verdict string) (*models.Case, error) {
	const op = "deliverVerdict"
	verdict = strings.TrimSpace(verdict)
	if verdict == "" {
		return nil, observe(op, validationError(op, "verdict text is required"))
	}
	c, role, err := s.authorize(ctx, op, p, caseID)
	if err != nil {
		return nil, observe(op, err)
	}
	switch role {
	case RoleJudge:
	case RoleClient, RolePlaintiffLawyer, RoleOpposingLawyer, RoleAdmin:
		return nil, observe(op, validationError(op, "only the judge can deliver a verdict"))
	}
	if c.Details.Status == models.CaseStatusClosed {
		return nil, observe(op, validationError(op, "case is closed"))
	}

	now := s.stamp()
	entry := historyEntry("verdict", p, verdict, now)
	res, err := s.Cases.UpdateOne(ctx,
		bson.M{"_id": c.ID, "case.status": bson.M{"$ne": models.CaseStatusClosed}},
		bson.M{
			"$set": bson.M{
				"case.status":    models.CaseStatusClosed,
				"case.verdict":   verdict,
				"case.updatedAt": now,
			},
			"$push": bson.M{"case.history": entry},
		},
	)
	if err != nil {
		return nil, observe(op, writeError(op, err))
	}
	if !matched(res) {
		return nil, observe(op, validationError(op, "case is closed"))
	}
	c.Details.Status = models.CaseStatusClosed
	c.Details.Verdict = verdict
	c.Details.UpdatedAt = now
	c.Details.History = append(c.Details.History, entry)
	return c, observe(op, nil)
}
