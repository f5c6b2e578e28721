package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Case statuses. A case only moves forward through these and closed is terminal.
const (
	CaseStatusPending = "pending"
	CaseStatusActive  = "active"
	CaseStatusClosed  = "closed"
)

// Case holds the structure for the cases collection in mongo
type Case struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details CaseDetails        `json:"case" bson:"case"`
	Version int32              `json:"__v" bson:"__v"`
}

// CaseDetails holds the structure for the inner case details
type CaseDetails struct {
	Description string `json:"description" bson:"description"`

	// Status: "pending", "active", "closed"
	Status string `json:"status" bson:"status"`

	// Participants
	UserID                    string `json:"userId" bson:"userId"`     // client / plaintiff
	LawyerID                  string `json:"lawyerId" bson:"lawyerId"` // plaintiff's lawyer
	OpposingLawyerID          string `json:"opposingLawyerId,omitempty" bson:"opposingLawyerId,omitempty"`
	JudgeID                   string `json:"judgeId,omitempty" bson:"judgeId,omitempty"`
	UserDisplayName           string `json:"userDisplayName" bson:"userDisplayName"`
	LawyerDisplayName         string `json:"lawyerDisplayName" bson:"lawyerDisplayName"`
	OpposingLawyerDisplayName string `json:"opposingLawyerDisplayName,omitempty" bson:"opposingLawyerDisplayName,omitempty"`
	JudgeDisplayName          string `json:"judgeDisplayName,omitempty" bson:"judgeDisplayName,omitempty"`

	// Scheduling and notes, maintained by lawyers and the judge
	NextHearingDate        *primitive.DateTime `json:"nextHearingDate,omitempty" bson:"nextHearingDate,omitempty"`
	HearingReminderSentFor *primitive.DateTime `json:"hearingReminderSentFor,omitempty" bson:"hearingReminderSentFor,omitempty"`
	CaseNotes              string              `json:"caseNotes,omitempty" bson:"caseNotes,omitempty"`

	// Mutual end-case consent
	UserRequestsToEnd   bool `json:"userRequestsToEnd" bson:"userRequestsToEnd"`
	LawyerRequestsToEnd bool `json:"lawyerRequestsToEnd" bson:"lawyerRequestsToEnd"`

	// Serialized AnalysisReport written when the case is created
	AnalysisReport string `json:"analysisReport,omitempty" bson:"analysisReport,omitempty"`

	UserRating *int   `json:"userRating,omitempty" bson:"userRating,omitempty"`
	Verdict    string `json:"verdict,omitempty" bson:"verdict,omitempty"`

	// Audit trail
	History []CaseHistoryEntry `json:"history" bson:"history"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// CaseHistoryEntry records a single event in the case lifecycle
type CaseHistoryEntry struct {
	Action    string             `json:"action" bson:"action"` // "created", "accepted", "assigned", "end_requested", "closed", "verdict", "details_updated", "rated"
	UserID    string             `json:"userId" bson:"userId"`
	UserName  string             `json:"userName" bson:"userName"`
	Notes     string             `json:"notes,omitempty" bson:"notes,omitempty"`
	Timestamp primitive.DateTime `json:"timestamp" bson:"timestamp"`
}
