package casework

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/legal-case-api/models"
)

// RoleGroup partitions a case's documents by the side that uploaded them
type RoleGroup string

// Role groups
const (
	GroupAll       RoleGroup = "all"
	GroupPlaintiff RoleGroup = "plaintiff"
	GroupDefense   RoleGroup = "defense"
	GroupCourt     RoleGroup = "court"
)

// ParseRoleGroup validates a group name, empty meaning GroupAll
func ParseRoleGroup(s string) (RoleGroup, bool) {
	switch g := RoleGroup(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GroupAll, true
	case GroupAll, GroupPlaintiff, GroupDefense, GroupCourt:
		return g, true
	}
	return "", false
}

// GroupOf classifies an uploader against the case's current participants. Uploaders who
// are no longer on the case only show up under GroupAll.
func GroupOf(c models.CaseDetails, uploaderID string) (RoleGroup, bool) {
	switch {
	case uploaderID == "":
		return "", false
	case uploaderID == c.UserID || uploaderID == c.LawyerID:
		return GroupPlaintiff, true
	case uploaderID == c.OpposingLawyerID:
		return GroupDefense, true
	case uploaderID == c.JudgeID:
		return GroupCourt, true
	}
	return "", false
}

// FilterDocuments keeps the documents uploaded by group
func FilterDocuments(c models.CaseDetails, docs []models.CaseDocument, group RoleGroup) []models.CaseDocument {
	out := make([]models.CaseDocument, 0, len(docs))
	for _, d := range docs {
		if group == GroupAll {
			out = append(out, d)
			continue
		}
		if g, ok := GroupOf(c, d.UploadedBy); ok && g == group {
			out = append(out, d)
		}
	}
	return out
}

// NewDocument is the input for AddDocument
type NewDocument struct {
	Name        string
	URL         string
	PDFLink     string
	VideoLink   string
	Description string
}

// AddDocument registers an artifact on the case. A name and at least one of URL, PDFLink
// or VideoLink are required.
func (s *Service) AddDocument(ctx context.Context, p Principal, caseID string, in NewDocument) (*models.CaseDocument, error) {
	const op = "addDocument"
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, observe(op, validationError(op, "document name is required"))
	}
	if in.URL == "" && in.PDFLink == "" && in.VideoLink == "" {
		return nil, observe(op, validationError(op, "a file, pdf link or video link is required"))
	}
	c, role, err := s.authorize(ctx, op, p, caseID)
	if err != nil {
		return nil, observe(op, err)
	}
	switch role {
	case RoleClient, RolePlaintiffLawyer, RoleOpposingLawyer, RoleJudge:
	case RoleAdmin:
		return nil, observe(op, validationError(op, "admins cannot upload case documents"))
	}

	doc := &models.CaseDocument{
		ID:           primitive.NewObjectID(),
		CaseID:       c.ID.Hex(),
		Name:         name,
		URL:          in.URL,
		UploadedBy:   p.ID,
		UploaderName: p.Name,
		UploaderRole: role.Tag(),
		PDFLink:      in.PDFLink,
		VideoLink:    in.VideoLink,
		Description:  strings.TrimSpace(in.Description),
		CreatedAt:    s.stamp(),
	}
	if _, err := s.Documents.InsertOne(ctx, doc); err != nil {
		return nil, observe(op, writeError(op, err))
	}
	return doc, observe(op, nil)
}

// ListDocuments returns the case's documents uploaded by group, newest first.
func (s *Service) ListDocuments(ctx context.Context, p Principal, caseID string, group RoleGroup) ([]models.CaseDocument, error) {
	const op = "listDocuments"
	c, _, err := s.authorize(ctx, op, p, caseID)
	if err != nil {
		return nil, observe(op, err)
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	docs, err := s.Documents.Find(ctx, bson.M{"caseId": c.ID.Hex()}, opts)
	if err != nil {
		return nil, observe(op, readError(op, err))
	}
	return FilterDocuments(c.Details, docs, group), observe(op, nil)
}
