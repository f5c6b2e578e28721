package casework

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/models"
)

// maxCASAttempts bounds how often a conditional write is re-evaluated after losing a race
const maxCASAttempts = 5

// Service runs the case collaboration operations against the store
type Service struct {
	Cases     databases.CaseDatabase
	Messages  databases.MessageDatabase
	Documents databases.CaseDocumentDatabase
	Users     databases.UserDatabase
	Analyzer  Analyzer

	// Now is the clock; nil means time.Now
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) stamp() primitive.DateTime {
	return primitive.NewDateTimeFromTime(s.now())
}

// GetCase returns the case if p may see it, along with the role p plays on it.
func (s *Service) GetCase(ctx context.Context, p Principal, caseID string) (*models.Case, Role, error) {
	c, role, err := s.authorize(ctx, "getCase", p, caseID)
	return c, role, observe("getCase", err)
}

// CasesFor lists the cases principal p takes part in, newest first.
func (s *Service) CasesFor(ctx context.Context, p Principal, limit, page int) ([]models.Case, int64, error) {
	const op = "casesFor"
	filter := bson.M{"$or": bson.A{
		bson.M{"case.userId": p.ID},
		bson.M{"case.lawyerId": p.ID},
		bson.M{"case.opposingLawyerId": p.ID},
		bson.M{"case.judgeId": p.ID},
	}}
	cases, err := s.Cases.Find(ctx, filter, databases.PaginatedFindOptions(limit, page, bson.D{{Key: "_id", Value: -1}}))
	if err != nil {
		return nil, 0, observe(op, readError(op, err))
	}
	count, err := s.Cases.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, observe(op, readError(op, err))
	}
	if cases == nil {
		cases = []models.Case{}
	}
	return cases, count, observe(op, nil)
}

func (s *Service) loadCase(ctx context.Context, op, caseID string) (*models.Case, error) {
	id, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		return nil, validationError(op, "invalid case id %q", caseID)
	}
	c, err := s.Cases.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, newError(KindNotFound, op, "case not found", nil)
		}
		return nil, readError(op, err)
	}
	return c, nil
}

// authorize loads the case and resolves the caller's role on it
func (s *Service) authorize(ctx context.Context, op string, p Principal, caseID string) (*models.Case, Role, error) {
	c, err := s.loadCase(ctx, op, caseID)
	if err != nil {
		return nil, 0, err
	}
	role, ok := ResolveRole(p, c.Details)
	if !ok {
		return nil, 0, newError(KindForbidden, op, "not a participant of this case", nil)
	}
	return c, role, nil
}

func (s *Service) loadUser(ctx context.Context, op, userID string) (*models.User, error) {
	u, err := s.Users.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, newError(KindNotFound, op, "user not found", nil)
		}
		return nil, readError(op, err)
	}
	return u, nil
}

func historyEntry(action string, p Principal, notes string, at primitive.DateTime) models.CaseHistoryEntry {
	return models.CaseHistoryEntry{
		Action:    action,
		UserID:    p.ID,
		UserName:  p.Name,
		Notes:     notes,
		Timestamp: at,
	}
}

func matched(res *mongo.UpdateResult) bool {
	return res != nil && res.MatchedCount > 0
}
