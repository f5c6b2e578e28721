package casework

import (
	"context"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/models"
)

// RunningAverage folds stars into an average over count samples, rounded to one decimal.
func RunningAverage(avg float64, count int, stars int) float64 {
	if count < 0 {
		count = 0
	}
	next := (avg*float64(count) + float64(stars)) / float64(count+1)
	return math.Round(next*10) / 10
}

// RateLawyer records the client's rating of the plaintiff's lawyer on a closed case and
// folds it into the lawyer's average. lawyerID may be empty; when given it must be the
// case's lawyer.
func (s *Service) RateLawyer(ctx context.Context, p Principal, caseID, lawyerID string, stars int) (*models.Case, error) {
	const op = "rateLawyer"
	if stars < 1 || stars > 5 {
		return nil, observe(op, validationError(op, "rating must be between 1 and 5, got %d", stars))
	}
	c, role, err := s.authorize(ctx, op, p, caseID)
	if err != nil {
		return nil, observe(op, err)
	}
	switch role {
	case RoleClient:
	case RolePlaintiffLawyer, RoleOpposingLawyer, RoleJudge, RoleAdmin:
		return nil, observe(op, validationError(op, "only the client can rate the lawyer"))
	}
	if lawyerID != "" && lawyerID != c.Details.LawyerID {
		return nil, observe(op, validationError(op, "lawyer %s is not the lawyer on this case", lawyerID))
	}
	if c.Details.Status != models.CaseStatusClosed {
		return nil, observe(op, validationError(op, "case must be closed before rating"))
	}
	if c.Details.UserRating != nil {
		return nil, observe(op, validationError(op, "case has already been rated"))
	}

	now := s.stamp()
	entry := historyEntry("rated", p, "", now)
	res, err := s.Cases.UpdateOne(ctx,
		bson.M{
			"_id":             c.ID,
			"case.status":     models.CaseStatusClosed,
			"case.userRating": bson.M{"$exists": false},
		},
		bson.M{
			"$set":  bson.M{"case.userRating": stars, "case.updatedAt": now},
			"$push": bson.M{"case.history": entry},
		},
	)
	if err != nil {
		return nil, observe(op, writeError(op, err))
	}
	if !matched(res) {
		return nil, observe(op, validationError(op, "case has already been rated"))
	}
	c.Details.UserRating = &stars
	c.Details.UpdatedAt = now
	c.Details.History = append(c.Details.History, entry)

	if err := s.foldRating(ctx, op, c.Details.LawyerID, stars); err != nil {
		zap.S().Errorw("case rated but lawyer average not updated",
			"caseId", c.ID.Hex(),
			"lawyerId", c.Details.LawyerID,
			"stars", stars,
			"error", err)
		return nil, observe(op, err)
	}
	return c, observe(op, nil)
}

// foldRating applies stars to the lawyer's aggregate, retrying while other ratings land
// between the read and the conditional write.
func (s *Service) foldRating(ctx context.Context, op, lawyerID string, stars int) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		lawyer, err := s.Users.FindOne(ctx, bson.M{"_id": lawyerID})
		if err != nil {
			return writeError(op, err)
		}
		count := lawyer.Details.RatingCount
		filter := bson.M{"_id": lawyerID, "user.ratingCount": count}
		if count == 0 {
			filter["user.ratingCount"] = bson.M{"$in": bson.A{0, nil}}
		}
		update := bson.M{"$set": bson.M{
			"user.rating":      RunningAverage(lawyer.Details.Rating, count, stars),
			"user.ratingCount": count + 1,
		}}
		res, err := s.Users.UpdateOne(ctx, filter, update)
		if err != nil {
			return writeError(op, err)
		}
		if matched(res) {
			return nil
		}
		casRetriesTotal.WithLabelValues(op).Inc()
	}
	return newError(KindWrite, op, "lawyer rating kept changing", nil)
}
