package casework_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/legal-case-api/casework"
	"github.com/linesmerrill/legal-case-api/models"
)

func TestRunningAverage(t *testing.T) {
	assert.Equal(t, 4.3, casework.RunningAverage(4.5, 2, 4))
	assert.Equal(t, 5.0, casework.RunningAverage(0, 0, 5))
	assert.Equal(t, 3.5, casework.RunningAverage(3, 1, 4))
	assert.Equal(t, 1.0, casework.RunningAverage(0, -3, 1))
}

func lawyerProfile(rating float64, count int) *models.User {
	return &models.User{
		ID:      lawyerID,
		Details: models.UserDetails{Name: lawyer.Name, Role: models.RoleLawyer, Rating: rating, RatingCount: count},
	}
}

func TestService_RateLawyer(t *testing.T) {
	f := newFixture()
	c := newCase(models.CaseStatusClosed)
	f.expectCase(c)
	f.cases.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(matchedOne(), nil)
	f.users.On("FindOne", mock.Anything, bson.M{"_id": lawyerID}).Return(lawyerProfile(4.5, 2), nil)
	var userUpdate [2]bson.M
	f.users.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(matchedOne(), nil).Run(func(args mock.Arguments) {
		userUpdate = [2]bson.M{args.Get(1).(bson.M), args.Get(2).(bson.M)}
	})

	got, err := f.svc.RateLawyer(context.Background(), client, c.ID.Hex(), lawyerID, 4)
	require.NoError(t, err)
	require.NotNil(t, got.Details.UserRating)
	assert.Equal(t, 4, *got.Details.UserRating)

	assert.Equal(t, 2, userUpdate[0]["user.ratingCount"])
	set := userUpdate[1]["$set"].(bson.M)
	assert.Equal(t, 4.3, set["user.rating"])
	assert.Equal(t, 3, set["user.ratingCount"])
}

func TestService_RateLawyerFirstRating(t *testing.T) {
	f := newFixture()
	c := newCase(models.CaseStatusClosed)
	f.expectCase(c)
	f.cases.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(matchedOne(), nil)
	f.users.On("FindOne", mock.Anything, mock.Anything).Return(lawyerProfile(0, 0), nil)
	var filter bson.M
	f.users.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(matchedOne(), nil).Run(func(args mock.Arguments) {
		filter = args.Get(1).(bson.M)
	})

	_, err := f.svc.RateLawyer(context.Background(), client, c.ID.Hex(), "", 5)
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$in": bson.A{0, nil}}, filter["user.ratingCount"])
}

func TestService_RateLawyerRetriesWhenAggregateMoves(t *testing.T) {
	f := newFixture()
	c := newCase(models.CaseStatusClosed)
	f.expectCase(c)
	f.cases.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(matchedOne(), nil)
	f.users.On("FindOne", mock.Anything, mock.Anything).Return(lawyerProfile(4.5, 2), nil).Once()
	f.users.On("FindOne", mock.Anything, mock.Anything).Return(lawyerProfile(4.0, 3), nil).Once()
	var sets []bson.M
	f.users.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{}, nil).Once()
	f.users.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(matchedOne(), nil).Once().Run(func(args mock.Arguments) {
		sets = append(sets, args.Get(2).(bson.M)["$set"].(bson.M))
	})

	_, err := f.svc.RateLawyer(context.Background(), client, c.ID.Hex(), lawyerID, 2)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, 3.5, sets[0]["user.rating"])
	assert.Equal(t, 4, sets[0]["user.ratingCount"])
}

func TestService_RateLawyerRejections(t *testing.T) {
	rated := 3
	tests := []struct {
		name      string
		principal casework.Principal
		status    string
		rating    *int
		lawyer    string
		stars     int
		kind      casework.Kind
	}{
		{"zero stars", client, models.CaseStatusClosed, nil, lawyerID, 0, casework.KindValidation},
		{"six stars", client, models.CaseStatusClosed, nil, lawyerID, 6, casework.KindValidation},
		{"not closed", client, models.CaseStatusActive, nil, lawyerID, 4, casework.KindValidation},
		{"already rated", client, models.CaseStatusClosed, &rated, lawyerID, 4, casework.KindValidation},
		{"lawyer rates", lawyer, models.CaseStatusClosed, nil, lawyerID, 4, casework.KindValidation},
		{"wrong lawyer", client, models.CaseStatusClosed, nil, opposingID, 4, casework.KindValidation},
		{"stranger", stranger, models.CaseStatusClosed, nil, lawyerID, 4, casework.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			c := newCase(tt.status)
			c.Details.UserRating = tt.rating
			f.expectCase(c)

			_, err := f.svc.RateLawyer(context.Background(), tt.principal, c.ID.Hex(), tt.lawyer, tt.stars)
			assertKind(t, err, tt.kind)
			f.cases.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
			f.users.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestService_RateLawyerConcurrentRatingLoses(t *testing.T) {
	f := newFixture()
	c := newCase(models.CaseStatusClosed)
	f.expectCase(c)
	f.cases.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{}, nil)

	_, err := f.svc.RateLawyer(context.Background(), client, c.ID.Hex(), lawyerID, 4)
	assertKind(t, err, casework.KindValidation)
	f.users.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
}

func TestService_RateLawyerAggregateFailure(t *testing.T) {
	f := newFixture()
	c := newCase(models.CaseStatusClosed)
	f.expectCase(c)
	f.cases.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(matchedOne(), nil)
	f.users.On("FindOne", mock.Anything, mock.Anything).Return(lawyerProfile(4.5, 2), nil)
	f.users.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))

	_, err := f.svc.RateLawyer(context.Background(), client, c.ID.Hex(), lawyerID, 4)
	assertKind(t, err, casework.KindWrite)
}
