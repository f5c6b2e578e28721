package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/legal-case-api/api/scheduler"
	mailmocks "github.com/linesmerrill/legal-case-api/api/scheduler/mocks"
	mocksdb "github.com/linesmerrill/legal-case-api/databases/mocks"
	"github.com/linesmerrill/legal-case-api/models"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	cases  *mocksdb.CaseDatabase
	users  *mocksdb.UserDatabase
	locks  *mocksdb.SchedulerLockDatabase
	mailer *mailmocks.Mailer
	s      *scheduler.Scheduler
}

func newFixture() *fixture {
	f := &fixture{
		cases:  &mocksdb.CaseDatabase{},
		users:  &mocksdb.UserDatabase{},
		locks:  &mocksdb.SchedulerLockDatabase{},
		mailer: &mailmocks.Mailer{},
	}
	f.s = scheduler.NewScheduler(f.cases, f.users, f.locks, f.mailer, "https://cases.example.com")
	f.s.Now = func() time.Time { return fixedNow }
	return f
}

func upcoming(hearing time.Time) models.Case {
	date := primitive.NewDateTimeFromTime(hearing)
	return models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			Description:     "Landlord withheld the security deposit",
			Status:          models.CaseStatusActive,
			UserID:          "client",
			LawyerID:        "lawyer",
			NextHearingDate: &date,
		},
	}
}

func person(id, name, email string) *models.User {
	return &models.User{ID: id, Details: models.UserDetails{Name: name, Email: email}}
}

func TestSendHearingReminders(t *testing.T) {
	f := newFixture()
	c := upcoming(fixedNow.Add(20 * time.Hour))
	var filter bson.M
	f.cases.On("Find", mock.Anything, mock.Anything).Return([]models.Case{c}, nil).Run(func(args mock.Arguments) {
		filter = args.Get(1).(bson.M)
	})
	var claim bson.M
	f.cases.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil).Run(func(args mock.Arguments) {
		claim = args.Get(1).(bson.M)
	})
	f.users.On("FindOne", mock.Anything, bson.M{"_id": "client"}).Return(person("client", "Asha", "asha@example.com"), nil)
	f.users.On("FindOne", mock.Anything, bson.M{"_id": "lawyer"}).Return(person("lawyer", "Ravi", "ravi@example.com"), nil)
	f.mailer.On("Send", "asha@example.com", "Asha", "Upcoming hearing on Sat, 02 Mar 2024", mock.Anything, mock.Anything).Return(nil)
	f.mailer.On("Send", "ravi@example.com", "Ravi", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	sent, err := f.s.SendHearingReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	assert.Equal(t, bson.M{"$ne": models.CaseStatusClosed}, filter["case.status"])
	assert.Equal(t, c.ID, claim["_id"])
	assert.Equal(t, *c.Details.NextHearingDate, claim["case.nextHearingDate"])
	f.mailer.AssertNumberOfCalls(t, "Send", 2)
}

func TestSendHearingReminders_SkipsAlreadyReminded(t *testing.T) {
	f := newFixture()
	c := upcoming(fixedNow.Add(3 * time.Hour))
	c.Details.HearingReminderSentFor = c.Details.NextHearingDate
	f.cases.On("Find", mock.Anything, mock.Anything).Return([]models.Case{c}, nil)

	sent, err := f.s.SendHearingReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	f.cases.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendHearingReminders_RescheduledHearingIsRemindedAgain(t *testing.T) {
	f := newFixture()
	c := upcoming(fixedNow.Add(5 * time.Hour))
	old := primitive.NewDateTimeFromTime(fixedNow.Add(-48 * time.Hour))
	c.Details.HearingReminderSentFor = &old
	c.Details.LawyerID = ""
	f.cases.On("Find", mock.Anything, mock.Anything).Return([]models.Case{c}, nil)
	f.cases.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	f.users.On("FindOne", mock.Anything, mock.Anything).Return(person("client", "Asha", "asha@example.com"), nil)
	f.mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	sent, err := f.s.SendHearingReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestSendHearingReminders_LostClaim(t *testing.T) {
	f := newFixture()
	f.cases.On("Find", mock.Anything, mock.Anything).Return([]models.Case{upcoming(fixedNow.Add(time.Hour))}, nil)
	f.cases.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{}, nil)

	sent, err := f.s.SendHearingReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	f.users.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
}

func TestSendHearingReminders_MailFailureDoesNotStopOthers(t *testing.T) {
	f := newFixture()
	f.cases.On("Find", mock.Anything, mock.Anything).Return([]models.Case{upcoming(fixedNow.Add(time.Hour))}, nil)
	f.cases.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	f.users.On("FindOne", mock.Anything, bson.M{"_id": "client"}).Return(nil, mongo.ErrNoDocuments)
	f.users.On("FindOne", mock.Anything, bson.M{"_id": "lawyer"}).Return(person("lawyer", "Ravi", "ravi@example.com"), nil)
	f.mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("mocked-error")).Once()

	sent, err := f.s.SendHearingReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	f.mailer.AssertNumberOfCalls(t, "Send", 1)
}

func TestSendHearingReminders_FindFailure(t *testing.T) {
	f := newFixture()
	f.cases.On("Find", mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))

	_, err := f.s.SendHearingReminders(context.Background())
	assert.EqualError(t, err, "failed to find upcoming hearings: mocked-error")
}

func TestRunHearingReminderJob_SkipsWithoutLock(t *testing.T) {
	f := newFixture()
	f.locks.On("TryAcquireLock", mock.Anything, "hearing_reminder_job", mock.Anything, 10*time.Minute).Return(false, nil)

	f.s.RunHearingReminderJob()
	f.cases.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
	f.locks.AssertNotCalled(t, "ReleaseLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunHearingReminderJob_ReleasesLock(t *testing.T) {
	f := newFixture()
	f.locks.On("TryAcquireLock", mock.Anything, "hearing_reminder_job", mock.Anything, 10*time.Minute).Return(true, nil)
	f.locks.On("ReleaseLock", mock.Anything, "hearing_reminder_job", mock.Anything).Return(nil)
	f.cases.On("Find", mock.Anything, mock.Anything).Return([]models.Case{}, nil)

	f.s.RunHearingReminderJob()
	f.locks.AssertNumberOfCalls(t, "ReleaseLock", 1)
}
