package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/logging"
	"github.com/linesmerrill/legal-case-api/models"
	templates "github.com/linesmerrill/legal-case-api/templates/html"
)

const (
	hearingReminderLock = "hearing_reminder_job"

	// hearings starting within this window get their reminder
	reminderWindow = 24 * time.Hour
)

// Mailer delivers a single e-mail
// go generate: mockery --name Mailer
type Mailer interface {
	Send(toEmail, toName, subject, htmlContent, plainText string) error
}

// SendgridMailer is the Mailer backed by SendGrid
type SendgridMailer struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

// NewSendgridMailer creates a mailer sending from fromEmail
func NewSendgridMailer(apiKey, fromEmail string) *SendgridMailer {
	return &SendgridMailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  "Legal Case Desk",
		fromEmail: fromEmail,
	}
}

// Send implements Mailer
func (m *SendgridMailer) Send(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	response, err := m.client.Send(message)
	if err != nil {
		return errors.Wrap(err, "sendgrid send")
	}
	if response.StatusCode >= 400 {
		return errors.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

// Scheduler runs the periodic background jobs
type Scheduler struct {
	cron    *cron.Cron
	CaseDB  databases.CaseDatabase
	UDB     databases.UserDatabase
	LockDB  databases.SchedulerLockDatabase
	Mailer  Mailer
	BaseURL string

	// Now is the clock; nil means time.Now
	Now func() time.Time

	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	caseDB databases.CaseDatabase,
	uDB databases.UserDatabase,
	lockDB databases.SchedulerLockDatabase,
	mailer Mailer,
	baseURL string,
) *Scheduler {
	// Heroku sets DYNO to "web.1", "web.2", etc.
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = "instance-" + uuid.NewString()
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		CaseDB:     caseDB,
		UDB:        uDB,
		LockDB:     lockDB,
		Mailer:     mailer,
		BaseURL:    baseURL,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Remind participants of upcoming hearings, hourly on the half hour
	_, err := s.cron.AddFunc("30 * * * *", s.RunHearingReminderJob)
	if err != nil {
		logging.New("scheduler").Errorw("failed to register hearing reminder job", "error", err)
	}

	s.cron.Start()
	logging.New("scheduler").Infow("scheduler started", "instance", s.instanceID)
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logging.New("scheduler").Info("scheduler stopped")
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RunHearingReminderJob sends the due reminders while holding the cluster wide job lock
func (s *Scheduler) RunHearingReminderJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Try to acquire distributed lock (10 minute TTL)
	acquired, err := s.LockDB.TryAcquireLock(ctx, hearingReminderLock, s.instanceID, 10*time.Minute)
	if err != nil {
		logging.New("scheduler").Errorw("failed to acquire lock for hearing reminder job", "error", err)
		return
	}
	if !acquired {
		logging.New("scheduler").Debug("hearing reminder job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, hearingReminderLock, s.instanceID)

	sent, err := s.SendHearingReminders(ctx)
	if err != nil {
		logging.New("scheduler").Errorw("hearing reminder job failed", "error", err, "remindersSent", sent)
		return
	}
	logging.New("scheduler").Infow("hearing reminder job complete", "remindersSent", sent, "instance", s.instanceID)
}

// SendHearingReminders e-mails the participants of every open case whose next hearing
// falls within the coming day. Each hearing date is reminded at most once; the case is
// marked before any mail goes out.
func (s *Scheduler) SendHearingReminders(ctx context.Context) (int, error) {
	now := s.now()
	filter := bson.M{
		"case.status": bson.M{"$ne": models.CaseStatusClosed},
		"case.nextHearingDate": bson.M{
			"$gt":  primitive.NewDateTimeFromTime(now),
			"$lte": primitive.NewDateTimeFromTime(now.Add(reminderWindow)),
		},
	}
	cases, err := s.CaseDB.Find(ctx, filter)
	if err != nil {
		return 0, errors.Wrap(err, "failed to find upcoming hearings")
	}

	sent := 0
	for _, c := range cases {
		hearing := c.Details.NextHearingDate
		if hearing == nil {
			continue
		}
		if c.Details.HearingReminderSentFor != nil && *c.Details.HearingReminderSentFor == *hearing {
			continue
		}
		claimed, err := s.claimReminder(ctx, c.ID, *hearing)
		if err != nil {
			logging.New("scheduler").Errorw("failed to mark hearing reminder", "caseId", c.ID.Hex(), "error", err)
			continue
		}
		if !claimed {
			continue
		}
		sent += s.remindParticipants(ctx, c)
	}
	return sent, nil
}

// claimReminder records that the hearing is being reminded, unless the date moved or
// another run got there first
func (s *Scheduler) claimReminder(ctx context.Context, caseID primitive.ObjectID, hearing primitive.DateTime) (bool, error) {
	res, err := s.CaseDB.UpdateOne(ctx,
		bson.M{
			"_id":                         caseID,
			"case.nextHearingDate":        hearing,
			"case.hearingReminderSentFor": bson.M{"$ne": hearing},
		},
		bson.M{"$set": bson.M{"case.hearingReminderSentFor": hearing}},
	)
	if err != nil {
		return false, err
	}
	return res != nil && res.MatchedCount > 0, nil
}

func (s *Scheduler) remindParticipants(ctx context.Context, c models.Case) int {
	hearing := c.Details.NextHearingDate.Time().UTC()
	caseURL := fmt.Sprintf("%s/cases/%s", s.BaseURL, c.ID.Hex())
	subject := "Upcoming hearing on " + hearing.Format("Mon, 02 Jan 2006")

	sent := 0
	for _, id := range []string{c.Details.UserID, c.Details.LawyerID, c.Details.OpposingLawyerID, c.Details.JudgeID} {
		if id == "" {
			continue
		}
		user, err := s.UDB.FindOne(ctx, bson.M{"_id": id})
		if err != nil || user.Details.Email == "" {
			logging.New("scheduler").Warnw("no e-mail for hearing reminder", "caseId", c.ID.Hex(), "userId", id, "error", err)
			continue
		}
		htmlContent := templates.RenderHearingReminderEmail(user.Details.Name, c.Details.Description, hearing, caseURL)
		plainText := fmt.Sprintf("Hi %s, your case has a hearing scheduled for %s. Details: %s",
			user.Details.Name, hearing.Format(time.RFC1123), caseURL)
		if err := s.Mailer.Send(user.Details.Email, user.Details.Name, subject, htmlContent, plainText); err != nil {
			logging.New("scheduler").Errorw("failed to send hearing reminder", "caseId", c.ID.Hex(), "userId", id, "error", err)
			continue
		}
		sent++
	}
	return sent
}
