package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/analysis"
	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/api/scheduler"
	"github.com/linesmerrill/legal-case-api/casework"
	"github.com/linesmerrill/legal-case-api/config"
	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/uploads"
)

const (
	requestTimeout = 30 * time.Second

	// analysis and uploads wait on slow third parties
	slowRequestTimeout = 2 * time.Minute
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Hub       *Hub
	Scheduler *scheduler.Scheduler

	// optional collaborators, left nil when not configured
	Analyzer casework.Analyzer
	Uploader uploads.Uploader
	Signer   UploadSigner

	dbHelper databases.DatabaseHelper
	client   databases.ClientHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	users := databases.NewUserDatabase(a.dbHelper)
	tokens := api.NewTokenIssuer(a.Config.JWTSecret)

	// setup go-guardian for middleware
	m := &api.MiddlewareDB{DB: users, Tokens: tokens}
	m.SetupGoGuardian()

	if a.Hub == nil {
		a.Hub = NewHub()
	}
	svc := &casework.Service{
		Cases:     databases.NewCaseDatabase(a.dbHelper),
		Messages:  databases.NewMessageDatabase(a.dbHelper),
		Documents: databases.NewCaseDocumentDatabase(a.dbHelper),
		Users:     users,
		Analyzer:  a.Analyzer,
	}

	c := Case{Svc: svc, Hub: a.Hub}
	msg := Message{Svc: svc, Hub: a.Hub}
	doc := Document{Svc: svc, Hub: a.Hub}
	an := Analysis{Svc: svc}
	up := Upload{Uploader: a.Uploader, Signer: a.Signer}
	u := User{DB: users}
	sub := Subscription{Svc: svc, Tokens: tokens, Hub: a.Hub}

	secured := func(h http.HandlerFunc) http.Handler {
		return api.TimeoutMiddleware(requestTimeout)(m.Middleware(h))
	}
	slow := func(h http.HandlerFunc) http.Handler {
		return api.TimeoutMiddleware(slowRequestTimeout)(m.Middleware(h))
	}

	// healthchex
	r := api.New()
	r.Use(api.MetricsMiddleware)
	r.Handle("/metrics", promhttp.Handler())

	// websocket routes must stay out of the timeout middleware
	r.HandleFunc("/ws/cases/{case_id}", sub.CaseEventsHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.TimeoutMiddleware(requestTimeout)(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/users", api.TimeoutMiddleware(requestTimeout)(http.HandlerFunc(u.UserCreateHandler))).Methods("POST")
	apiCreate.Handle("/lawyers", secured(u.LawyersHandler)).Methods("GET")

	apiCreate.Handle("/cases", secured(c.CreateCaseHandler)).Methods("POST")
	apiCreate.Handle("/cases/user/{user_id}", secured(c.CasesByUserIDHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}", secured(c.CaseByIDHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/accept", secured(c.AcceptCaseHandler)).Methods("PUT")
	apiCreate.Handle("/cases/{case_id}/participants", secured(c.AssignParticipantsHandler)).Methods("PUT")
	apiCreate.Handle("/cases/{case_id}/details", secured(c.UpdateCaseDetailsHandler)).Methods("PATCH")
	apiCreate.Handle("/cases/{case_id}/end-request", secured(c.RequestEndCaseHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/verdict", secured(c.DeliverVerdictHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/rating", secured(c.RateLawyerHandler)).Methods("POST")

	apiCreate.Handle("/cases/{case_id}/messages", secured(msg.ConversationHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/messages", secured(msg.SendMessageHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/orders", secured(msg.CourtRecordHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/orders", secured(msg.IssueOrderHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/evidence", secured(msg.SubmitEvidenceHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/contacts", secured(msg.ContactsHandler)).Methods("GET")

	apiCreate.Handle("/cases/{case_id}/documents", secured(doc.DocumentsHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/documents", secured(doc.AddDocumentHandler)).Methods("POST")

	apiCreate.Handle("/cases/{case_id}/analysis", secured(an.StoredAnalysisHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/analysis/simulate", slow(an.SimulateOutcomeHandler)).Methods("POST")
	apiCreate.Handle("/cases/{case_id}/analysis/bail", slow(an.PredictBailHandler)).Methods("POST")
	apiCreate.Handle("/summaries", slow(an.SummarizeDocumentHandler)).Methods("POST")

	apiCreate.Handle("/uploads", slow(up.UploadHandler)).Methods("POST")
	apiCreate.Handle("/uploads/signature", secured(up.SignatureHandler)).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {
	if a.Config.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("legal-case-api has connected to the database")

	a.initializeCollaborators()

	if a.Config.SendgridAPIKey != "" {
		a.Scheduler = scheduler.NewScheduler(
			databases.NewCaseDatabase(a.dbHelper),
			databases.NewUserDatabase(a.dbHelper),
			databases.NewSchedulerLockDatabase(a.dbHelper),
			scheduler.NewSendgridMailer(a.Config.SendgridAPIKey, a.Config.ReminderFromEmail),
			a.Config.BaseURL,
		)
		a.Scheduler.Start()
	} else {
		zap.S().Warn("SENDGRID_API_KEY is not set, hearing reminders are disabled")
	}

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) initializeCollaborators() {
	if a.Config.AIBaseURL != "" {
		a.Analyzer = analysis.NewClient(a.Config.AIBaseURL, a.Config.AIAPIKey)
	} else {
		zap.S().Warn("AI_BASE_URL is not set, case analysis is disabled")
	}

	if a.Config.CloudinaryCloudName != "" {
		cld, err := uploads.NewCloudinary(&a.Config)
		if err != nil {
			zap.S().Errorw("failed to configure uploads", "error", err)
			return
		}
		a.Uploader = cld
		a.Signer = cld
	} else {
		zap.S().Warn("CLOUDINARY_CLOUD_NAME is not set, uploads are disabled")
	}
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// Shutdown stops the background jobs and closes the database connection
func (a *App) Shutdown(ctx context.Context) error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}
