package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/api/handlers"
	"github.com/linesmerrill/legal-case-api/casework"
	analyzermocks "github.com/linesmerrill/legal-case-api/casework/mocks"
	mocksdb "github.com/linesmerrill/legal-case-api/databases/mocks"
	"github.com/linesmerrill/legal-case-api/models"
)

const (
	clientID   = "5fc51f58c72ff10004dca001"
	lawyerID   = "5fc51f58c72ff10004dca002"
	opposingID = "5fc51f58c72ff10004dca003"
	judgeID    = "5fc51f58c72ff10004dca004"
	adminID    = "5fc51f58c72ff10004dca005"
	strangerID = "5fc51f58c72ff10004dca006"
)

var (
	client   = casework.Principal{ID: clientID, Name: "Asha Client", ProfileRole: models.RoleUser}
	lawyer   = casework.Principal{ID: lawyerID, Name: "Ravi Lawyer", ProfileRole: models.RoleLawyer}
	opposing = casework.Principal{ID: opposingID, Name: "Meera Counsel", ProfileRole: models.RoleLawyer}
	judge    = casework.Principal{ID: judgeID, Name: "Justice Rao", ProfileRole: models.RoleJudge}
	admin    = casework.Principal{ID: adminID, Name: "Site Admin", ProfileRole: models.RoleAdmin}
	stranger = casework.Principal{ID: strangerID, Name: "Somebody Else", ProfileRole: models.RoleUser}

	fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
)

type fixture struct {
	cases     *mocksdb.CaseDatabase
	messages  *mocksdb.MessageDatabase
	documents *mocksdb.CaseDocumentDatabase
	users     *mocksdb.UserDatabase
	analyzer  *analyzermocks.Analyzer
	svc       *casework.Service
	hub       *handlers.Hub
}

func newFixture() *fixture {
	f := &fixture{
		cases:     &mocksdb.CaseDatabase{},
		messages:  &mocksdb.MessageDatabase{},
		documents: &mocksdb.CaseDocumentDatabase{},
		users:     &mocksdb.UserDatabase{},
		analyzer:  &analyzermocks.Analyzer{},
		hub:       handlers.NewHub(),
	}
	f.svc = &casework.Service{
		Cases:     f.cases,
		Messages:  f.messages,
		Documents: f.documents,
		Users:     f.users,
		Analyzer:  f.analyzer,
		Now:       func() time.Time { return fixedNow },
	}
	return f
}

func newCase(status string) *models.Case {
	return &models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			Description:               "Landlord withheld the security deposit",
			Status:                    status,
			UserID:                    clientID,
			LawyerID:                  lawyerID,
			OpposingLawyerID:          opposingID,
			JudgeID:                   judgeID,
			UserDisplayName:           client.Name,
			LawyerDisplayName:         lawyer.Name,
			OpposingLawyerDisplayName: opposing.Name,
			JudgeDisplayName:          judge.Name,
		},
	}
}

func (f *fixture) expectCase(c *models.Case) {
	f.cases.On("FindOne", mock.Anything, bson.M{"_id": c.ID}).Return(c, nil)
}

func matchedOne() *mongo.UpdateResult {
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}
}

// call runs handler as p would reach it behind the auth middleware. A zero p skips the
// principal, body is marshalled to json unless it is already a string.
func call(handler http.HandlerFunc, p casework.Principal, method, target string, vars map[string]string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	if p.ID != "" {
		req = req.WithContext(api.WithPrincipal(req.Context(), p))
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func caseVars(c *models.Case) map[string]string {
	return map[string]string{"case_id": c.ID.Hex()}
}
