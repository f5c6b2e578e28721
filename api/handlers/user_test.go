package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/legal-case-api/api/handlers"
	"github.com/linesmerrill/legal-case-api/casework"
	mocksdb "github.com/linesmerrill/legal-case-api/databases/mocks"
	"github.com/linesmerrill/legal-case-api/models"
)

func lawyerSignUp() map[string]interface{} {
	return map[string]interface{}{
		"name":           "Ada Counsel",
		"email":          "Ada@Example.com",
		"password":       "hunter22",
		"role":           "lawyer",
		"contactNumber":  "9876543210",
		"location":       "Pune",
		"specialization": "Tenancy",
		"experience":     7,
		"education":      "LLB, ILS Law College",
		"lawyerType":     []string{"civil", "family"},
	}
}

func TestUser_UserCreateHandler(t *testing.T) {
	db := &mocksdb.UserDatabase{}
	db.On("FindOne", mock.Anything, bson.M{"user.email": "ada@example.com"}).Return(nil, mongo.ErrNoDocuments)
	var stored models.User
	db.On("InsertOne", mock.Anything, mock.AnythingOfType("models.User")).Return(nil, nil).Run(func(args mock.Arguments) {
		stored = args.Get(1).(models.User)
	})
	h := handlers.User{DB: db, Now: func() time.Time { return fixedNow }}

	rr := call(h.UserCreateHandler, casework.Principal{}, "POST", "/api/v1/users", nil, lawyerSignUp())

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "ada@example.com", stored.Details.Email)
	assert.Equal(t, models.RoleLawyer, stored.Details.Role)
	assert.Equal(t, []string{"civil", "family"}, stored.Details.LawyerType)
	assert.Zero(t, stored.Details.Rating)
	assert.Equal(t, fixedNow, stored.Details.CreatedAt)
	_, err := primitive.ObjectIDFromHex(stored.ID)
	assert.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Details.Password), []byte("hunter22")))

	var body struct {
		ID      string                 `json:"_id"`
		Details map[string]interface{} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, stored.ID, body.ID)
	assert.NotContains(t, body.Details, "password")
	assert.Equal(t, "Ada Counsel", body.Details["name"])
}

func TestUser_UserCreateHandlerClientDropsLawyerFields(t *testing.T) {
	db := &mocksdb.UserDatabase{}
	db.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
	var stored models.User
	db.On("InsertOne", mock.Anything, mock.AnythingOfType("models.User")).Return(nil, nil).Run(func(args mock.Arguments) {
		stored = args.Get(1).(models.User)
	})
	h := handlers.User{DB: db}

	req := lawyerSignUp()
	req["role"] = "user"
	rr := call(h.UserCreateHandler, casework.Principal{}, "POST", "/api/v1/users", nil, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, models.RoleUser, stored.Details.Role)
	assert.Empty(t, stored.Details.Specialization)
	assert.Empty(t, stored.Details.LawyerType)
}

func TestUser_UserCreateHandlerValidation(t *testing.T) {
	tests := []struct {
		name   string
		change func(req map[string]interface{})
	}{
		{"admin role", func(req map[string]interface{}) { req["role"] = "admin" }},
		{"short password", func(req map[string]interface{}) { req["password"] = "abc" }},
		{"bad email", func(req map[string]interface{}) { req["email"] = "not-an-email" }},
		{"short contact number", func(req map[string]interface{}) { req["contactNumber"] = "12345" }},
		{"lawyer without practice areas", func(req map[string]interface{}) { delete(req, "lawyerType") }},
		{"lawyer without education", func(req map[string]interface{}) { delete(req, "education") }},
		{"unknown practice area", func(req map[string]interface{}) { req["lawyerType"] = []string{"maritime"} }},
		{"negative experience", func(req map[string]interface{}) { req["experience"] = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &mocksdb.UserDatabase{}
			h := handlers.User{DB: db}
			req := lawyerSignUp()
			tt.change(req)

			rr := call(h.UserCreateHandler, casework.Principal{}, "POST", "/api/v1/users", nil, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			db.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
		})
	}
}

func TestUser_UserCreateHandlerDuplicateEmail(t *testing.T) {
	db := &mocksdb.UserDatabase{}
	db.On("FindOne", mock.Anything, bson.M{"user.email": "ada@example.com"}).Return(&models.User{ID: lawyerID}, nil)
	h := handlers.User{DB: db}

	rr := call(h.UserCreateHandler, casework.Principal{}, "POST", "/api/v1/users", nil, lawyerSignUp())

	assert.Equal(t, http.StatusConflict, rr.Code)
	db.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestUser_UserCreateHandlerDuplicateKeyOnInsert(t *testing.T) {
	db := &mocksdb.UserDatabase{}
	db.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
	db.On("InsertOne", mock.Anything, mock.Anything).Return(nil, mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}},
	})
	h := handlers.User{DB: db}

	rr := call(h.UserCreateHandler, casework.Principal{}, "POST", "/api/v1/users", nil, lawyerSignUp())
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestUser_UserCreateHandlerLookupFailure(t *testing.T) {
	db := &mocksdb.UserDatabase{}
	db.On("FindOne", mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))
	h := handlers.User{DB: db}

	rr := call(h.UserCreateHandler, casework.Principal{}, "POST", "/api/v1/users", nil, lawyerSignUp())

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	db.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestUser_LawyersHandler(t *testing.T) {
	db := &mocksdb.UserDatabase{}
	db.On("Find", mock.Anything, mock.MatchedBy(func(filter bson.M) bool {
		re, ok := filter["user.specialization"].(primitive.Regex)
		return filter["user.role"] == models.RoleLawyer && ok && re.Pattern == `tax\+` && re.Options == "i"
	}), mock.Anything).Return([]models.User{
		{ID: lawyerID, Details: models.UserDetails{Name: "Ravi Lawyer", Role: models.RoleLawyer, Rating: 4.5, RatingCount: 12}},
	}, nil)
	db.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(3), nil)
	h := handlers.User{DB: db}

	rr := call(h.LawyersHandler, client, "GET", "/api/v1/lawyers?specialization=tax%2B&limit=2", nil, nil)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got struct {
		Data       []models.User `json:"data"`
		TotalCount int64         `json:"totalCount"`
		TotalPages int           `json:"totalPages"`
		Limit      int           `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Data, 1)
	assert.Equal(t, 4.5, got.Data[0].Details.Rating)
	assert.Equal(t, 12, got.Data[0].Details.RatingCount)
	assert.Equal(t, int64(3), got.TotalCount)
	assert.Equal(t, 2, got.TotalPages)
	assert.Equal(t, 2, got.Limit)
}

func TestUser_LawyersHandlerEmpty(t *testing.T) {
	db := &mocksdb.UserDatabase{}
	db.On("Find", mock.Anything, bson.M{"user.role": models.RoleLawyer}, mock.Anything).Return(nil, nil)
	db.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	h := handlers.User{DB: db}

	rr := call(h.LawyersHandler, client, "GET", "/api/v1/lawyers", nil, nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"data":[]`)
}

func TestUser_LawyersHandlerErrors(t *testing.T) {
	db := &mocksdb.UserDatabase{}
	db.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))
	h := handlers.User{DB: db}

	rr := call(h.LawyersHandler, client, "GET", "/api/v1/lawyers", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = call(h.LawyersHandler, casework.Principal{}, "GET", "/api/v1/lawyers", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
