package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/api/handlers"
	"github.com/linesmerrill/legal-case-api/models"
)

type pushedEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

func subscriptionServer(f *fixture, tokens *api.TokenIssuer) *httptest.Server {
	h := handlers.Subscription{Svc: f.svc, Tokens: tokens, Hub: f.hub}
	r := mux.NewRouter()
	r.HandleFunc("/ws/cases/{case_id}", h.CaseEventsHandler)
	return httptest.NewServer(r)
}

func dial(t *testing.T, srv *httptest.Server, caseID, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/cases/" + caseID + "?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestSubscription_DeliversVisibleEvents(t *testing.T) {
	f := newFixture()
	c := newCase(models.CaseStatusActive)
	f.expectCase(c)
	tokens := api.NewTokenIssuer("test-secret")
	srv := subscriptionServer(f, tokens)
	defer srv.Close()

	token, _, err := tokens.Issue(client)
	require.NoError(t, err)
	conn, _, err := dial(t, srv, c.ID.Hex(), token)
	require.NoError(t, err)
	defer conn.Close()

	assert.Eventually(t, func() bool {
		return f.hub.Subscribers(c.ID.Hex()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	f.hub.MessageCreated(&models.Message{CaseID: c.ID.Hex(), SenderID: opposingID, RecipientID: judgeID, Text: "ex parte note"})
	f.hub.MessageCreated(&models.Message{CaseID: c.ID.Hex(), SenderID: judgeID, RecipientID: models.RecipientAll, Text: "hearing moved"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got pushedEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, handlers.EventMessageCreated, got.Event)
	assert.Equal(t, "hearing moved", got.Data["text"])

	f.hub.CaseUpdated(c)
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, handlers.EventCaseUpdated, got.Event)
}

func TestSubscription_LeavesRoomOnClose(t *testing.T) {
	f := newFixture()
	c := newCase(models.CaseStatusActive)
	f.expectCase(c)
	tokens := api.NewTokenIssuer("test-secret")
	srv := subscriptionServer(f, tokens)
	defer srv.Close()

	token, _, err := tokens.Issue(judge)
	require.NoError(t, err)
	conn, _, err := dial(t, srv, c.ID.Hex(), token)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return f.hub.Subscribers(c.ID.Hex()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool {
		return f.hub.Subscribers(c.ID.Hex()) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubscription_RejectsBadTokens(t *testing.T) {
	f := newFixture()
	c := newCase(models.CaseStatusActive)
	srv := subscriptionServer(f, api.NewTokenIssuer("test-secret"))
	defer srv.Close()

	forged, _, err := api.NewTokenIssuer("other-secret").Issue(client)
	require.NoError(t, err)

	_, resp, err := dial(t, srv, c.ID.Hex(), forged)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSubscription_RejectsOutsiders(t *testing.T) {
	f := newFixture()
	c := newCase(models.CaseStatusActive)
	f.expectCase(c)
	tokens := api.NewTokenIssuer("test-secret")
	srv := subscriptionServer(f, tokens)
	defer srv.Close()

	token, _, err := tokens.Issue(stranger)
	require.NoError(t, err)

	_, resp, err := dial(t, srv, c.ID.Hex(), token)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, f.hub.Subscribers(c.ID.Hex()))
}

func TestHub_NilIsSafe(t *testing.T) {
	var hub *handlers.Hub
	assert.NotPanics(t, func() {
		hub.CaseUpdated(newCase(models.CaseStatusActive))
		hub.MessageCreated(&models.Message{CaseID: "x"})
	})
}
