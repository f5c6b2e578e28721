package analysis_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/legal-case-api/analysis"
)

func TestClient_AnalyzeCase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Deposit withheld", body["caseDetails"])
		assert.Equal(t, "hi", body["language"])

		w.Write([]byte(`{"summary":"good odds","strengths":["lease"],"potentialOutcomes":[{"outcome":"refund","probability":0.7}],"disclaimer":"not legal advice"}`))
	}))
	defer srv.Close()

	c := analysis.NewClient(srv.URL+"/", "secret")
	got, err := c.AnalyzeCase(context.Background(), "Deposit withheld", "hi")
	require.NoError(t, err)
	assert.Equal(t, "good odds", got.Summary)
	assert.Equal(t, []string{"lease"}, got.Strengths)
	require.Len(t, got.PotentialOutcomes, 1)
	assert.Equal(t, 0.7, got.PotentialOutcomes[0].Probability)
}

func TestClient_AnalyzeCaseFencedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("```json\n{\"summary\":\"fenced\"}\n```"))
	}))
	defer srv.Close()

	got, err := analysis.NewClient(srv.URL, "").AnalyzeCase(context.Background(), "x", "")
	require.NoError(t, err)
	assert.Equal(t, "fenced", got.Summary)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("overloaded"))
	}))
	defer srv.Close()

	_, err := analysis.NewClient(srv.URL, "").AnalyzeCase(context.Background(), "x", "en")
	require.Error(t, err)
	var statusErr *analysis.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "overloaded", statusErr.Body)
}

func TestClient_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("I cannot help with that"))
	}))
	defer srv.Close()

	_, err := analysis.NewClient(srv.URL, "").AnalyzeCase(context.Background(), "x", "en")
	assert.Error(t, err)
}

func TestClient_AnalyzeCaseEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	got, err := analysis.NewClient(srv.URL, "").AnalyzeCase(context.Background(), "x", "en")
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestClient_SummarizeDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/summarize", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "lease", body["documentType"])
		assert.Equal(t, "The tenant shall pay rent monthly", body["documentContent"])

		w.Write([]byte(`{"summary":"monthly rent","relevantLegalPrinciples":["privity of contract"]}`))
	}))
	defer srv.Close()

	got, err := analysis.NewClient(srv.URL, "").SummarizeDocument(context.Background(), "lease", "The tenant shall pay rent monthly")
	require.NoError(t, err)
	assert.Equal(t, "monthly rent", got.Summary)
	assert.Equal(t, []string{"privity of contract"}, got.RelevantLegalPrinciples)
}

func TestClient_SummarizeDocumentEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"relevantLegalPrinciples":[]}`))
	}))
	defer srv.Close()

	_, err := analysis.NewClient(srv.URL, "").SummarizeDocument(context.Background(), "lease", "x")
	assert.Error(t, err)
}

func TestClient_PredictBail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bail", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"bailLikelihood":0.65,"reasoning":"first offence","conditions":["weekly check-in"],"disclaimer":"d"}`))
	}))
	defer srv.Close()

	got, err := analysis.NewClient(srv.URL, "").PredictBail(context.Background(), "theft")
	require.NoError(t, err)
	assert.Equal(t, 0.65, got.BailLikelihood)
	assert.Equal(t, []string{"weekly check-in"}, got.Conditions)
}

func TestClient_PredictBailOutOfRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bailLikelihood":65}`))
	}))
	defer srv.Close()

	_, err := analysis.NewClient(srv.URL, "").PredictBail(context.Background(), "theft")
	assert.Error(t, err)
}

func TestClient_NotConfigured(t *testing.T) {
	_, err := analysis.NewClient("", "").PredictBail(context.Background(), "theft")
	assert.Error(t, err)
}
