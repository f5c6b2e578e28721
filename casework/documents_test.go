package casework_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/legal-case-api/casework"
	"github.com/linesmerrill/legal-case-api/models"
)

func names(docs []models.CaseDocument) []string {
	out := []string{}
	for _, d := range docs {
		out = append(out, d.Name)
	}
	return out
}

func TestParseRoleGroup(t *testing.T) {
	for in, want := range map[string]casework.RoleGroup{
		"":          casework.GroupAll,
		"all":       casework.GroupAll,
		"Plaintiff": casework.GroupPlaintiff,
		"defense":   casework.GroupDefense,
		" court ":   casework.GroupCourt,
	} {
		got, ok := casework.ParseRoleGroup(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := casework.ParseRoleGroup("prosecution")
	assert.False(t, ok)
}

func TestFilterDocuments(t *testing.T) {
	c := newCase(models.CaseStatusActive)
	docs := []models.CaseDocument{
		{Name: "complaint", UploadedBy: clientID},
		{Name: "retainer", UploadedBy: lawyerID},
		{Name: "reply", UploadedBy: opposingID},
		{Name: "summons", UploadedBy: judgeID},
		{Name: "orphan", UploadedBy: strangerID},
	}

	assert.Equal(t, []string{"complaint", "retainer", "reply", "summons", "orphan"}, names(casework.FilterDocuments(c.Details, docs, casework.GroupAll)))
	assert.Equal(t, []string{"complaint", "retainer"}, names(casework.FilterDocuments(c.Details, docs, casework.GroupPlaintiff)))
	assert.Equal(t, []string{"reply"}, names(casework.FilterDocuments(c.Details, docs, casework.GroupDefense)))
	assert.Equal(t, []string{"summons"}, names(casework.FilterDocuments(c.Details, docs, casework.GroupCourt)))
}

func TestFilterDocuments_ClassifiesByCurrentParticipants(t *testing.T) {
	c := newCase(models.CaseStatusActive)
	docs := []models.CaseDocument{{Name: "reply", UploadedBy: opposingID, UploaderRole: models.RoleLawyer}}
	c.Details.OpposingLawyerID = strangerID

	assert.Empty(t, casework.FilterDocuments(c.Details, docs, casework.GroupDefense))
	assert.Len(t, casework.FilterDocuments(c.Details, docs, casework.GroupAll), 1)
}

func TestService_AddDocument(t *testing.T) {
	f := newFixture()
	c := newCase(models.CaseStatusActive)
	f.expectCase(c)
	f.documents.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	doc, err := f.svc.AddDocument(context.Background(), opposing, c.ID.Hex(), casework.NewDocument{
		Name:      " Reply brief ",
		VideoLink: "https://example.com/v.mp4",
	})
	require.NoError(t, err)
	assert.Equal(t, "Reply brief", doc.Name)
	assert.Equal(t, opposingID, doc.UploadedBy)
	assert.Equal(t, opposing.Name, doc.UploaderName)
	assert.Equal(t, models.RoleLawyer, doc.UploaderRole)
	assert.Equal(t, c.ID.Hex(), doc.CaseID)
	f.documents.AssertNumberOfCalls(t, "InsertOne", 1)
}

func TestService_AddDocumentRejections(t *testing.T) {
	f := newFixture()
	c := newCase(models.CaseStatusActive)
	f.expectCase(c)
	ctx := context.Background()

	_, err := f.svc.AddDocument(ctx, client, c.ID.Hex(), casework.NewDocument{URL: "https://example.com/a.png"})
	assertKind(t, err, casework.KindValidation)

	_, err = f.svc.AddDocument(ctx, client, c.ID.Hex(), casework.NewDocument{Name: "empty"})
	assertKind(t, err, casework.KindValidation)

	_, err = f.svc.AddDocument(ctx, admin, c.ID.Hex(), casework.NewDocument{Name: "a", URL: "https://example.com/a.png"})
	assertKind(t, err, casework.KindValidation)

	_, err = f.svc.AddDocument(ctx, stranger, c.ID.Hex(), casework.NewDocument{Name: "a", URL: "https://example.com/a.png"})
	assertKind(t, err, casework.KindForbidden)

	f.documents.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestService_AddDocumentWriteFailure(t *testing.T) {
	f := newFixture()
	c := newCase(models.CaseStatusActive)
	f.expectCase(c)
	f.documents.On("InsertOne", mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))

	_, err := f.svc.AddDocument(context.Background(), judge, c.ID.Hex(), casework.NewDocument{Name: "a", PDFLink: "https://example.com/a.pdf"})
	assertKind(t, err, casework.KindWrite)
}

func TestService_ListDocuments(t *testing.T) {
	f := newFixture()
	c := newCase(models.CaseStatusActive)
	f.expectCase(c)
	f.documents.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.CaseDocument{
		{Name: "summons", UploadedBy: judgeID},
		{Name: "complaint", UploadedBy: clientID},
	}, nil)

	docs, err := f.svc.ListDocuments(context.Background(), lawyer, c.ID.Hex(), casework.GroupCourt)
	require.NoError(t, err)
	assert.Equal(t, []string{"summons"}, names(docs))
}

func TestService_ListDocumentsReadFailure(t *testing.T) {
	f := newFixture()
	c := newCase(models.CaseStatusActive)
	f.expectCase(c)
	f.documents.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))

	_, err := f.svc.ListDocuments(context.Background(), lawyer, c.ID.Hex(), casework.GroupAll)
	assertKind(t, err, casework.KindRead)
}
