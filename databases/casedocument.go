package databases

// go generate: mockery --name CaseDocumentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/legal-case-api/models"
)

const caseDocumentName = "casedocuments"

// CaseDocumentDatabase contains the methods to use with the case document database
type CaseDocumentDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CaseDocument, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
}

type caseDocumentDatabase struct {
	db DatabaseHelper
}

// NewCaseDocumentDatabase initializes a new instance of case document database with the provided db connection
func NewCaseDocumentDatabase(db DatabaseHelper) CaseDocumentDatabase {
	return &caseDocumentDatabase{
		db: db,
	}
}

func (d *caseDocumentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CaseDocument, error) {
	var documents []models.CaseDocument
	curr, err := d.db.Collection(caseDocumentName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &documents)
	if err != nil {
		return nil, err
	}
	return documents, nil
}

func (d *caseDocumentDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return d.db.Collection(caseDocumentName).InsertOne(ctx, document, opts...)
}
