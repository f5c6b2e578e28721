package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// CaseDocument holds the structure for the casedocuments collection in mongo
type CaseDocument struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id"`
	CaseID       string             `json:"caseId" bson:"caseId"`
	Name         string             `json:"name" bson:"name"`
	URL          string             `json:"url" bson:"url"` // image hosting url, may be empty
	UploadedBy   string             `json:"uploadedBy" bson:"uploadedBy"`
	UploaderName string             `json:"uploaderName" bson:"uploaderName"`
	UploaderRole string             `json:"uploaderRole" bson:"uploaderRole"`
	PDFLink      string             `json:"pdfLink,omitempty" bson:"pdfLink,omitempty"`
	VideoLink    string             `json:"videoLink,omitempty" bson:"videoLink,omitempty"`
	Description  string             `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt    primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
