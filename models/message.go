package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// RecipientAll addresses a message to every participant of a case
const RecipientAll = "all"

// Message holds the structure for the casemessages collection in mongo
type Message struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	CaseID      string             `json:"caseId" bson:"caseId"`
	SenderID    string             `json:"senderId" bson:"senderId"`
	RecipientID string             `json:"recipientId,omitempty" bson:"recipientId,omitempty"` // "all" or empty means broadcast
	Text        string             `json:"text" bson:"text"`

	// Timestamp is assigned by the server; it can be nil until the write is acknowledged.
	Timestamp *primitive.DateTime `json:"timestamp" bson:"timestamp"`

	IsOrder    bool `json:"isOrder" bson:"isOrder"`
	IsEvidence bool `json:"isEvidence" bson:"isEvidence"`

	ImageURL  string `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	PDFLink   string `json:"pdfLink,omitempty" bson:"pdfLink,omitempty"`
	VideoLink string `json:"videoLink,omitempty" bson:"videoLink,omitempty"`
}

// Privileged reports whether the message is a court order or an evidence submission.
func (m Message) Privileged() bool {
	return m.IsOrder || m.IsEvidence
}

// Broadcast reports whether every participant of the case receives the message.
func (m Message) Broadcast() bool {
	return m.Privileged() || m.RecipientID == "" || m.RecipientID == RecipientAll
}
