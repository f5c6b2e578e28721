package casework

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/legal-case-api/models"
)

// OrderMarker prefixes the text of every court order
const OrderMarker = "COURT ORDER: "

// Kind filters for the orders and submissions view
const (
	RecordAll         = "all"
	RecordOrders      = "orders"
	RecordSubmissions = "submissions"
)

func timestampOf(m models.Message) primitive.DateTime {
	if m.Timestamp == nil {
		return 0
	}
	return *m.Timestamp
}

// Visible reports whether viewer sees m in the thread selected by addressee. addressee is
// either models.RecipientAll or the id of another participant.
func Visible(m models.Message, viewer, addressee string) bool {
	if m.Privileged() {
		return addressee == models.RecipientAll
	}
	if addressee == models.RecipientAll {
		return m.RecipientID == "" || m.RecipientID == models.RecipientAll
	}
	return (m.SenderID == viewer && m.RecipientID == addressee) ||
		(m.SenderID == addressee && m.RecipientID == viewer)
}

// SortChronological orders messages by server timestamp ascending. Unacknowledged
// messages count as timestamp zero and keep their submission order.
func SortChronological(messages []models.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return timestampOf(messages[i]) < timestampOf(messages[j])
	})
}

// Thread returns, oldest first, the messages viewer sees with addressee selected.
func Thread(messages []models.Message, viewer, addressee string) []models.Message {
	if addressee == "" {
		addressee = models.RecipientAll
	}
	out := make([]models.Message, 0, len(messages))
	for _, m := range messages {
		if Visible(m, viewer, addressee) {
			out = append(out, m)
		}
	}
	SortChronological(out)
	return out
}

// RecordFilter narrows the orders and submissions view
type RecordFilter struct {
	Kind   string // RecordAll, RecordOrders or RecordSubmissions; empty means RecordAll
	Search string
}

// ParseRecordKind validates a kind filter from the outside world
func ParseRecordKind(kind string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", RecordAll:
		return RecordAll, true
	case RecordOrders:
		return RecordOrders, true
	case RecordSubmissions:
		return RecordSubmissions, true
	}
	return "", false
}

// OrdersAndSubmissions projects the court orders and evidence submissions out of messages,
// most recent first.
func OrdersAndSubmissions(messages []models.Message, f RecordFilter) []models.Message {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Message, 0)
	for _, m := range messages {
		if !m.Privileged() {
			continue
		}
		switch f.Kind {
		case RecordOrders:
			if !m.IsOrder {
				continue
			}
		case RecordSubmissions:
			if !m.IsEvidence {
				continue
			}
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Text), search) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return timestampOf(out[i]) > timestampOf(out[j])
	})
	return out
}

// Contact is an addressee the viewer can open a thread with
type Contact struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Contacts lists the threads available to viewer on the case: everyone, then each other
// participant that is present.
func Contacts(c models.CaseDetails, viewer string) []Contact {
	contacts := []Contact{{ID: models.RecipientAll, Name: "Everyone", Role: models.RecipientAll}}
	candidates := []Contact{
		{ID: c.UserID, Name: c.UserDisplayName, Role: RoleClient.String()},
		{ID: c.LawyerID, Name: c.LawyerDisplayName, Role: RolePlaintiffLawyer.String()},
		{ID: c.OpposingLawyerID, Name: c.OpposingLawyerDisplayName, Role: RoleOpposingLawyer.String()},
		{ID: c.JudgeID, Name: c.JudgeDisplayName, Role: RoleJudge.String()},
	}
	for _, candidate := range candidates {
		if candidate.ID == "" || candidate.ID == viewer {
			continue
		}
		contacts = append(contacts, candidate)
	}
	return contacts
}

func isParticipant(c models.CaseDetails, id string) bool {
	if id == "" {
		return false
	}
	return id == c.UserID || id == c.LawyerID || id == c.OpposingLawyerID || id == c.JudgeID
}

// Attachments are the optional links carried by an evidence submission
type Attachments struct {
	ImageURL  string
	PDFLink   string
	VideoLink string
}

func (a Attachments) empty() bool {
	return a.ImageURL == "" && a.PDFLink == "" && a.VideoLink == ""
}

func (s *Service) appendMessage(ctx context.Context, op string, m *models.Message) error {
	ts := s.stamp()
	m.ID = primitive.NewObjectID()
	m.Timestamp = &ts
	if _, err := s.Messages.InsertOne(ctx, m); err != nil {
		return writeError(op, err)
	}
	return nil
}

// SendMessage appends an ordinary chat message. recipient is models.RecipientAll, empty
// for broadcast, or another participant of the case.
func (s *Service) SendMessage(ctx context.Context, p Principal, caseID, recipient, text string) (*models.Message, error) {
	const op = "sendMessage"
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, observe(op, newError(KindSend, op, "message text is empty", nil))
	}
	c, role, err := s.authorize(ctx, op, p, caseID)
	if err != nil {
		return nil, observe(op, err)
	}
	switch role {
	case RoleClient, RolePlaintiffLawyer, RoleOpposingLawyer, RoleJudge:
	case RoleAdmin:
		return nil, observe(op, validationError(op, "admins observe cases and cannot send messages"))
	}
	if recipient == "" {
		recipient = models.RecipientAll
	}
	if recipient != models.RecipientAll && (recipient == p.ID || !isParticipant(c.Details, recipient)) {
		return nil, observe(op, newError(KindSend, op, "recipient is not another participant of the case", nil))
	}

	m := &models.Message{
		CaseID:      c.ID.Hex(),
		SenderID:    p.ID,
		RecipientID: recipient,
		Text:        text,
	}
	if err := s.appendMessage(ctx, op, m); err != nil {
		return nil, observe(op, err)
	}
	return m, observe(op, nil)
}

// IssueOrder appends a court order from the case's judge. Orders are broadcast.
func (s *Service) IssueOrder(ctx context.Context, p Principal, caseID, text string) (*models.Message, error) {
	const op = "issueOrder"
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, observe(op, newError(KindSend, op, "order text is empty", nil))
	}
	c, role, err := s.authorize(ctx, op, p, caseID)
	if err != nil {
		return nil, observe(op, err)
	}
	switch role {
	case RoleJudge:
	case RoleClient, RolePlaintiffLawyer, RoleOpposingLawyer, RoleAdmin:
		return nil, observe(op, validationError(op, "only the judge can issue orders"))
	}

	m := &models.Message{
		CaseID:   c.ID.Hex(),
		SenderID: p.ID,
		Text:     OrderMarker + text,
		IsOrder:  true,
	}
	if err := s.appendMessage(ctx, op, m); err != nil {
		return nil, observe(op, err)
	}
	return m, observe(op, nil)
}

// SubmitEvidence appends an evidence submission from a lawyer on either side.
func (s *Service) SubmitEvidence(ctx context.Context, p Principal, caseID, text string, a Attachments) (*models.Message, error) {
	const op = "submitEvidence"
	text = strings.TrimSpace(text)
	if text == "" && a.empty() {
		return nil, observe(op, newError(KindSend, op, "evidence needs a description or an attachment", nil))
	}
	c, role, err := s.authorize(ctx, op, p, caseID)
	if err != nil {
		return nil, observe(op, err)
	}
	switch role {
	case RolePlaintiffLawyer, RoleOpposingLawyer:
	case RoleClient, RoleJudge, RoleAdmin:
		return nil, observe(op, validationError(op, "only lawyers can submit evidence"))
	}

	m := &models.Message{
		CaseID:     c.ID.Hex(),
		SenderID:   p.ID,
		Text:       text,
		IsEvidence: true,
		ImageURL:   a.ImageURL,
		PDFLink:    a.PDFLink,
		VideoLink:  a.VideoLink,
	}
	if err := s.appendMessage(ctx, op, m); err != nil {
		return nil, observe(op, err)
	}
	return m, observe(op, nil)
}

func (s *Service) caseMessages(ctx context.Context, op string, c *models.Case) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	messages, err := s.Messages.Find(ctx, bson.M{"caseId": c.ID.Hex()}, opts)
	if err != nil {
		return nil, readError(op, err)
	}
	return messages, nil
}

// Conversation returns the thread p sees on the case with addressee selected.
func (s *Service) Conversation(ctx context.Context, p Principal, caseID, addressee string) ([]models.Message, error) {
	const op = "conversation"
	c, _, err := s.authorize(ctx, op, p, caseID)
	if err != nil {
		return nil, observe(op, err)
	}
	messages, err := s.caseMessages(ctx, op, c)
	if err != nil {
		return nil, observe(op, err)
	}
	return Thread(messages, p.ID, addressee), observe(op, nil)
}

// CourtRecord returns the orders and submissions of the case, most recent first.
func (s *Service) CourtRecord(ctx context.Context, p Principal, caseID string, f RecordFilter) ([]models.Message, error) {
	const op = "courtRecord"
	c, _, err := s.authorize(ctx, op, p, caseID)
	if err != nil {
		return nil, observe(op, err)
	}
	messages, err := s.caseMessages(ctx, op, c)
	if err != nil {
		return nil, observe(op, err)
	}
	return OrdersAndSubmissions(messages, f), observe(op, nil)
}
