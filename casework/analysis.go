package casework

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/linesmerrill/legal-case-api/models"
)

// AnalysisSchemaVersion is the envelope version written by EncodeAnalysisReport. Blobs
// written before the envelope existed decode as version 0.
const AnalysisSchemaVersion = 1

// Analyzer is the AI inference collaborator
type Analyzer interface {
	AnalyzeCase(ctx context.Context, caseDetails, language string) (*models.CaseAnalysis, error)
	PredictBail(ctx context.Context, caseDetails string) (*models.BailPrediction, error)
	SummarizeDocument(ctx context.Context, documentType, documentContent string) (*models.DocumentSummary, error)
}

// Bounds on documents sent for summarizing
const (
	MinDocumentTypeLength    = 2
	MinDocumentContentLength = 50
	MaxDocumentContentLength = 100000
)

// EncodeAnalysisReport wraps result in the versioned envelope stored on the case.
func EncodeAnalysisReport(result models.CaseAnalysis, kind, language string, at time.Time) (string, error) {
	report := models.AnalysisReport{
		SchemaVersion: AnalysisSchemaVersion,
		Kind:          kind,
		Language:      language,
		GeneratedAt:   at.UTC(),
		Result:        result,
	}
	b, err := json.Marshal(report)
	if err != nil {
		return "", newError(KindAnalysis, "encodeAnalysisReport", "could not encode report", err)
	}
	return string(b), nil
}

// DecodeAnalysisReport parses a stored analysis blob. Malformed blobs and blobs from a
// newer schema are reported as KindAnalysis errors.
func DecodeAnalysisReport(blob string) (*models.AnalysisReport, error) {
	const op = "decodeAnalysisReport"
	if strings.TrimSpace(blob) == "" {
		return nil, newError(KindNotFound, op, "case has no stored analysis", nil)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(blob), &fields); err != nil {
		return nil, newError(KindAnalysis, op, "stored analysis is not valid JSON", err)
	}

	if _, enveloped := fields["schemaVersion"]; !enveloped {
		var legacy models.CaseAnalysis
		if err := json.Unmarshal([]byte(blob), &legacy); err != nil {
			return nil, newError(KindAnalysis, op, "stored analysis has an unexpected shape", err)
		}
		return &models.AnalysisReport{
			SchemaVersion: 0,
			Kind:          models.AnalysisKindInitial,
			Result:        legacy,
		}, nil
	}

	var report models.AnalysisReport
	if err := json.Unmarshal([]byte(blob), &report); err != nil {
		return nil, newError(KindAnalysis, op, "stored analysis has an unexpected shape", err)
	}
	if report.SchemaVersion < 1 || report.SchemaVersion > AnalysisSchemaVersion {
		return nil, newError(KindAnalysis, op, "unsupported analysis schema version", errors.Errorf("version %d", report.SchemaVersion))
	}
	return &report, nil
}

// StoredAnalysis returns the initial analysis persisted on the case.
func (s *Service) StoredAnalysis(ctx context.Context, p Principal, caseID string) (*models.AnalysisReport, error) {
	const op = "storedAnalysis"
	c, _, err := s.authorize(ctx, op, p, caseID)
	if err != nil {
		return nil, observe(op, err)
	}
	report, err := DecodeAnalysisReport(c.Details.AnalysisReport)
	return report, observe(op, err)
}

// SimulateOutcome runs a fresh analysis of the case. The result is never stored.
func (s *Service) SimulateOutcome(ctx context.Context, p Principal, caseID, language string) (*models.AnalysisReport, error) {
	const op = "simulateOutcome"
	c, _, err := s.authorize(ctx, op, p, caseID)
	if err != nil {
		return nil, observe(op, err)
	}
	if s.Analyzer == nil {
		return nil, observe(op, newError(KindAnalysis, op, "analysis service is not configured", nil))
	}
	result, err := s.Analyzer.AnalyzeCase(ctx, analysisInput(c.Details), language)
	if err != nil {
		return nil, observe(op, newError(KindAnalysis, op, "analysis failed", err))
	}
	return &models.AnalysisReport{
		SchemaVersion: AnalysisSchemaVersion,
		Kind:          models.AnalysisKindOnDemand,
		Language:      language,
		GeneratedAt:   s.now().UTC(),
		Result:        *result,
	}, observe(op, nil)
}

// PredictBail asks the analyzer for a bail prediction on the case. The result is never stored.
func (s *Service) PredictBail(ctx context.Context, p Principal, caseID string) (*models.BailPrediction, error) {
	const op = "predictBail"
	c, _, err := s.authorize(ctx, op, p, caseID)
	if err != nil {
		return nil, observe(op, err)
	}
	if s.Analyzer == nil {
		return nil, observe(op, newError(KindAnalysis, op, "analysis service is not configured", nil))
	}
	prediction, err := s.Analyzer.PredictBail(ctx, analysisInput(c.Details))
	if err != nil {
		return nil, observe(op, newError(KindAnalysis, op, "bail prediction failed", err))
	}
	return prediction, observe(op, nil)
}

// SummarizeDocument asks the analyzer for a plain language summary of a pasted document.
// It is not tied to a case, any signed in user may ask.
func (s *Service) SummarizeDocument(ctx context.Context, p Principal, documentType, documentContent string) (*models.DocumentSummary, error) {
	const op = "summarizeDocument"
	if p.ID == "" {
		return nil, observe(op, newError(KindForbidden, op, "sign in to summarize documents", nil))
	}
	documentType = strings.TrimSpace(documentType)
	documentContent = strings.TrimSpace(documentContent)
	if len([]rune(documentType)) < MinDocumentTypeLength {
		return nil, observe(op, validationError(op, "document type must be at least %d characters", MinDocumentTypeLength))
	}
	if n := len([]rune(documentContent)); n < MinDocumentContentLength || n > MaxDocumentContentLength {
		return nil, observe(op, validationError(op, "document content must be between %d and %d characters", MinDocumentContentLength, MaxDocumentContentLength))
	}
	if s.Analyzer == nil {
		return nil, observe(op, newError(KindAnalysis, op, "analysis service is not configured", nil))
	}
	summary, err := s.Analyzer.SummarizeDocument(ctx, documentType, documentContent)
	if err != nil {
		return nil, observe(op, newError(KindAnalysis, op, "summary failed", err))
	}
	return summary, observe(op, nil)
}

func analysisInput(c models.CaseDetails) string {
	if strings.TrimSpace(c.CaseNotes) == "" {
		return c.Description
	}
	return c.Description + "\n\nCase notes: " + c.CaseNotes
}
