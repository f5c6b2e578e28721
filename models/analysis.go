package models

import "time"

// Analysis report kinds
const (
	AnalysisKindInitial  = "initial"
	AnalysisKindOnDemand = "on-demand"
)

// CaseAnalysis is the result returned by the AI analysis service
type CaseAnalysis struct {
	Summary               string             `json:"summary"`
	Strengths             []string           `json:"strengths"`
	Weaknesses            []string           `json:"weaknesses"`
	PotentialOutcomes     []PotentialOutcome `json:"potentialOutcomes"`
	RecommendedNextSteps  []string           `json:"recommendedNextSteps"`
	SimilarCasePrecedents []CasePrecedent    `json:"similarCasePrecedents"`
	Disclaimer            string             `json:"disclaimer"`
}

// PotentialOutcome is one predicted outcome with its probability in [0,1]
type PotentialOutcome struct {
	Outcome     string  `json:"outcome"`
	Probability float64 `json:"probability"`
}

// CasePrecedent is a similar case surfaced by the analysis
type CasePrecedent struct {
	CaseName      string   `json:"caseName"`
	Summary       string   `json:"summary"`
	Citation      string   `json:"citation"`
	RelevantLinks []string `json:"relevantLinks"`
}

// BailPrediction is the result of the bail predictor
type BailPrediction struct {
	BailLikelihood float64  `json:"bailLikelihood"`
	Reasoning      string   `json:"reasoning"`
	Conditions     []string `json:"conditions"`
	Disclaimer     string   `json:"disclaimer"`
}

// DocumentSummary is the plain language summary of a legal document
type DocumentSummary struct {
	Summary                 string   `json:"summary"`
	RelevantLegalPrinciples []string `json:"relevantLegalPrinciples"`
}

// AnalysisReport is the versioned envelope stored in CaseDetails.AnalysisReport
type AnalysisReport struct {
	SchemaVersion int          `json:"schemaVersion"`
	Kind          string       `json:"kind"`
	Language      string       `json:"language,omitempty"`
	GeneratedAt   time.Time    `json:"generatedAt"`
	Result        CaseAnalysis `json:"result"`
}
