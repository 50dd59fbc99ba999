package model

import "time"

// Mode selects which grounding strategies a run applies
type Mode string

const (
	ModeCitation        Mode = "citation"         // Embedding citation check only
	ModeSelfCheck       Mode = "self-check"       // LLM self-check only
	ModeSelfCheckReask  Mode = "self-check-reask" // LLM self-check followed by one re-ask round
	ModeSummaryFilter   Mode = "summary"          // Citation check of each summary sentence
	ModeCitationAndSelf Mode = "all"              // Citation check and self-check with re-ask
	ModeVerifySummary   Mode = "cov"              // Chain-of-verification summary, then summary filter
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeCitation, ModeSelfCheck, ModeSelfCheckReask, ModeSummaryFilter, ModeCitationAndSelf, ModeVerifySummary:
		return Mode(s), true
	}
	return "", false
}

// Report is the complete output of one grounding run
type Report struct {
	RunID        string     `json:"run_id"`
	TranscriptID string     `json:"transcript_id"`
	Mode         Mode       `json:"mode"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   time.Time  `json:"finished_at"`
	Thresholds   Thresholds `json:"thresholds"`

	Claims    []Claim            `json:"claims"`              // Claims as submitted
	Citations []CitationResult   `json:"citations,omitempty"` // Embedding citation results
	Verdicts  []SelfCheckVerdict `json:"verdicts,omitempty"`  // LLM self-check verdicts

	FinalClaims []Claim `json:"final_claims,omitempty"` // Claims after the re-ask merge
	Reasked     []int   `json:"reasked,omitempty"`      // Indices that were re-asked

	Summary      *SummaryFilter `json:"summary,omitempty"`
	Verification *Verification  `json:"verification,omitempty"` // Chain-of-verification steps

	Score Score `json:"score"`
}

// Verification records each step of a chain-of-verification summary
type Verification struct {
	InitialSummary string `json:"initial_summary"`
	Questions      string `json:"questions"` // Verification questions, one per summary sentence
	Answers        string `json:"answers"`   // Questions answered from the transcript
	FinalSummary   string `json:"final_summary"`
	Calls          int    `json:"calls"` // LLM task calls issued
}

// SummaryFilter is the outcome of filtering a summary sentence by sentence
type SummaryFilter struct {
	Original string   `json:"original"`
	Filtered string   `json:"filtered"`          // Kept sentences joined back together
	Kept     []string `json:"kept"`              // Sentences with textual support
	Dropped  []string `json:"dropped,omitempty"` // Sentences without textual support
}

// Score is the run-level diagnostic breakdown
type Score struct {
	GroundedRatio float64  `json:"grounded_ratio"` // Share of claims passing the citation check
	SelfCheckRate float64  `json:"self_check_rate"`
	Signals       []Signal `json:"signals"`
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalCitationCoverage SignalType = "citation_coverage" // Claims with a cited reference
	SignalSelfCheck        SignalType = "self_check"        // LLM YES/NO pass rate
	SignalMalformed        SignalType = "malformed_answers" // Verdicts that were neither YES nor NO
	SignalDisagreement     SignalType = "strategy_conflict" // Citation and self-check disagree
	SignalReask            SignalType = "reask"             // Claims regenerated after self-check
	SignalGranularityMix   SignalType = "granularity_mix"   // Which granularity supplied citations
	SignalDegenerateClaims SignalType = "degenerate_claims" // Claims that could not be scored
	SignalSummaryDropped   SignalType = "summary_dropped"   // Summary sentences removed
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
