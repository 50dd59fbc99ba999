// Package score turns a grounding run into transparent diagnostic signals.
package score

import (
	"fmt"

	"github.com/ppiankov/groundcheck/internal/model"
)

// Scorer calculates run-level ratios and generates signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate derives the score from whatever strategies the report ran.
// Signals for strategies that did not run are omitted.
func (s *Scorer) Calculate(report *model.Report) model.Score {
	var (
		signals       []model.Signal
		groundedRatio float64
		selfCheckRate float64
	)

	// 1. Citation coverage
	if len(report.Citations) > 0 {
		var coverage model.Signal
		groundedRatio, coverage = s.citationCoverage(report.Citations)
		signals = append(signals, coverage, s.granularityMix(report.Citations))

		if signal, ok := s.degenerateClaims(report.Citations); ok {
			signals = append(signals, signal)
		}
	}

	// 2. Self-check pass rate
	if len(report.Verdicts) > 0 {
		var selfCheck model.Signal
		selfCheckRate, selfCheck = s.selfCheck(report.Verdicts)
		signals = append(signals, selfCheck)

		if signal, ok := s.malformed(report.Verdicts); ok {
			signals = append(signals, signal)
		}
	}

	// 3. Strategy disagreement
	if signal, ok := s.disagreement(report.Citations, report.Verdicts); ok {
		signals = append(signals, signal)
	}

	// 4. Re-ask round
	if len(report.Reasked) > 0 {
		signals = append(signals, model.Signal{
			Type:        model.SignalReask,
			Severity:    model.SeverityInfo,
			Description: fmt.Sprintf("%d claim(s) regenerated after failing the self-check", len(report.Reasked)),
			Data: map[string]interface{}{
				"reasked": report.Reasked,
				"count":   len(report.Reasked),
			},
		})
	}

	// 5. Summary filtering
	if report.Summary != nil && len(report.Summary.Dropped) > 0 {
		total := len(report.Summary.Kept) + len(report.Summary.Dropped)
		ratio := float64(len(report.Summary.Dropped)) / float64(total)

		severity := model.SeverityWarning
		if ratio >= 0.5 {
			severity = model.SeverityCritical
		}
		signals = append(signals, model.Signal{
			Type:        model.SignalSummaryDropped,
			Severity:    severity,
			Description: fmt.Sprintf("%d of %d summary sentences lack textual support", len(report.Summary.Dropped), total),
			Data: map[string]interface{}{
				"dropped": len(report.Summary.Dropped),
				"total":   total,
				"ratio":   ratio,
			},
		})
	}

	if signals == nil {
		signals = []model.Signal{}
	}

	return model.Score{
		GroundedRatio: groundedRatio,
		SelfCheckRate: selfCheckRate,
		Signals:       signals,
	}
}

// citationCoverage reports the share of claims passing the citation check
func (s *Scorer) citationCoverage(citations []model.CitationResult) (float64, model.Signal) {
	grounded := 0
	for _, c := range citations {
		if c.GroundingThresholdPassed {
			grounded++
		}
	}

	ratio := float64(grounded) / float64(len(citations))

	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityCritical
	} else if ratio < 0.8 {
		severity = model.SeverityWarning
	}

	return ratio, model.Signal{
		Type:        model.SignalCitationCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d claims cite transcript text above threshold", grounded, len(citations)),
		Data: map[string]interface{}{
			"grounded": grounded,
			"claims":   len(citations),
			"ratio":    ratio,
			"formula":  "grounded / claims, grounded = max(margin) > 0",
		},
	}
}

// granularityMix counts which granularity supplied each citation
func (s *Scorer) granularityMix(citations []model.CitationResult) model.Signal {
	counts := map[string]int{
		string(model.GranularitySentence):  0,
		string(model.GranularityParagraph): 0,
		string(model.GranularityChunk):     0,
		"none":                             0,
	}
	for _, c := range citations {
		if c.Citation.Granularity == "" {
			counts["none"]++
			continue
		}
		counts[string(c.Citation.Granularity)]++
	}

	data := make(map[string]interface{}, len(counts))
	for k, v := range counts {
		data[k] = v
	}

	return model.Signal{
		Type:     model.SignalGranularityMix,
		Severity: model.SeverityInfo,
		Description: fmt.Sprintf("Citations by granularity: %d sentence, %d paragraph, %d chunk, %d none",
			counts["sentence"], counts["paragraph"], counts["chunk"], counts["none"]),
		Data: data,
	}
}

func (s *Scorer) degenerateClaims(citations []model.CitationResult) (model.Signal, bool) {
	var indices []int
	for i, c := range citations {
		if c.Error != "" {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:        model.SignalDegenerateClaims,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("%d claim(s) could not be scored", len(indices)),
		Data:        map[string]interface{}{"indices": indices},
	}, true
}

// selfCheck reports the YES rate of the LLM self-check
func (s *Scorer) selfCheck(verdicts []model.SelfCheckVerdict) (float64, model.Signal) {
	passed := 0
	for _, v := range verdicts {
		if v.GroundingThresholdPassed {
			passed++
		}
	}

	rate := float64(passed) / float64(len(verdicts))

	severity := model.SeverityInfo
	if rate < 0.5 {
		severity = model.SeverityCritical
	} else if rate < 1 {
		severity = model.SeverityWarning
	}

	return rate, model.Signal{
		Type:        model.SignalSelfCheck,
		Severity:    severity,
		Description: fmt.Sprintf("LLM self-check answered YES for %d of %d claims", passed, len(verdicts)),
		Data: map[string]interface{}{
			"passed": passed,
			"claims": len(verdicts),
			"rate":   rate,
		},
	}
}

func (s *Scorer) malformed(verdicts []model.SelfCheckVerdict) (model.Signal, bool) {
	var indices []int
	for i, v := range verdicts {
		if v.Malformed {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:        model.SignalMalformed,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("%d self-check answer(s) were neither YES nor NO", len(indices)),
		Data:        map[string]interface{}{"indices": indices},
	}, true
}

// disagreement flags claims where citation and self-check decided differently
func (s *Scorer) disagreement(citations []model.CitationResult, verdicts []model.SelfCheckVerdict) (model.Signal, bool) {
	if len(citations) == 0 || len(citations) != len(verdicts) {
		return model.Signal{}, false
	}

	var citedOnly, llmOnly []int
	for i := range citations {
		cited, llmPassed := citations[i].GroundingThresholdPassed, verdicts[i].GroundingThresholdPassed
		switch {
		case cited && !llmPassed:
			citedOnly = append(citedOnly, i)
		case !cited && llmPassed:
			llmOnly = append(llmOnly, i)
		}
	}

	conflicts := len(citedOnly) + len(llmOnly)
	if conflicts == 0 {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:        model.SignalDisagreement,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("Citation check and self-check disagree on %d claim(s)", conflicts),
		Data: map[string]interface{}{
			"cited_but_rejected":   citedOnly,
			"uncited_but_accepted": llmOnly,
		},
	}, true
}
