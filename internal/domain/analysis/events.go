package analysis

import (
	"github.com/turtacn/NMReportChecker/pkg/types/common"
)

// EventAnalysisCompleted is the type of AnalysisCompletedEvent.
const EventAnalysisCompleted = "nmr.analysis.completed"

type AnalysisCompletedEvent struct {
	common.BaseEvent
	ReportHash    string   `json:"report_hash"`
	Solvent       string   `json:"solvent,omitempty"`
	FrequencyMHz  float64  `json:"frequency_mhz"`
	EntryCount    int      `json:"entry_count"`
	ImpurityCount int      `json:"impurity_count"`
	IssueCount    int      `json:"issue_count"`
	Impurities    []string `json:"impurities,omitempty"`
	ArchiveKey    string   `json:"archive_key,omitempty"`
}

func NewAnalysisCompletedEvent(r *Record) *AnalysisCompletedEvent {
	return &AnalysisCompletedEvent{
		BaseEvent:     common.NewBaseEvent(EventAnalysisCompleted, r.ID.String()),
		ReportHash:    r.ReportHash,
		Solvent:       r.Summary.Solvent,
		FrequencyMHz:  r.Summary.FrequencyMHz,
		EntryCount:    r.Summary.TotalEntries,
		ImpurityCount: r.Summary.ImpurityCount,
		IssueCount:    r.Summary.IssueCount,
		Impurities:    r.Impurities(),
		ArchiveKey:    r.ArchiveKey,
	}
}

//Personal.AI order the ending
