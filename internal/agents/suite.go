package agents

import "taskpilot/internal/ai"

// Suite groups the five agent families behind one constructor so the
// orchestrator receives a single dependency.
type Suite struct {
	Analyzer   *TaskAnalyzer
	Product    *ProductAgents
	Technical  *TechnicalAgents
	Quality    *QualityAgents
	Operations *OperationsAgents
}

// NewSuite builds every agent persona on the shared router.
func NewSuite(router *ai.Router) *Suite {
	return &Suite{
		Analyzer:   NewTaskAnalyzer(router),
		Product:    NewProductAgents(router),
		Technical:  NewTechnicalAgents(router),
		Quality:    NewQualityAgents(router),
		Operations: NewOperationsAgents(router),
	}
}

// Enabled reports whether all agents have a usable model backend. The
// router is shared, so one check covers the whole suite.
func (s *Suite) Enabled() bool {
	return s.Analyzer.HasCapability()
}
