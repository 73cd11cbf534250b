package persona

// Score weights
const (
	HealthWeight     = 0.3
	CompletionWeight = 0.3
	CallTypeBonus    = 25.0
	SegmentBonus     = 20.0
	DepartmentBonus  = 15.0
	LanguageBonus    = 10.0
	VIPBonus         = 30.0
)

// Score computes how well p fits cc. Ineligible personas score 0.
func Score(p Persona, cc CallContext) float64 {
	if !p.Eligible() {
		return 0
	}

	score := HealthWeight*p.Health.Overall + CompletionWeight*p.Analytics.CompletionRate

	if contains(p.Context.CallTypes, cc.CallType) {
		score += CallTypeBonus
	}
	if contains(p.Context.CustomerSegments, cc.CustomerSegment) {
		score += SegmentBonus
	}
	if contains(p.Context.Departments, cc.Department) {
		score += DepartmentBonus
	}
	if contains(p.Context.Languages, cc.Language) {
		score += LanguageBonus
	}
	if cc.IsVIP && p.HasUseCase(UseCaseVIPCalls) {
		score += VIPBonus
	}

	if score < 0 {
		return 0
	}
	return score
}
