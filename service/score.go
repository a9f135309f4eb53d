package service

import (
	"strings"

	"github.com/bancoagil/agentdesk/logging"
)

// Employment is the canonical employment type used by the score formula.
type Employment string

const (
	EmploymentFormal     Employment = "formal"
	EmploymentAutonomous Employment = "autonomo"
	EmploymentUnemployed Employment = "desempregado"
)

// NormalizeEmployment maps free-form input (CLT, PJ, accents, mixed case)
// to a canonical Employment using the provided synonym table. The table maps
// UPPER-CASED input to the canonical value strings.
func NormalizeEmployment(raw string, synonyms map[string]string) (Employment, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	canonical, ok := synonyms[key]
	if !ok {
		return "", false
	}
	switch Employment(canonical) {
	case EmploymentFormal, EmploymentAutonomous, EmploymentUnemployed:
		return Employment(canonical), true
	}
	return "", false
}

// Score formula weights. The income component is income/(expenses+1) scaled
// by incomeWeight; the rest are flat contributions.
const incomeWeight = 30

var employmentWeight = map[Employment]int{
	EmploymentFormal:     300,
	EmploymentAutonomous: 200,
	EmploymentUnemployed: 0,
}

var dependentsWeight = map[int]int{
	0: 100,
	1: 80,
	2: 60,
	3: 30,
}

// ScoreService computes a 0..1000 credit score from interview answers.
type ScoreService struct {
	logger logging.Logger
}

// NewScoreService creates a score calculator.
func NewScoreService(logger logging.Logger) *ScoreService {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &ScoreService{logger: logger}
}

// Compute derives the score. Dependents at 3 or above share the lowest tier;
// the result is clamped to [0, 1000].
func (s *ScoreService) Compute(income float64, employment Employment, expenses float64, dependents int, hasDebts bool) int {
	if expenses > income {
		s.logger.Warn("expenses exceed income, score will be very low",
			"income", income, "expenses", expenses)
	}

	incomeComponent := income / (expenses + 1) * incomeWeight
	employmentComponent := employmentWeight[employment]

	depKey := dependents
	if depKey >= 3 {
		depKey = 3
	}
	dependentsComponent, ok := dependentsWeight[depKey]
	if !ok {
		dependentsComponent = 30
	}

	debtsComponent := 100
	if hasDebts {
		debtsComponent = -100
	}

	score := int(incomeComponent + float64(employmentComponent+dependentsComponent+debtsComponent))

	s.logger.Debug("score computed",
		"income", income, "employment", string(employment),
		"expenses", expenses, "dependents", dependents, "has_debts", hasDebts,
		"score", score)

	if score < 0 {
		return 0
	}
	if score > 1000 {
		return 1000
	}
	return score
}
