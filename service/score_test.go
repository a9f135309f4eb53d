package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bancoagil/agentdesk/config"
)

func TestNormalizeEmployment(t *testing.T) {
	synonyms := config.DefaultEmploymentSynonyms()

	tests := []struct {
		input string
		want  Employment
		ok    bool
	}{
		{"CLT", EmploymentFormal, true},
		{"clt", EmploymentFormal, true},
		{" formal ", EmploymentFormal, true},
		{"PJ", EmploymentAutonomous, true},
		{"autonomo", EmploymentAutonomous, true},
		{"AUTÔNOMO", EmploymentAutonomous, true},
		{"desempregado", EmploymentUnemployed, true},
		{"estagiario", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeEmployment(tt.input, synonyms)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestCompute_ReferenceProfile(t *testing.T) {
	s := NewScoreService(nil)

	// 10000/(2000+1)*30 ~= 149.92, +300 formal, +100 no dependents,
	// +100 no debts, truncated to 649.
	score := s.Compute(10000, EmploymentFormal, 2000, 0, false)
	assert.Equal(t, 649, score)
}

func TestCompute_EmploymentWeights(t *testing.T) {
	s := NewScoreService(nil)

	formal := s.Compute(5000, EmploymentFormal, 1000, 0, false)
	autonomous := s.Compute(5000, EmploymentAutonomous, 1000, 0, false)
	unemployed := s.Compute(5000, EmploymentUnemployed, 1000, 0, false)

	assert.Equal(t, 100, formal-autonomous)
	assert.Equal(t, 300, formal-unemployed)
}

func TestCompute_DependentTiers(t *testing.T) {
	s := NewScoreService(nil)

	none := s.Compute(5000, EmploymentFormal, 1000, 0, false)
	one := s.Compute(5000, EmploymentFormal, 1000, 1, false)
	two := s.Compute(5000, EmploymentFormal, 1000, 2, false)
	three := s.Compute(5000, EmploymentFormal, 1000, 3, false)
	many := s.Compute(5000, EmploymentFormal, 1000, 7, false)

	assert.Equal(t, 20, none-one)
	assert.Equal(t, 40, none-two)
	assert.Equal(t, 70, none-three)
	assert.Equal(t, three, many)
}

func TestCompute_DebtsSwingTwoHundred(t *testing.T) {
	s := NewScoreService(nil)

	without := s.Compute(5000, EmploymentFormal, 1000, 0, false)
	with := s.Compute(5000, EmploymentFormal, 1000, 0, true)
	assert.Equal(t, 200, without-with)
}

func TestCompute_Clamping(t *testing.T) {
	s := NewScoreService(nil)

	// Huge income relative to expenses pushes past 1000.
	assert.Equal(t, 1000, s.Compute(1000000, EmploymentFormal, 0, 0, false))

	// Unemployed, in debt, no income cannot go below zero.
	assert.Equal(t, 0, s.Compute(0, EmploymentUnemployed, 5000, 3, true))
}

func TestCompute_ExpensesAboveIncome(t *testing.T) {
	s := NewScoreService(nil)

	// 1000/(9000+1)*30 ~= 3.3, +0 unemployed, +30 three dependents, -100 debts.
	score := s.Compute(1000, EmploymentUnemployed, 9000, 3, true)
	assert.Equal(t, 0, score)
}
