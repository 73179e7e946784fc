package dsl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rushteam/carprice/core"
)

func TestEvaluate(t *testing.T) {
	record := core.Record{
		"year":      2020,
		"km_driven": "40000",
		"seats":     5.0,
		"name":      "Land Rover",
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"", true},
		{"record.year >= 2000.0", true},
		{"record.km_driven < 10000.0", false},
		{"record.seats in [2.0, 4.0, 5.0]", true},
		{`record.name.startsWith("Land")`, true},
		{"!has(record.owner)", true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr, record)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := Evaluate("record.year +", record)
	require.Error(t, err)
	_, err = Evaluate("record.year", record)
	require.Error(t, err)
}

func TestRuleSet_DefaultRules(t *testing.T) {
	rs, err := NewRuleSet(DefaultRules())
	require.NoError(t, err)
	require.Equal(t, 7, rs.Len())

	require.NoError(t, rs.Validate(core.Record{"km_driven": 0, "seats": 2, "engine": "1200"}))
	require.NoError(t, rs.Validate(core.Record{}))
	// 非数字交给编码器报告 INVALID_FEATURE_VALUE
	require.NoError(t, rs.Validate(core.Record{"km_driven": "много"}))

	err = rs.Validate(core.Record{"km_driven": -5})
	require.True(t, errors.Is(err, core.ErrInvalidInput))
	de := core.GetDomainError(err)
	require.Equal(t, "km_driven", de.Field)
	require.Contains(t, de.Message, "km_driven must not be negative")

	err = rs.Validate(core.Record{"seats": 0})
	require.True(t, errors.Is(err, core.ErrInvalidInput))
}

func TestNewRuleSet_CompileError(t *testing.T) {
	_, err := NewRuleSet([]Rule{{Name: "broken", Expr: "record.year >"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), `rule "broken"`)

	var nilSet *RuleSet
	require.NoError(t, nilSet.Validate(core.Record{"km_driven": -1}))
}
