package dsl

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/carprice/core"
)

// Rule 是一条输入校验规则：Expr 为 false 时记录被拒绝。
type Rule struct {
	Name    string `yaml:"name" json:"name"`
	Field   string `yaml:"field" json:"field"`
	Expr    string `yaml:"expr" json:"expr"`
	Message string `yaml:"message" json:"message"`
}

type compiledRule struct {
	Rule
	prg cel.Program
}

// RuleSet 是编译好的规则集合，可被并发使用。
type RuleSet struct {
	rules []compiledRule
}

// NewRuleSet 编译全部规则，任一规则编译失败即返回错误。
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	rs := &RuleSet{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		prg, err := Compile(r.Expr)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		rs.rules = append(rs.rules, compiledRule{Rule: r, prg: prg})
	}
	return rs, nil
}

// Len 返回规则数量。
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Validate 依次执行规则，返回第一条未通过规则对应的 INVALID_INPUT 错误。
// 表达式执行出错（例如字段类型不符）同样视为未通过。
func (rs *RuleSet) Validate(record core.Record) error {
	if rs == nil {
		return nil
	}
	for _, r := range rs.rules {
		ok, err := eval(r.prg, record)
		if err != nil {
			return core.NewInvalidInputError(r.Field, "rule %q: %v", r.Name, err)
		}
		if !ok {
			msg := r.Message
			if msg == "" {
				msg = fmt.Sprintf("rule %q not satisfied", r.Name)
			}
			return core.NewInvalidInputError(r.Field, "%s", msg)
		}
	}
	return nil
}

// DefaultRules 是默认的合理性校验：数值特征非负，座位数为正。
// 字段缺失时规则放行，由编码器报告 MISSING_FEATURE。
func DefaultRules() []Rule {
	nonNegative := func(field string) Rule {
		return Rule{
			Name:    field + "_non_negative",
			Field:   field,
			Expr:    fmt.Sprintf("!has(record.%s) || type(record.%s) != double || record.%s >= 0.0", field, field, field),
			Message: field + " must not be negative",
		}
	}
	return []Rule{
		nonNegative("km_driven"),
		nonNegative("mileage"),
		nonNegative("engine"),
		nonNegative("max_power"),
		nonNegative("torque"),
		nonNegative("max_torque_rpm"),
		{
			Name:    "seats_positive",
			Field:   "seats",
			Expr:    "!has(record.seats) || type(record.seats) != double || record.seats > 0.0",
			Message: "seats must be positive",
		},
	}
}
