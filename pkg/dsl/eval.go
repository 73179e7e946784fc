package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/carprice/core"
	"github.com/rushteam/carprice/pkg/conv"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量和函数
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("record", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Compile 编译单个表达式，要求返回布尔值。
//
// 表达式语法（CEL 标准语法），记录以 record 变量访问：
//   - 数值：record.km_driven >= 0.0
//   - 存在性：!has(record.seats) || record.seats in [2.0, 4.0, 5.0]
//   - 字符串：record.name.startsWith("Land")
func Compile(expr string) (cel.Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("expression must return boolean, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	return prg, nil
}

// Evaluate 编译并执行表达式，返回布尔结果。需要反复执行时应使用 RuleSet。
func Evaluate(expr string, record core.Record) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return eval(prg, record)
}

func eval(prg cel.Program, record core.Record) (bool, error) {
	out, _, err := prg.Eval(map[string]any{"record": buildInput(record)})
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 的输入：能解析为数字的取值统一转为 double，
// 这样 5、5.0 和 "5" 在表达式里表现一致。
func buildInput(record core.Record) map[string]any {
	input := make(map[string]any, len(record))
	for k, v := range record {
		switch tv := v.(type) {
		case nil:
			continue
		case bool:
			input[k] = tv
		default:
			if f, ok := conv.ToFloat64(v); ok {
				input[k] = f
			} else {
				input[k] = conv.CanonicalString(v)
			}
		}
	}
	return input
}
