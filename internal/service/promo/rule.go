package promo

import (
	"fmt"
	"sync"

	"loyalty-service/internal/domain/customer"

	"github.com/google/cel-go/cel"
)

// RuleEngine evaluates promo eligibility expressions written in CEL against
// a customer snapshot. Variables: tier (string), points (int), visits (int),
// spent (double). Compiled programs are cached per expression.
type RuleEngine struct {
	env      *cel.Env
	programs sync.Map // expression -> cel.Program
}

func NewRuleEngine() (*RuleEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("tier", cel.StringType),
		cel.Variable("points", cel.IntType),
		cel.Variable("visits", cel.IntType),
		cel.Variable("spent", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build rule environment: %w", err)
	}
	return &RuleEngine{env: env}, nil
}

// Compile checks that expr parses and yields a bool.
func (e *RuleEngine) Compile(expr string) (cel.Program, error) {
	if prg, ok := e.programs.Load(expr); ok {
		return prg.(cel.Program), nil
	}
	ast, iss := e.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("rule must evaluate to bool, got %s", ast.OutputType())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, err
	}
	e.programs.Store(expr, prg)
	return prg, nil
}

func (e *RuleEngine) Evaluate(expr string, c customer.Customer) (bool, error) {
	prg, err := e.Compile(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(map[string]any{
		"tier":   string(c.MembershipLevel),
		"points": int64(c.LoyaltyPoints),
		"visits": int64(c.TotalVisits),
		"spent":  c.TotalSpent,
	})
	if err != nil {
		return false, err
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("rule returned %T", out.Value())
	}
	return ok, nil
}
