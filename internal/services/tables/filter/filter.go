// Package filter parses AIP-160 table filters into SQL conditions.
package filter

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// TableDeclarations returns the identifiers a table filter may reference.
func TableDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("id", filtering.TypeString),
		filtering.DeclareIdent("name", filtering.TypeString),
		filtering.DeclareIdent("kind", filtering.TypeString),
		filtering.DeclareIdent("formula", filtering.TypeString),
		filtering.DeclareIdent("replacement", filtering.TypeBool),
		filtering.DeclareIdent("updated_at", filtering.TypeTimestamp),
	)
}

// SQLCondition is a WHERE clause fragment with positional parameters.
type SQLCondition struct {
	Clause string
	Params []any
}

// Empty reports whether the condition matches everything.
func (c SQLCondition) Empty() bool {
	return strings.TrimSpace(c.Clause) == ""
}

var columns = map[string]string{
	"id":          "id",
	"name":        "name",
	"kind":        "kind",
	"formula":     "formula",
	"replacement": "replacement",
	"updated_at":  "updated_at",
}

var operators = map[string]string{
	"_==_": "=", "=": "=",
	"_!=_": "!=", "!=": "!=",
	"_<_": "<", "<": "<",
	"_<=_": "<=", "<=": "<=",
	"_>_": ">", ">": ">",
	"_>=_": ">=", ">=": ">=",
}

// ParseTableFilter translates filterStr into a SQL condition over the
// roll_tables columns. An empty filter yields an empty condition.
func ParseTableFilter(filterStr string) (SQLCondition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return SQLCondition{}, nil
	}

	decls, err := TableDeclarations()
	if err != nil {
		return SQLCondition{}, fmt.Errorf("create declarations: %w", err)
	}

	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("parse filter: %w", err)
	}

	return translateExpr(parsed.CheckedExpr.Expr)
}

func translateExpr(e *expr.Expr) (SQLCondition, error) {
	if e == nil {
		return SQLCondition{}, nil
	}
	call, ok := e.ExprKind.(*expr.Expr_CallExpr)
	if !ok {
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", e.ExprKind)
	}
	return translateCall(call.CallExpr)
}

func translateCall(call *expr.Expr_Call) (SQLCondition, error) {
	switch call.Function {
	case "_&&_", "AND":
		return translateJunction(call.Args, "AND")
	case "_||_", "OR":
		return translateJunction(call.Args, "OR")
	case "NOT", "_!_":
		if len(call.Args) != 1 {
			return SQLCondition{}, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := translateExpr(call.Args[0])
		if err != nil {
			return SQLCondition{}, err
		}
		return SQLCondition{Clause: "NOT (" + inner.Clause + ")", Params: inner.Params}, nil
	}
	if op, ok := operators[call.Function]; ok {
		return translateComparison(call.Args, op)
	}
	return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.Function)
}

func translateJunction(args []*expr.Expr, junction string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("%s requires 2 arguments", junction)
	}
	left, err := translateExpr(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	right, err := translateExpr(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, junction, right.Clause),
		Params: append(left.Params, right.Params...),
	}, nil
}

func translateComparison(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}

	ident, ok := args[0].GetExprKind().(*expr.Expr_IdentExpr)
	if !ok {
		return SQLCondition{}, fmt.Errorf("expected identifier, got %T", args[0].GetExprKind())
	}
	field := ident.IdentExpr.GetName()
	column, ok := columns[field]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unknown field: %s", field)
	}

	value, err := extractValue(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	if field == "kind" {
		if s, ok := value.(string); ok {
			value = strings.ToLower(s)
		}
	}

	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value},
	}, nil
}

func extractValue(e *expr.Expr) (any, error) {
	switch kind := e.GetExprKind().(type) {
	case *expr.Expr_ConstExpr:
		return extractConstValue(kind.ConstExpr)
	case *expr.Expr_IdentExpr:
		// true and false arrive as identifiers.
		switch kind.IdentExpr.GetName() {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("unexpected identifier %s in value position", kind.IdentExpr.GetName())
	case *expr.Expr_CallExpr:
		if kind.CallExpr.Function == "timestamp" && len(kind.CallExpr.Args) == 1 {
			return extractTimestampMillis(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func extractConstValue(c *expr.Constant) (any, error) {
	switch kind := c.GetConstantKind().(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return kind.Uint64Value, nil
	case *expr.Constant_DoubleValue:
		return kind.DoubleValue, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

// extractTimestampMillis returns the instant as Unix milliseconds, the
// representation roll_tables.updated_at uses.
func extractTimestampMillis(e *expr.Expr) (int64, error) {
	c, ok := e.GetExprKind().(*expr.Expr_ConstExpr)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a constant string")
	}
	s, ok := c.ConstExpr.GetConstantKind().(*expr.Constant_StringValue)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a string")
	}
	t, err := time.Parse(time.RFC3339Nano, s.StringValue)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp format: %s", s.StringValue)
	}
	return t.UTC().UnixMilli(), nil
}
