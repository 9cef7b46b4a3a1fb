package expr

import "fmt"

// Evaluate parses and evaluates a boolean expression against the given
// environment. It is total for well-formed expressions; malformed ones
// return an error, which callers treat as a false match after logging.
func Evaluate(src string, env Env) (bool, error) {
	toks, err := tokenize(src)
	if err != nil {
		return false, fmt.Errorf("tokenize %q: %w", src, err)
	}
	postfix, err := parse(toks)
	if err != nil {
		return false, fmt.Errorf("parse %q: %w", src, err)
	}
	v, err := evalPostfix(postfix, env)
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", src, err)
	}
	return Truthy(v), nil
}

// evalPostfix runs the stack machine over a postfix token stream.
func evalPostfix(postfix []token, env Env) (any, error) {
	var stack []any
	push := func(v any) { stack = append(stack, v) }
	pop := func() (any, error) {
		if len(stack) == 0 {
			return nil, fmt.Errorf("operand stack underflow")
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}

	for _, t := range postfix {
		switch t.kind {
		case tokNumber:
			push(t.num)
		case tokString:
			push(t.text)
		case tokBool:
			push(t.b)
		case tokValue:
			push(env.Value)
		case tokPlaceholder:
			v, err := ResolveSpec(t.text, env)
			if err != nil {
				return nil, err
			}
			push(v)

		case tokOp:
			if t.text == "!" {
				v, err := pop()
				if err != nil {
					return nil, err
				}
				push(!Truthy(v))
				continue
			}
			right, err := pop()
			if err != nil {
				return nil, err
			}
			left, err := pop()
			if err != nil {
				return nil, err
			}
			switch t.text {
			case "==":
				push(Equal(left, right))
			case "!=":
				push(!Equal(left, right))
			case ">":
				push(Compare(left, right) > 0)
			case ">=":
				push(Compare(left, right) >= 0)
			case "<":
				push(Compare(left, right) < 0)
			case "<=":
				push(Compare(left, right) <= 0)
			case "&&":
				push(Truthy(left) && Truthy(right))
			case "||":
				push(Truthy(left) || Truthy(right))
			default:
				return nil, fmt.Errorf("unknown operator %q", t.text)
			}
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("expression leaves %d values on the stack", len(stack))
	}
	return stack[0], nil
}
