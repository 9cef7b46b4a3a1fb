package expr

import "fmt"

// Operator precedence, highest binds tightest. Comparisons are
// non-associative: chaining them without parentheses is a parse error.
func precedence(op string) int {
	switch op {
	case "!":
		return 4
	case "==", "!=", ">=", "<=", ">", "<":
		return 3
	case "&&":
		return 2
	case "||":
		return 1
	}
	return 0
}

func isComparison(op string) bool {
	return precedence(op) == 3
}

// parse converts a token stream to postfix order via shunting-yard.
func parse(toks []token) ([]token, error) {
	var out []token
	var ops []token

	expectOperand := true
	for _, t := range toks {
		switch t.kind {
		case tokNumber, tokString, tokBool, tokValue, tokPlaceholder:
			if !expectOperand {
				return nil, fmt.Errorf("unexpected operand")
			}
			out = append(out, t)
			expectOperand = false

		case tokLParen:
			if !expectOperand {
				return nil, fmt.Errorf("unexpected '('")
			}
			ops = append(ops, t)

		case tokRParen:
			if expectOperand {
				return nil, fmt.Errorf("unexpected ')'")
			}
			for {
				if len(ops) == 0 {
					return nil, fmt.Errorf("unbalanced ')'")
				}
				top := ops[len(ops)-1]
				ops = ops[:len(ops)-1]
				if top.kind == tokLParen {
					break
				}
				out = append(out, top)
			}

		case tokOp:
			if t.text == "!" {
				if !expectOperand {
					return nil, fmt.Errorf("unexpected '!'")
				}
				// Unary, right-associative: just push.
				ops = append(ops, t)
				continue
			}
			if expectOperand {
				return nil, fmt.Errorf("operator %q missing left operand", t.text)
			}
			prec := precedence(t.text)
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.kind != tokOp {
					break
				}
				topPrec := precedence(top.text)
				if isComparison(t.text) && isComparison(top.text) {
					return nil, fmt.Errorf("chained comparison requires parentheses")
				}
				if topPrec < prec {
					break
				}
				out = append(out, top)
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, t)
			expectOperand = true
		}
	}

	if expectOperand {
		return nil, fmt.Errorf("expression ends with an operator")
	}
	for len(ops) > 0 {
		top := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		if top.kind == tokLParen {
			return nil, fmt.Errorf("unbalanced '('")
		}
		out = append(out, top)
	}
	return out, nil
}
