package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/flowbit/intake-triage/internal/core/domain"
)

// Evaluate resolves the condition's dot-path against the context and applies
// the operator. Missing paths and incomparable values make the condition
// false, never an error.
func Evaluate(condition domain.Condition, context map[string]any) bool {
	value, ok := resolvePath(context, condition.Field)
	if !ok {
		return false
	}
	switch condition.Operator {
	case "eq":
		return equal(value, condition.Value)
	case "neq":
		return !equal(value, condition.Value)
	case "gt":
		left, lok := toNumber(value)
		right, rok := toNumber(condition.Value)
		return lok && rok && left > right
	case "lt":
		left, lok := toNumber(value)
		right, rok := toNumber(condition.Value)
		return lok && rok && left < right
	case "contains":
		return containsValue(value, condition.Value)
	case "regex":
		pattern, isString := condition.Value.(string)
		if !isString {
			return false
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(asString(value))
	default:
		return false
	}
}

// EvaluateAll is the conjunction over all conditions; an empty list is true.
func EvaluateAll(conditions []domain.Condition, context map[string]any) bool {
	for _, condition := range conditions {
		if !Evaluate(condition, context) {
			return false
		}
	}
	return true
}

func resolvePath(context map[string]any, path string) (any, bool) {
	current := any(context)
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func equal(left, right any) bool {
	if l, lok := toNumber(left); lok {
		if r, rok := toNumber(right); rok {
			return l == r
		}
	}
	return asString(left) == asString(right)
}

func containsValue(haystack, needle any) bool {
	target := asString(needle)
	switch h := haystack.(type) {
	case string:
		return strings.Contains(h, target)
	case []any:
		for _, element := range h {
			if asString(element) == target || strings.Contains(asString(element), target) {
				return true
			}
		}
		return false
	case []string:
		for _, element := range h {
			if element == target || strings.Contains(element, target) {
				return true
			}
		}
		return false
	default:
		return strings.Contains(asString(haystack), target)
	}
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case *float64:
		if v == nil {
			return 0, false
		}
		return *v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", value)
	}
}
