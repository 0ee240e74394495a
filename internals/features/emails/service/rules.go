package service

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"examstore_backend/internals/features/emails/model"
)

/* =========================================================
   Content rule evaluation
   ========================================================= */

// additionalCondition mirrors the JSON shape stored on
// EmailContentRule.AdditionalConditions.
type additionalCondition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
	Logic    string `json:"logic"` // AND | OR
}

// EvaluateRule reports whether the rule's conditions hold for the
// context. Any evaluation error yields false; missing fields resolve
// to nil and are handled by the operator.
func EvaluateRule(rule *model.EmailContentRule, ctx map[string]interface{}) bool {
	result := evaluateCondition(rule.ConditionField, rule.ConditionOperator, rule.ConditionValue, ctx)

	if len(rule.AdditionalConditions) == 0 {
		return result
	}

	var extra []additionalCondition
	if err := json.Unmarshal(rule.AdditionalConditions, &extra); err != nil {
		log.Printf("[EMAIL] rule %s: bad additional_conditions: %v", rule.RuleID, err)
		return false
	}
	for _, cond := range extra {
		next := evaluateCondition(cond.Field, cond.Operator, cond.Value, ctx)
		if strings.EqualFold(cond.Logic, "OR") {
			result = result || next
		} else {
			result = result && next
		}
	}
	return result
}

// evaluateCondition resolves the field and applies the operator.
// Fields under items.* iterate the context's items list and
// short-circuit on the first matching element.
func evaluateCondition(field, operator, value string, ctx map[string]interface{}) (matched bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[EMAIL] condition %q %s %q panicked: %v", field, operator, value, r)
			matched = false
		}
	}()

	if strings.HasPrefix(field, "items.") {
		sub := strings.TrimPrefix(field, "items.")
		items, ok := ctx["items"].([]interface{})
		if !ok {
			return applyOperator(nil, operator, value)
		}
		for _, raw := range items {
			item, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			if applyOperator(resolvePath(item, sub), operator, value) {
				return true
			}
		}
		return false
	}

	return applyOperator(resolvePath(ctx, field), operator, value)
}

// resolvePath walks a dot-path through nested maps. A missing segment
// returns nil.
func resolvePath(ctx map[string]interface{}, path string) interface{} {
	var current interface{} = ctx
	for _, seg := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return current
}

func applyOperator(actual interface{}, operator, expected string) bool {
	switch operator {
	case model.OpExists:
		return actual != nil
	case model.OpNotExists:
		return actual == nil
	}

	// Remaining operators need a value; absent fields never match
	// (and always match the negative forms).
	if actual == nil {
		return operator == model.OpNotEquals || operator == model.OpNotIn || operator == model.OpNotContains
	}

	actualStr := stringify(actual)

	switch operator {
	case model.OpEquals:
		return actualStr == expected
	case model.OpNotEquals:
		return actualStr != expected
	case model.OpIn:
		return containsValue(expected, actualStr)
	case model.OpNotIn:
		return !containsValue(expected, actualStr)
	case model.OpContains:
		return strings.Contains(actualStr, expected)
	case model.OpNotContains:
		return !strings.Contains(actualStr, expected)
	case model.OpStartsWith:
		return strings.HasPrefix(actualStr, expected)
	case model.OpEndsWith:
		return strings.HasSuffix(actualStr, expected)
	case model.OpRegexMatch:
		re, err := regexp.Compile(expected)
		if err != nil {
			return false
		}
		return re.MatchString(actualStr)
	case model.OpGreaterThan, model.OpLessThan, model.OpGTE, model.OpLTE:
		a, errA := toFloat(actual)
		b, errB := strconv.ParseFloat(strings.TrimSpace(expected), 64)
		if errA != nil || errB != nil {
			return false
		}
		switch operator {
		case model.OpGreaterThan:
			return a > b
		case model.OpLessThan:
			return a < b
		case model.OpGTE:
			return a >= b
		default:
			return a <= b
		}
	default:
		log.Printf("[EMAIL] unknown condition operator %q", operator)
		return false
	}
}

// containsValue accepts the expected value as a JSON array or a
// comma-separated list.
func containsValue(expected, needle string) bool {
	trimmed := strings.TrimSpace(expected)
	if strings.HasPrefix(trimmed, "[") {
		var list []interface{}
		if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
			for _, v := range list {
				if stringify(v) == needle {
					return true
				}
			}
			return false
		}
	}
	for _, part := range strings.Split(trimmed, ",") {
		if strings.TrimSpace(part) == needle {
			return true
		}
	}
	return false
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; keep integers clean.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, fmt.Errorf("not numeric: %T", v)
	}
}
