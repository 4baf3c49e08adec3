// Package generation turns free-form AI generator output into question content.
package generation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/interview-kit/internal/llm"
	"github.com/jonathan/interview-kit/internal/schemas"
	"github.com/jonathan/interview-kit/internal/types"
	schemafiles "github.com/jonathan/interview-kit/schemas"
)

// CollectionKey is the property name under which the generator may wrap its question list.
const CollectionKey = "questions"

// ErrMalformedOutput is returned when the generator output matches none of the accepted shapes.
var ErrMalformedOutput = errors.New("malformed generator output")

// Result is the parsed generator output.
type Result struct {
	Questions []types.QuestionContent
	// Parsed is the number of valid items found before truncating to the expected count.
	Parsed   int
	Expected int
	// Warnings describe count mismatches and dropped items. They never abort processing.
	Warnings []string
}

// Shortfall is how many items fewer than expected were produced.
func (r *Result) Shortfall() int {
	return max(r.Expected-len(r.Questions), 0)
}

// ParseGeneratedQuestions accepts a bare array of question objects, an object holding the
// array under CollectionKey, or a single question object. Items that fail schema validation
// are dropped with a warning; if none survive the output is malformed. An explicitly empty
// list parses to zero questions. When expected > 0 the result holds at most expected items.
func ParseGeneratedQuestions(raw string, expected int) (*Result, error) {
	text, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	items, err := collectItems(doc)
	if err != nil {
		return nil, err
	}

	schema, err := schemas.Load(schemafiles.GeneratedQuestion)
	if err != nil {
		return nil, err
	}

	res := &Result{Expected: expected}
	for i, item := range items {
		if err := schema.Validate(item); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("item %d dropped: %v", i, err))
			continue
		}
		content := toContent(item.(map[string]any))
		if content.Question == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("item %d dropped: question text is blank", i))
			continue
		}
		res.Questions = append(res.Questions, content)
	}
	if len(items) > 0 && len(res.Questions) == 0 {
		return nil, fmt.Errorf("%w: no valid question in %d items", ErrMalformedOutput, len(items))
	}

	res.Parsed = len(res.Questions)
	if expected > 0 && res.Parsed != expected {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("generator returned %d questions, expected %d", res.Parsed, expected))
		if res.Parsed > expected {
			res.Questions = res.Questions[:expected]
		}
	}
	return res, nil
}

func collectItems(doc any) ([]any, error) {
	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if list, ok := v[CollectionKey]; ok {
			items, isList := list.([]any)
			if !isList {
				return nil, fmt.Errorf("%w: %q is not a list", ErrMalformedOutput, CollectionKey)
			}
			return items, nil
		}
		if _, ok := v["question"]; ok {
			return []any{v}, nil
		}
		return nil, fmt.Errorf("%w: object has neither %q nor \"question\"", ErrMalformedOutput, CollectionKey)
	default:
		return nil, fmt.Errorf("%w: unexpected %T", ErrMalformedOutput, doc)
	}
}

func toContent(m map[string]any) types.QuestionContent {
	return types.QuestionContent{
		Question:   strings.TrimSpace(asString(m["question"])),
		Answer:     strings.TrimSpace(asString(m["answer"])),
		Category:   asString(m["category"]),
		Difficulty: strings.ToLower(asString(m["difficulty"])),
		Format:     asString(m["format"]),
		IsCoding:   asBool(m["is_coding"]),
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "1":
			return true
		}
	case json.Number:
		n, err := b.Int64()
		return err == nil && n != 0
	}
	return false
}
