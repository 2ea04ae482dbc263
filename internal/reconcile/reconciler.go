package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/panacea-health/trials-etl/pkg/anthropic"
)

// Deterministic maps a fragment by direct key lookup against the schema.
// Source keys are matched after normalization, values are coerced to the
// declared kind, and everything outside the schema is discarded.
func Deterministic(schema Schema, fragment map[string]any) Mapping {
	byNorm := make(map[string]any, len(fragment))
	for k, v := range fragment {
		byNorm[normalizeKey(k)] = v
	}

	m := make(Mapping, len(schema.Fields))
	for _, f := range schema.Fields {
		raw, ok := byNorm[normalizeKey(f.Name)]
		if !ok || raw == nil {
			continue
		}
		if v, ok := coerce(f.Kind, raw); ok {
			m[f.Name] = v
		}
	}
	return m
}

// Reconciler resolves irregular fragments through the text-completion
// capability when direct lookup comes up short.
type Reconciler struct {
	llm       anthropic.Client
	model     string
	maxTokens int64
}

// NewReconciler builds a Reconciler over the given LLM client.
func NewReconciler(llm anthropic.Client, model string) *Reconciler {
	return &Reconciler{llm: llm, model: model, maxTokens: 1024}
}

const heuristicSystem = "You are a JSON-to-database mapping assistant. " +
	"You respond with a single JSON object and nothing else."

// Map reconciles a fragment against a schema. The deterministic pass runs
// first; if a required field is missing the fragment is retried through the
// heuristic pass. A nil mapping means the fragment yields no entity.
func (r *Reconciler) Map(ctx context.Context, schema Schema, fragment map[string]any, studyID string) Mapping {
	m := Deterministic(schema, fragment)
	if schema.Complete(m) {
		return m
	}
	return r.Heuristic(ctx, schema, fragment, studyID)
}

// Heuristic asks the LLM for a best-effort mapping and validates the answer
// against the schema. It fails soft: unavailable capability or unparseable
// output yields nil, never an error that aborts the study.
func (r *Reconciler) Heuristic(ctx context.Context, schema Schema, fragment map[string]any, studyID string) Mapping {
	if r == nil || r.llm == nil {
		return nil
	}

	fragmentJSON, err := json.Marshal(fragment)
	if err != nil {
		zap.L().Warn("reconcile: fragment not serializable",
			zap.String("entity", schema.Entity), zap.String("study_id", studyID))
		return nil
	}

	resp, err := r.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     r.model,
		MaxTokens: r.maxTokens,
		System:    heuristicSystem,
		Messages: []anthropic.Message{
			{Role: "user", Content: heuristicPrompt(schema, fragmentJSON)},
		},
	})
	if err != nil {
		zap.L().Warn("reconcile: heuristic mapping failed",
			zap.String("entity", schema.Entity),
			zap.String("study_id", studyID),
			zap.Error(err))
		return nil
	}
	resp.Usage.LogCost(r.model, "reconcile")

	raw := map[string]any{}
	if err := json.Unmarshal([]byte(stripFences(resp.Text())), &raw); err != nil {
		zap.L().Warn("reconcile: heuristic response unparseable",
			zap.String("entity", schema.Entity),
			zap.String("study_id", studyID),
			zap.Error(err))
		return nil
	}

	// The model answer goes through the same schema filter as any other
	// source, then loses any identifier that collides with the parent key.
	m := Deterministic(schema, raw)
	delete(m, "study_id")
	if id := m.Str("id"); id != nil && *id == studyID {
		delete(m, "id")
	}
	return m
}

func heuristicPrompt(schema Schema, fragmentJSON []byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Map the JSON fragment below onto the %s entity.\n\nFields:\n", schema.Entity)
	for _, f := range schema.Fields {
		fmt.Fprintf(&b, "- %s (%s)\n", f.Name, f.Kind)
	}
	b.WriteString(`
Rules:
- Match source fields to entity fields, allowing for naming variation
  (e.g. organSystem matches organ_system).
- Omit entity fields the fragment does not provide.
- Ignore source fields with no corresponding entity field.
- Values must match the declared type; numeric strings may become numbers.
- Respond with only the JSON object.

Fragment:
`)
	b.Write(fragmentJSON)
	return b.String()
}

// stripFences removes a markdown code fence if the model wrapped its answer
// in one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
