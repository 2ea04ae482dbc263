package viz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/panacea-health/trials-etl/internal/model"
	"github.com/panacea-health/trials-etl/pkg/anthropic"
)

// Narrator produces the LLM-written parts of a visualization document. Every
// method is best-effort: callers degrade to documented defaults on error.
type Narrator interface {
	ShortMetricName(ctx context.Context, name string) (string, error)
	MetricSummary(ctx context.Context, name string, groups map[string][]MetricItem) (string, error)
	ParticipantGroups(ctx context.Context, groups []model.ParticipantGroup, stats []model.ParticipantStatistic) ([]ParticipantView, error)
}

// ClaudeNarrator implements Narrator over the Anthropic client.
type ClaudeNarrator struct {
	llm       anthropic.Client
	model     string
	maxTokens int64
}

// NewClaudeNarrator builds a ClaudeNarrator for the given model.
func NewClaudeNarrator(llm anthropic.Client, model string) *ClaudeNarrator {
	return &ClaudeNarrator{llm: llm, model: model, maxTokens: 1024}
}

const narratorSystem = "You write concise, plain-language copy for healthcare " +
	"data visualizations. Follow the output format exactly."

func (n *ClaudeNarrator) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := n.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     n.model,
		MaxTokens: n.maxTokens,
		System:    narratorSystem,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(n.model, "visualize")
	return resp.Text(), nil
}

// ShortMetricName asks for a 5-7 word version of an outcome metric name.
func (n *ClaudeNarrator) ShortMetricName(ctx context.Context, name string) (string, error) {
	prompt := fmt.Sprintf(`Shorten this healthcare study metric name for a chart title.

Original metric name: %s

Instructions:
- No more than 5-7 words.
- Avoid technical jargon or redundant details.
- Keep the core meaning.

Return only the shortened name.`, name)

	out, err := n.complete(ctx, prompt)
	if err != nil {
		return "", eris.Wrap(err, "narrator: short metric name")
	}
	return strings.TrimSpace(out), nil
}

// MetricSummary asks for a 2-3 sentence summary of one metric's per-group
// results.
func (n *ClaudeNarrator) MetricSummary(ctx context.Context, name string, groups map[string][]MetricItem) (string, error) {
	data, err := json.Marshal(groups)
	if err != nil {
		return "", eris.Wrap(err, "narrator: marshal metric data")
	}
	prompt := fmt.Sprintf(`Summarize the results of a healthcare study metric.

Metric name: %s
Data:
%s

Instructions:
- Summarize in 2-3 sentences.
- Highlight key differences or trends among groups.
- Use plain language suitable for a non-technical audience.

Return the summary as plain text.`, name, data)

	out, err := n.complete(ctx, prompt)
	if err != nil {
		return "", eris.Wrap(err, "narrator: metric summary")
	}
	return strings.TrimSpace(out), nil
}

// ParticipantGroups asks for the per-group view rows (dosage and medication
// inferred from the group titles) and validates the answer as JSON.
func (n *ClaudeNarrator) ParticipantGroups(ctx context.Context, groups []model.ParticipantGroup, stats []model.ParticipantStatistic) ([]ParticipantView, error) {
	groupsJSON, err := json.Marshal(groups)
	if err != nil {
		return nil, eris.Wrap(err, "narrator: marshal participant groups")
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return nil, eris.Wrap(err, "narrator: marshal participant statistics")
	}

	prompt := fmt.Sprintf(`You are describing the participant groups of a healthcare study for a bar chart.

Participant groups:
%s

Participant statistics:
%s

For each group return:
- groupName: the title of the group.
- dosage: medication name + dosage + time period derived from the group title
  (e.g. "5mg advil 6 months"); "placebo" for a placebo group; empty when no
  drug or placebo is named.
- medicationName: the medication name; "placebo" for a placebo group; empty
  when no drug or placebo is named.
- size: the number of people in the group as an integer, when mentioned.
- description: a short description of the group.

Return a JSON array of objects, one per group, and nothing else.`, groupsJSON, statsJSON)

	out, err := n.complete(ctx, prompt)
	if err != nil {
		return nil, eris.Wrap(err, "narrator: participant groups")
	}

	var views []ParticipantView
	if err := json.Unmarshal([]byte(stripFences(out)), &views); err != nil {
		return nil, eris.Wrap(err, "narrator: parse participant groups")
	}
	return views, nil
}

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
