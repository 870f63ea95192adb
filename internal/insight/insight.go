// Package insight formats summarization prompts for the generative-text
// collaborator and shields callers from its failures: every method returns
// usable text, substituting a static encouragement when generation fails.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vitalwatch/vitalwatch/internal/provider"
	"github.com/vitalwatch/vitalwatch/internal/store"
	"github.com/vitalwatch/vitalwatch/internal/trend"
)

// Fallback texts used when the provider is unavailable or errors.
const (
	fallbackBrief    = "Keep up the great work tracking your health data! Consistent monitoring helps maintain better health outcomes."
	fallbackDetailed = "Your consistent health tracking shows great dedication to your wellness journey. Keep monitoring your health metrics for better insights over time."
	fallbackReminder = "Friendly reminder: %s. Take care of yourself!"
)

// Requester wraps a TextProvider. A nil provider is valid and means every
// request resolves to the fallback text.
type Requester struct {
	provider provider.TextProvider
}

func NewRequester(p provider.TextProvider) *Requester {
	return &Requester{provider: p}
}

// Summary produces a brief insight for a tick's sample window.
func (r *Requester) Summary(ctx context.Context, samples []store.Sample) string {
	if len(samples) == 0 {
		return fallbackBrief
	}
	prompt := fmt.Sprintf(`Analyze the following health data and provide a brief insight:

Records: %d
Types: %s
Latest entries: %s

Provide a 2-3 sentence health insight focusing on patterns and recommendations.`,
		len(samples), categoryCounts(samples), latestEntries(samples, 3))
	return r.generate(ctx, prompt, fallbackBrief)
}

// Detailed produces the longer insight served by the on-demand endpoint.
func (r *Requester) Detailed(ctx context.Context, trends []trend.Result, days int) string {
	var lines []string
	for _, t := range trends {
		lines = append(lines, fmt.Sprintf("%s: %s (%d entries)", t.Category, t.Trend, t.Count))
	}
	prompt := fmt.Sprintf(`Provide detailed health insights based on the last %d days of data:

Trends:
%s

Provide comprehensive insights including:
1. Overall health patterns
2. Areas of improvement
3. Positive trends to continue
4. Actionable recommendations

Keep it encouraging and informative (300-400 words).`, days, strings.Join(lines, "\n"))
	return r.generate(ctx, prompt, fallbackDetailed)
}

// ReminderMessage produces a short motivational line for a due reminder.
func (r *Requester) ReminderMessage(ctx context.Context, title string) string {
	prompt := fmt.Sprintf(
		"Create a friendly, motivating reminder message for: %s. Keep it to one short sentence.", title)
	return r.generate(ctx, prompt, fmt.Sprintf(fallbackReminder, title))
}

func (r *Requester) generate(ctx context.Context, prompt, fallback string) string {
	if r.provider == nil {
		return fallback
	}
	text, err := r.provider.Generate(ctx, prompt)
	if err != nil {
		slog.Warn("Insight generation failed, using fallback", "error", err)
		return fallback
	}
	return text
}

func categoryCounts(samples []store.Sample) string {
	counts := make(map[string]int)
	var order []string
	for _, s := range samples {
		if counts[s.Category] == 0 {
			order = append(order, s.Category)
		}
		counts[s.Category]++
	}
	parts := make([]string, 0, len(order))
	for _, cat := range order {
		parts = append(parts, fmt.Sprintf("%s: %d", cat, counts[cat]))
	}
	return strings.Join(parts, ", ")
}

func latestEntries(samples []store.Sample, n int) string {
	if len(samples) < n {
		n = len(samples)
	}
	// Samples arrive oldest first; take the tail.
	var parts []string
	for _, s := range samples[len(samples)-n:] {
		parts = append(parts, fmt.Sprintf("%s: %s", s.Category, s.Value))
	}
	return strings.Join(parts, ", ")
}
