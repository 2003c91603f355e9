package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Help describes what the advisor can do.
func (a *Advisor) Help() string {
	return strings.TrimSpace(`I'm your garden advisor. Ask me anything about plant care, for example:
- "How often should I water my basil?"
- "Should I water my tomatoes today?" (I'll check the weather)
- "Remind me to water the roses every 3 days"
- "How much water do 5 tomato plants need?"

Commands:
- help: this message
- my plants: the plants I've heard you mention
- my reminders: your active watering reminders
- clear history: forget our recent conversation
- weather <city>: current conditions and watering advice`)
}

// Plants lists the plants mentioned across the user's past conversations.
func (a *Advisor) Plants(ctx context.Context, userID string) (string, error) {
	if a.deps.Memory == nil {
		return "I don't have long-term memory enabled, so I can't track your plants yet.", nil
	}
	plants, err := a.deps.Memory.PlantsFor(ctx, userID)
	if err != nil {
		return "", errors.Wrap(err, "list plants")
	}
	if len(plants) == 0 {
		return "You haven't told me about any plants yet. What are you growing?", nil
	}
	return fmt.Sprintf("Plants you've mentioned: %s", strings.Join(plants, ", ")), nil
}

// Reminders lists the user's active watering reminders.
func (a *Advisor) Reminders(ctx context.Context, userID string) (string, error) {
	if a.deps.Reminders == nil {
		return "Reminders aren't set up on this instance.", nil
	}
	reminders, err := a.deps.Reminders.ListActive(ctx, userID)
	if err != nil {
		return "", errors.Wrap(err, "list reminders")
	}
	if len(reminders) == 0 {
		return "You have no active reminders. Ask me to set one!", nil
	}

	var b strings.Builder
	b.WriteString("Your active reminders:\n")
	for _, rem := range reminders {
		fmt.Fprintf(&b, "- water %s every %d day(s)\n", rem.Plant, rem.IntervalDays)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// ClearHistory drops the user's short-term window and long-term memories.
func (a *Advisor) ClearHistory(ctx context.Context, userID string) error {
	lock := a.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	a.deps.Window.Clear(userID)
	if a.deps.Memory != nil {
		if err := a.deps.Memory.Forget(ctx, userID); err != nil {
			return errors.Wrap(err, "forget long-term memory")
		}
	}
	return nil
}

// WeatherLookup fetches current conditions and watering advice directly,
// bypassing the reasoning loop.
func (a *Advisor) WeatherLookup(ctx context.Context, location string) (string, error) {
	if a.deps.Weather == nil {
		return "Weather lookups aren't set up on this instance.", nil
	}
	report, err := a.deps.Weather.Lookup(ctx, location)
	if err != nil {
		return "", errors.Wrap(err, "weather lookup")
	}
	return report.Summary(), nil
}
