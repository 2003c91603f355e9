package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aryok23/garden-advisor/core"
	"github.com/Aryok23/garden-advisor/llm"
)

func TestPlanKeywordIntents(t *testing.T) {
	p := New(nil, "")

	cases := []struct {
		query  string
		intent core.Intent
		tools  []string
	}{
		{"Should I water my tomatoes today? The weather looks cloudy.", core.IntentWeather, []string{"weather"}},
		{"Remind me to water the basil every 3 days", core.IntentReminder, []string{"reminder"}},
		{"How much water do my 5 tomato plants need in liters?", core.IntentCalculation, []string{"calculator"}},
		{"How to care for an orchid indoors?", core.IntentPlantCare, nil},
	}

	for _, tc := range cases {
		plan := p.Plan(context.Background(), tc.query)
		require.NotNil(t, plan, tc.query)
		assert.Equal(t, tc.intent, plan.Intent, tc.query)
		assert.Equal(t, tc.tools, plan.Tools, tc.query)
		assert.Greater(t, plan.Complexity, 0.0, tc.query)
		assert.NotEmpty(t, plan.Rationale, tc.query)
	}
}

func TestPlanWeatherBeatsPlantCare(t *testing.T) {
	p := New(nil, "")

	// "should i water" and "plant" both appear; weather has priority.
	plan := p.Plan(context.Background(), "should i water my plant?")
	assert.Equal(t, core.IntentWeather, plan.Intent)
}

func TestPlanSearchAugmentsTools(t *testing.T) {
	p := New(nil, "")

	plan := p.Plan(context.Background(), "look up how to grow dragon fruit")
	assert.Equal(t, core.IntentPlantCare, plan.Intent)
	assert.Contains(t, plan.Tools, "search")
}

func TestPlanSearchOnly(t *testing.T) {
	p := New(nil, "")

	plan := p.Plan(context.Background(), "look up companion species for peppers")
	assert.Equal(t, core.IntentGeneral, plan.Intent)
	assert.Equal(t, []string{"search"}, plan.Tools)
}

func TestPlanModelFallback(t *testing.T) {
	mock := llm.NewMock(llm.TextMessage("weather"))
	p := New(mock, "")

	plan := p.Plan(context.Background(), "is it going to be frosty tonight?")
	assert.Equal(t, core.IntentWeather, plan.Intent)
	assert.Equal(t, []string{"weather"}, plan.Tools)
	assert.Equal(t, 1, mock.Calls())
}

func TestPlanModelFallbackGarbage(t *testing.T) {
	mock := llm.NewMock(llm.TextMessage("I think this is about horticulture"))
	p := New(mock, "")

	plan := p.Plan(context.Background(), "tell me something nice")
	assert.Equal(t, core.IntentGeneral, plan.Intent)
}

func TestPlanNeverErrorsWithoutBackend(t *testing.T) {
	p := New(nil, "")

	plan := p.Plan(context.Background(), "hello there")
	require.NotNil(t, plan)
	assert.Equal(t, core.IntentGeneral, plan.Intent)
}
