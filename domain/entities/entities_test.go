package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawerPredicates(t *testing.T) {
	tests := []struct {
		name  string
		class string
		open  bool
		ready bool
	}{
		{"closed", "drawer", false, false},
		{"opening only", "drawer opening", false, false},
		{"animating", "drawer opening animate", true, false},
		{"active while opening", "drawer opening active", true, false},
		{"settled", "drawer animate active", true, true},
		{"active only", "active", true, true},
		{"empty", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classes := ParseClassList(tt.class)
			assert.Equal(t, tt.open, IsDrawerOpen(classes))
			assert.Equal(t, tt.ready, IsDrawerReady(classes))
		})
	}
}

func TestClassList(t *testing.T) {
	c := ParseClassList("  b a\tc a ")
	assert.True(t, c.Has("a"))
	assert.False(t, c.Has("d"))
	assert.Equal(t, "a b c", c.String())

	var zero ClassList
	assert.False(t, zero.Has("a"))
	assert.Equal(t, "", zero.String())
	assert.False(t, IsDrawerOpen(zero))
}

func TestRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 3, p.Attempts())
	assert.Equal(t, ClickNormal, p.ClickModeFor(0))
	assert.Equal(t, ClickForced, p.ClickModeFor(1))
	assert.Equal(t, ClickForced, p.ClickModeFor(2))

	assert.Equal(t, 1, RetryPolicy{}.Attempts())
	assert.Equal(t, 1, RetryPolicy{MaxAttempts: -2}.Attempts())

	never := RetryPolicy{MaxAttempts: 2, ForceFrom: -1}
	assert.Equal(t, ClickNormal, never.ClickModeFor(5))
}

func TestOutcomeJSON(t *testing.T) {
	in := []Outcome{
		{Kind: OutcomeUnconfirmed, Attempt: 0, ClickMode: ClickNormal, Cause: "timeout"},
		{Kind: OutcomeNetworkConfirmed, Attempt: 1, ClickMode: ClickForced,
			Response: &NetworkResponse{URL: "https://shop.test/cart/add.js", Method: "POST", Status: 200}},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"network_confirmed"`)
	assert.Contains(t, string(data), `"click_mode":"forced"`)

	var out []Outcome
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	var k OutcomeKind
	assert.Error(t, k.UnmarshalText([]byte("maybe")))
	var m ClickMode
	assert.Error(t, m.UnmarshalText([]byte("gentle")))
}

func TestOutcomeString(t *testing.T) {
	o := Outcome{Kind: OutcomeDOMConfirmed, Attempt: 2, ClickMode: ClickForced}
	assert.True(t, o.Confirmed())
	assert.Equal(t, "attempt 2 (forced): dom_confirmed", o.String())

	o = Outcome{Attempt: 0, Cause: "no drawer"}
	assert.False(t, o.Confirmed())
	assert.Equal(t, "attempt 0 (normal): unconfirmed: no drawer", o.String())
}

func TestRunReportCounts(t *testing.T) {
	r := &RunReport{Results: []ScenarioResult{
		{ScenarioID: "a", Status: ScenarioPassed, Duration: time.Second},
		{ScenarioID: "b", Status: ScenarioFailed},
		{ScenarioID: "c", Status: ScenarioPassed},
	}}
	assert.Equal(t, 2, r.Count(ScenarioPassed))
	assert.True(t, r.Failed())

	r.Results[1].Status = ScenarioSkipped
	assert.False(t, r.Failed())
}

func TestPageAuditMissing(t *testing.T) {
	loc := CSS("#x")
	p := PageAudit{Entries: []AuditEntry{
		{Set: "found", Matched: &loc, Count: 1},
		{Set: "lost"},
	}}
	assert.Equal(t, []string{"lost"}, p.Missing())
}

func TestLocatorString(t *testing.T) {
	assert.Equal(t, "#x", CSS("#x").String())
	assert.Equal(t, "a:text(/shop/i)", Text("a", "shop").String())
	set := NewSelectorSet("nav", CSS("nav a"), Text("a", "blog"))
	assert.Equal(t, "nav[nav a, a:text(/blog/i)]", set.String())
	assert.True(t, CSSSet("none").Empty())
}
