package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront_e2e/domain/entities"
)

func TestReportStore_SaveAndLoad(t *testing.T) {
	store, err := NewReportStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.LatestReport()
	assert.ErrorIs(t, err, ErrNoReports)

	started := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	first := &entities.RunReport{
		ID:        "run-1",
		BaseURL:   "https://shop.test",
		Driver:    "playwright",
		StartedAt: started,
		Results: []entities.ScenarioResult{
			{
				ScenarioID: "add-to-cart/drawer-opens",
				Status:     entities.ScenarioPassed,
				Attempts:   1,
				Outcomes: []entities.Outcome{
					{Kind: entities.OutcomeUnconfirmed, Attempt: 1, Cause: "no cart mutation response"},
					{
						Kind:      entities.OutcomeNetworkConfirmed,
						Attempt:   2,
						ClickMode: entities.ClickForced,
						Response:  &entities.NetworkResponse{URL: "https://shop.test/cart/add", Method: "POST", Status: 200},
					},
				},
			},
		},
	}
	second := &entities.RunReport{
		ID:        "run-2",
		StartedAt: started.Add(time.Hour),
		Results: []entities.ScenarioResult{
			{ScenarioID: "homepage/loads", Status: entities.ScenarioFailed, Error: "boom"},
		},
	}
	require.NoError(t, store.SaveReport(first))
	require.NoError(t, store.SaveReport(second))

	loaded, err := store.LoadReport("run-1")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.test", loaded.BaseURL)
	assert.True(t, loaded.StartedAt.Equal(started))
	assert.Equal(t, 1, loaded.Count(entities.ScenarioPassed))
	assert.Equal(t, first.Results[0].Outcomes, loaded.Results[0].Outcomes)

	latest, err := store.LatestReport()
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.ID)
	assert.True(t, latest.Failed())
}

func TestReportStore_RejectsMissingID(t *testing.T) {
	store, err := NewReportStore(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, store.SaveReport(&entities.RunReport{}))
}

func TestReportStore_SaveScreenshot(t *testing.T) {
	dir := t.TempDir()
	store, err := NewReportStore(dir)
	require.NoError(t, err)

	path, err := store.SaveScreenshot("run-1", "add-to-cart/drawer-opens", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run-1", "screenshots", "add-to-cart_drawer-opens.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}
