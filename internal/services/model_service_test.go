package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedModelConfigs(t *testing.T) ModelConfigService {
	t.Helper()
	svc := NewDbServices(testDB(t)).ModelConfigs
	require.NoError(t, svc.Startup(context.Background()))
	return svc
}

func TestModelConfigStartupSeedsCatalog(t *testing.T) {
	svc := startedModelConfigs(t)

	groups, err := svc.ListModelGroups()
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "anthropic", groups[0].ProviderID)
	assert.Equal(t, "Anthropic", groups[0].ProviderName)
	assert.NotEmpty(t, groups[0].Models)
	for _, g := range groups {
		for _, m := range g.Models {
			assert.True(t, m.Enabled, "catalog models are enabled by default")
		}
	}
}

func TestModelConfigGetModel(t *testing.T) {
	svc := startedModelConfigs(t)

	model, err := svc.GetModel("anthropic|claude-sonnet-4-5")
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5", model.APIName)
	assert.Equal(t, "anthropic", model.ProviderID)

	_, err = svc.GetModel("anthropic|unknown")
	assert.Error(t, err)
	_, err = svc.GetModel("")
	assert.Error(t, err)
}

func TestModelConfigDefaultModelFollowsCatalogOrder(t *testing.T) {
	svc := startedModelConfigs(t)

	model, err := svc.DefaultModel()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", model.ProviderID)
}

func TestModelConfigDefaultSkipsDisabledProvider(t *testing.T) {
	svc := startedModelConfigs(t)

	_, err := svc.SetProviderEnabled("anthropic", false)
	require.NoError(t, err)

	model, err := svc.DefaultModel()
	require.NoError(t, err)
	assert.Equal(t, "openai", model.ProviderID)
}

func TestModelConfigSetModelEnabledPersists(t *testing.T) {
	db := testDB(t)
	svc := NewDbServices(db).ModelConfigs
	require.NoError(t, svc.Startup(context.Background()))

	_, err := svc.SetModelEnabled("gemini|gemini-2.5-pro", false)
	require.NoError(t, err)

	// A fresh service over the same database sees the stored setting.
	again := NewDbServices(db).ModelConfigs
	require.NoError(t, again.Startup(context.Background()))
	model, err := again.GetModel("gemini|gemini-2.5-pro")
	require.NoError(t, err)
	assert.False(t, model.Enabled)
}
