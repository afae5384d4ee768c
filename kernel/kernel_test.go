package kernel_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/SaxonRah/Linen/config"
	"github.com/SaxonRah/Linen/errors"
	"github.com/SaxonRah/Linen/event"
	"github.com/SaxonRah/Linen/kernel"
	"github.com/SaxonRah/Linen/persist"
	"github.com/SaxonRah/Linen/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Tick.Interval = time.Millisecond
	cfg.Persistence.Directory = t.TempDir()
	return cfg
}

func TestNewLoadsPersistenceManager(t *testing.T) {
	k, err := kernel.New(testConfig(t), nil, nil)
	require.NoError(t, err)

	_, ok := k.Registry().Get(persist.ManagerName)
	assert.True(t, ok, "persistence manager must be active after New")

	k.Registry().Teardown()
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Tick.Interval = 0

	_, err := kernel.New(cfg, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRunTicksAndTearsDown(t *testing.T) {
	k, err := kernel.New(testConfig(t), nil, nil)
	require.NoError(t, err)

	stub := testutil.NewStubComponent("ticker")
	require.NoError(t, k.Register(stub))
	require.NoError(t, k.Load("ticker"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- k.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, _, updated := stub.Counts()
		return updated > 0
	}, 2*time.Second, time.Millisecond, "component never ticked")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	_, shutdown, _ := stub.Counts()
	assert.Equal(t, 1, shutdown, "teardown must shut the component down")
}

func TestRunDrainsBusEachTick(t *testing.T) {
	k, err := kernel.New(testConfig(t), nil, nil)
	require.NoError(t, err)

	recorder := testutil.NewEventRecorder()
	require.NoError(t, k.Bus().Subscribe("ping", recorder.Handler))
	require.NoError(t, k.Bus().Publish(event.New("ping", "payload")))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- k.Run(ctx) }()

	require.Eventually(t, func() bool {
		return recorder.Count() == 1
	}, 2*time.Second, time.Millisecond, "queued event never delivered")

	cancel()
	require.NoError(t, <-done)
}

func TestSaveAndLoadGame(t *testing.T) {
	cfg := testConfig(t)

	k, err := kernel.New(cfg, nil, nil)
	require.NoError(t, err)

	progression := testutil.NewProgressionComponent()
	require.NoError(t, k.Register(progression))
	require.NoError(t, k.Load(testutil.ProgressionName))
	require.NoError(t, progression.AddSkill("strength", 42))
	progression.AddExperience(100)

	require.NoError(t, k.Persistence().RegisterForPersistence(testutil.ProgressionName))
	require.NoError(t, k.SaveGame("slot1"))

	// Extension comes from the configured format
	assert.FileExists(t, filepath.Join(cfg.Persistence.Directory, "slot1.sav"))

	restored, err := kernel.New(cfg, nil, nil)
	require.NoError(t, err)

	fresh := testutil.NewProgressionComponent()
	require.NoError(t, restored.Register(fresh))
	require.NoError(t, restored.Load(testutil.ProgressionName))
	require.NoError(t, restored.LoadGame("slot1"))

	assert.Equal(t, int32(100), fresh.Experience())
	assert.Equal(t, map[string]int32{"strength": 42}, fresh.Skills())

	k.Registry().Teardown()
	restored.Registry().Teardown()
}
