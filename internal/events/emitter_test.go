package events

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunKeyRoundTrip(t *testing.T) {
	ctx := WithRun(context.Background(), "run-123")
	assert.Equal(t, "run-123", RunFromContext(ctx))
	assert.Equal(t, "", RunFromContext(context.Background()))

	// Blank run keys do not annotate the context.
	ctx = WithRun(context.Background(), "  ")
	assert.Equal(t, "", RunFromContext(ctx))
}

func TestCustomEmitterScopesRunKey(t *testing.T) {
	defer SetCustomEmitter(nil)

	var got RunEvent
	var gotName string
	SetCustomEmitter(func(ctx context.Context, name string, evt RunEvent) {
		gotName = name
		got = evt
	})

	ctx := WithRun(context.Background(), "run-abc")
	Emit(ctx, PipelineStage, NewInfo("flatten completed"))

	assert.Equal(t, PipelineStage, gotName)
	assert.Equal(t, "run-abc", got.RunKey)
	assert.Equal(t, EventInfo, got.Type)
	assert.Equal(t, "flatten completed", got.Message)
	assert.NotEmpty(t, got.ID)
}

func TestSetCustomEmitterNilRestoresNoop(t *testing.T) {
	called := false
	SetCustomEmitter(func(context.Context, string, RunEvent) { called = true })
	SetCustomEmitter(nil)

	Emit(context.Background(), PipelineDone, NewSuccess("done"))
	assert.False(t, called)
}

func TestLogEmitterLevels(t *testing.T) {
	defer SetCustomEmitter(nil)

	var buf bytes.Buffer
	EnableLogEmitter(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := WithRun(context.Background(), "run-xyz")
	Emit(ctx, PipelineStage, NewWarn("stage verify degraded"))
	Emit(ctx, PipelineStage, NewError("stage plan failed"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"level":"WARN"`)
	assert.Contains(t, lines[0], `"run":"run-xyz"`)
	assert.Contains(t, lines[1], `"level":"ERROR"`)
}
