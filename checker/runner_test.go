package checker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunnerEmptyCommand(t *testing.T) {
	r := NewRunner(nil, t.TempDir(), testLogger())
	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCommand)
}

func TestRunnerSpawnFailure(t *testing.T) {
	r := NewRunner([]string{"definitely-not-a-real-binary-43b1"}, t.TempDir(), testLogger())
	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrSpawn)
}

func TestRunnerCollectsRecords(t *testing.T) {
	script := `printf '%s\n' '{"reason":"compiler-artifact","target":{"name":"x"}}'
printf '%s\n' '{"reason":"compiler-message","message":{"level":"warning","message":"unused variable","spans":[{"file_name":"src/lib.rs","is_primary":true,"line_start":1,"line_end":1,"column_start":1,"column_end":2}]}}'
printf '%s\n' 'not json at all'`

	r := NewRunner([]string{"sh", "-c", script}, t.TempDir(), testLogger())
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Records, 1)
	assert.Equal(t, "src/lib.rs", report.Records[0].File)
	assert.Equal(t, "unused variable", report.Records[0].Message)
	assert.NoError(t, report.ExitErr)
}

func TestRunnerNonZeroExitKeepsRecords(t *testing.T) {
	// cargo exits non-zero when the build has errors; the records collected
	// before exit are still the result of the run.
	script := `printf '%s\n' '{"reason":"compiler-message","message":{"level":"error","message":"broken","spans":[{"file_name":"src/main.rs","is_primary":true,"line_start":2,"line_end":2,"column_start":1,"column_end":5}]}}'
exit 101`

	r := NewRunner([]string{"sh", "-c", script}, t.TempDir(), testLogger())
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Records, 1)
	assert.Equal(t, "broken", report.Records[0].Message)
	assert.Error(t, report.ExitErr)
}

func TestRunnerStderrDoesNotBlock(t *testing.T) {
	r := NewRunner([]string{"sh", "-c", "echo 'progress noise' >&2"}, t.TempDir(), testLogger())
	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Records)
}

func TestRunnerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner([]string{"sh", "-c", "sleep 30"}, t.TempDir(), testLogger())

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(ctx)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled run did not return")
	}
}

func TestEnsureMessageFormat(t *testing.T) {
	tests := []struct {
		name    string
		command []string
		want    []string
	}{
		{
			"cargo gains the flag",
			[]string{"cargo", "check", "-q"},
			[]string{"cargo", "check", "-q", "--message-format=json"},
		},
		{
			"cargo with flag untouched",
			[]string{"cargo", "check", "--message-format=json"},
			[]string{"cargo", "check", "--message-format=json"},
		},
		{
			"absolute cargo path recognized",
			[]string{"/usr/bin/cargo", "check"},
			[]string{"/usr/bin/cargo", "check", "--message-format=json"},
		},
		{
			"non-cargo checker untouched",
			[]string{"sh", "-c", "my-linter"},
			[]string{"sh", "-c", "my-linter"},
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ensureMessageFormat(tt.command), tt.name)
	}
}
