package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesSpansToFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "spans.jsonl")

	require.NoError(t, Init(
		WithService("taskora", "0.0.1"),
		WithOutputPath(fname),
	))

	ctx, span := Start(context.Background(), "execute", Internal)
	span.Annotate("item.id", "item-1")
	span.End(nil)
	_ = ctx

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestNilSpanIsSafe(t *testing.T) {
	var span *Span
	assert.NotPanics(t, func() {
		span.Annotate("k", "v")
		span.End(nil)
	})
}
