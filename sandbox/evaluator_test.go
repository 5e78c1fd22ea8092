package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_OutputVariable(t *testing.T) {
	ev := NewEvaluator()

	res := ev.Evaluate(context.Background(), "out = 1 + 1", nil)
	require.Nil(t, res.Err)
	assert.Equal(t, int64(2), res.Output)
	assert.Empty(t, res.Stdout)
	assert.GreaterOrEqual(t, res.Elapsed, time.Duration(0))
}

func TestEvaluate_OutputAbsent(t *testing.T) {
	ev := NewEvaluator()

	res := ev.Evaluate(context.Background(), "x = 5", nil)
	require.Nil(t, res.Err)
	assert.Nil(t, res.Output)
}

func TestEvaluate_CapturesPrint(t *testing.T) {
	ev := NewEvaluator()

	res := ev.Evaluate(context.Background(), `print("hi")`, nil)
	require.Nil(t, res.Err)
	assert.Equal(t, "hi\n", res.Stdout)
	assert.Nil(t, res.Output)
}

func TestEvaluate_RuntimeErrorIsData(t *testing.T) {
	ev := NewEvaluator()

	res := ev.Evaluate(context.Background(), `fail("x")`, nil)
	require.NotNil(t, res.Err)
	assert.Equal(t, ErrKindRuntime, res.Err.Kind)
	assert.Contains(t, res.Err.Message, "x")
	assert.NotEmpty(t, res.Err.Trace)
	assert.Nil(t, res.Output)
}

func TestEvaluate_SyntaxError(t *testing.T) {
	ev := NewEvaluator()

	res := ev.Evaluate(context.Background(), "out = (", nil)
	require.NotNil(t, res.Err)
	assert.Equal(t, ErrKindSyntax, res.Err.Kind)
}

func TestEvaluate_ContextValues(t *testing.T) {
	ev := NewEvaluator()

	env := map[string]any{
		"base":   40,
		"extra":  2.5,
		"name":   "relay",
		"nums":   []any{1, 2, 3},
		"lookup": map[string]any{"a": 1},
	}

	res := ev.Evaluate(context.Background(), "out = base + len(nums) + lookup['a']", env)
	require.Nil(t, res.Err)
	assert.Equal(t, int64(44), res.Output)

	res = ev.Evaluate(context.Background(), "out = name + '!'", env)
	require.Nil(t, res.Err)
	assert.Equal(t, "relay!", res.Output)
}

func TestEvaluate_Timeout(t *testing.T) {
	ev := NewEvaluator(func(o *Options) { o.Timeout = 50 * time.Millisecond })

	res := ev.Evaluate(context.Background(), "while True:\n    x = 1", nil)
	require.NotNil(t, res.Err)
	assert.Equal(t, ErrKindTimeout, res.Err.Kind)
}

func TestEvaluate_BadContextValue(t *testing.T) {
	ev := NewEvaluator()

	res := ev.Evaluate(context.Background(), "out = 1", map[string]any{"ch": make(chan int)})
	require.NotNil(t, res.Err)
	assert.Equal(t, ErrKindInternal, res.Err.Kind)
}

func TestEvaluate_FreshNamespacePerCall(t *testing.T) {
	ev := NewEvaluator()

	res := ev.Evaluate(context.Background(), "leak = 7", nil)
	require.Nil(t, res.Err)

	res = ev.Evaluate(context.Background(), "out = leak", nil)
	require.NotNil(t, res.Err)
}
