package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

func TestResolveString_NoTokens(t *testing.T) {
	in := NewInterpolator()
	out, err := in.ResolveString("plain text", map[string]any{"task": "x"})
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)
}

func TestResolveString_SingleToken(t *testing.T) {
	in := NewInterpolator()
	out, err := in.ResolveString("do: ${{ task }}", map[string]any{"task": "summarize"})
	require.NoError(t, err)
	assert.Equal(t, "do: summarize", out)
}

func TestResolveString_MultipleTokens(t *testing.T) {
	in := NewInterpolator()
	scope := map[string]any{
		"task": "t",
		"node": map[string]any{"id": "n1"},
	}
	out, err := in.ResolveString("${{ node.id }}: ${{ task }}", scope)
	require.NoError(t, err)
	assert.Equal(t, "n1: t", out)
}

func TestResolveString_ExpressionLogic(t *testing.T) {
	in := NewInterpolator()
	out, err := in.ResolveString(`${{ task == "" ? "default" : task }}`, map[string]any{"task": ""})
	require.NoError(t, err)
	assert.Equal(t, "default", out)
}

func TestResolveString_NonStringValueJSONEncoded(t *testing.T) {
	in := NewInterpolator()
	out, err := in.ResolveString("tokens: ${{ limit }}", map[string]any{"limit": 1000})
	require.NoError(t, err)
	assert.Equal(t, "tokens: 1000", out)
}

func TestResolveString_UnclosedToken(t *testing.T) {
	in := NewInterpolator()
	_, err := in.ResolveString("${{ task", map[string]any{"task": "x"})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeInterpolation, schema.ErrorCode(err))
}

func TestResolveString_EmptyToken(t *testing.T) {
	in := NewInterpolator()
	_, err := in.ResolveString("${{}}", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeInterpolation, schema.ErrorCode(err))
}

func TestResolveString_NestedTokenRejected(t *testing.T) {
	in := NewInterpolator()
	_, err := in.ResolveString("${{ ${{ task }} }}", map[string]any{"task": "x"})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeInterpolation, schema.ErrorCode(err))
}

func TestResolveString_CacheReuse(t *testing.T) {
	in := NewInterpolator()
	scope := map[string]any{"task": "one"}

	out, err := in.ResolveString("${{ task }}", scope)
	require.NoError(t, err)
	assert.Equal(t, "one", out)

	// Same expression, new scope values: cached program, fresh result.
	out, err = in.ResolveString("${{ task }}", map[string]any{"task": "two"})
	require.NoError(t, err)
	assert.Equal(t, "two", out)
}
