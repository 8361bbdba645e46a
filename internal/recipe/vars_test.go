package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercere99/emperfect/pkg/cerr"
)

func TestNewVarsSeeds(t *testing.T) {
	vars := NewVars()
	assert.Equal(t, Vars{
		"dir":   ".emperfect",
		"debug": "false",
		"log":   "Log.txt",
	}, vars)
}

func TestLoadVars(t *testing.T) {
	vars := NewVars()

	keys, err := vars.Load(`dir="work", points=10`)
	require.NoError(t, err)
	assert.Equal(t, []string{"dir", "points"}, keys)
	assert.Equal(t, "work", vars["dir"])
	assert.Equal(t, "10", vars["points"])
}

func TestLoadVarsQuotedComma(t *testing.T) {
	vars := NewVars()

	_, err := vars.Load(`k="v, w"`)
	require.NoError(t, err)

	// The round-trip property: the stored value comes back byte for byte.
	out, err := vars.Apply("${k}")
	require.NoError(t, err)
	assert.Equal(t, "v, w", out)
}

func TestLoadVarsErrors(t *testing.T) {
	vars := NewVars()

	_, err := vars.Load("novalue")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.Parse))

	_, err = vars.Load(`k="unterminated`)
	require.Error(t, err)
}

func TestApplyVars(t *testing.T) {
	vars := NewVars()
	vars.Set("name", "Test1")

	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"${name}", "Test1"},
		{"pre ${name} post", "pre Test1 post"},
		{"${NAME}", "Test1"}, // names are lowercased before lookup
		{"${name}${name}", "Test1Test1"},
	}
	for _, tt := range tests {
		out, err := vars.Apply(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, out, tt.in)
	}
}

func TestApplyVarsErrors(t *testing.T) {
	vars := NewVars()

	_, err := vars.Apply("${missing}")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.Parse))
	assert.Contains(t, err.Error(), "missing")

	_, err = vars.Apply("${unterminated")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.Parse))
}

func TestParseArgs(t *testing.T) {
	pairs, err := ParseArgs(`name="My Test", points=5, hidden=true`)
	require.NoError(t, err)
	assert.Equal(t, []KV{
		{Key: "name", Value: "My Test"},
		{Key: "points", Value: "5"},
		{Key: "hidden", Value: "true"},
	}, pairs)
}

func TestParseArgsEmpty(t *testing.T) {
	pairs, err := ParseArgs("")
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestParseArgsEscapedQuote(t *testing.T) {
	pairs, err := ParseArgs(`msg="say \"hi\", twice"`)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, `say "hi", twice`, pairs[0].Value)
}
