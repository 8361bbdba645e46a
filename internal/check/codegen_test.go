package check

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSourceLayout(t *testing.T) {
	tc := newTest()
	tc.Points = 5

	body, err := Rewrite("CHECK(1 + 1 == 2);", tc)
	require.NoError(t, err)
	src := GenerateSource(tc, []string{`#include "student.hpp"`}, body)

	// Ordering: includes, helpers, header, runner function, file-scope object.
	helperPos := strings.Index(src, "TypeNameRegistry")
	headerPos := strings.Index(src, `#include "student.hpp"`)
	runPos := strings.Index(src, "void RunChecks(std::ostream & _emperfect_out)")
	objPos := strings.Index(src, "Runner runner_instance;")
	require.True(t, helperPos > 0)
	require.True(t, headerPos > helperPos)
	require.True(t, runPos > headerPos)
	require.True(t, objPos > runPos)

	assert.Contains(t, src, `std::ofstream results(".emperfect/Test0-result.txt");`)
	assert.Contains(t, src, `results << "SCORE " << (all_passed ? 5 : 0.0) << "\n";`)
	assert.NotContains(t, src, "std::exit(0);")
}

func TestGenerateSourceSkipMain(t *testing.T) {
	tc := newTest()
	tc.CallMain = false

	src := GenerateSource(tc, nil, "")
	assert.Contains(t, src, "std::exit(0);")
}

func TestGenerateSourceTypeRegistry(t *testing.T) {
	tc := newTest()
	src := GenerateSource(tc, nil, "")

	for _, name := range []string{
		`"bool"`, `"char"`, `"float"`, `"double"`,
		`"int8_t"`, `"int16_t"`, `"int32_t"`, `"int64_t"`,
		`"uint8_t"`, `"uint16_t"`, `"uint32_t"`, `"uint64_t"`,
		`"size_t"`, `"std::string"`,
	} {
		assert.Contains(t, src, name)
	}

	// Qualifier suffixes and the aggregate spellings.
	assert.Contains(t, src, `" const"`)
	assert.Contains(t, src, `" &"`)
	assert.Contains(t, src, `"vector<"`)
	// Function types enumerate up to six arguments inline.
	assert.Contains(t, src, "struct TypeName<R(A1, A2, A3, A4, A5, A6)>")
}
