package audit

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypePrefixPattern(t *testing.T) {
	t.Run("escapes regex metacharacters", func(t *testing.T) {
		pattern, err := regexp.Compile(typePrefixPattern("ehr."))
		require.NoError(t, err)

		assert.True(t, pattern.MatchString("ehr.read"))
		assert.True(t, pattern.MatchString("ehr.write_succeeded"))
		// The dot is a literal: "ehrX" must not slip through.
		assert.False(t, pattern.MatchString("ehrXread"))
	})

	t.Run("anchors at the start", func(t *testing.T) {
		pattern := regexp.MustCompile(typePrefixPattern("circuit."))
		assert.True(t, pattern.MatchString("circuit.opened"))
		assert.False(t, pattern.MatchString("ehr.circuit.opened"))
	})

	t.Run("hostile prefix stays inert", func(t *testing.T) {
		pattern, err := regexp.Compile(typePrefixPattern("a|b(c*"))
		require.NoError(t, err)

		assert.True(t, pattern.MatchString("a|b(c*anything"))
		assert.False(t, pattern.MatchString("a"))
		assert.False(t, pattern.MatchString("bcc"))
	})
}
