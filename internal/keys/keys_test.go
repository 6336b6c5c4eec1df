package keys

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDeriveDeterministic verifies identical inputs give identical locations.
func TestDeriveDeterministic(t *testing.T) {
	assert.Equal(t, Agent("agent-1"), Agent("agent-1"))
	assert.Equal(t, Bet("battle-1", "alice"), Bet("battle-1", "alice"))
	assert.Equal(t, Registry(), Derive(NamespaceRegistry))
	assert.Len(t, string(Agent("agent-1")), 64)
}

// TestDeriveSeparatesNamespaces verifies the same seed in different
// namespaces never shares a location.
func TestDeriveSeparatesNamespaces(t *testing.T) {
	assert.NotEqual(t, Agent("x"), Battle("x"))
	assert.NotEqual(t, Battle("x"), Derive(NamespaceBet, []byte("x")))
	assert.NotEqual(t, Agent("a"), Agent("b"))
}

// TestDeriveLengthPrefix verifies seed boundaries are part of the hash.
func TestDeriveLengthPrefix(t *testing.T) {
	assert.NotEqual(t, Bet("ab", "c"), Bet("a", "bc"))
	assert.NotEqual(t, Derive("bet", []byte("ab")), Derive("be", []byte("tab")))
	assert.NotEqual(t, Derive("bet"), Derive("bet", []byte{}))
}

func TestParse(t *testing.T) {
	loc := Battle("battle-1")

	parsed, err := Parse(string(loc))
	require.NoError(t, err)
	assert.Equal(t, loc, parsed)

	parsed, err = Parse(strings.ToUpper(string(loc)))
	require.NoError(t, err)
	assert.Equal(t, loc, parsed)

	_, err = Parse("abc")
	assert.Error(t, err)

	_, err = Parse(strings.Repeat("z", 64))
	assert.Error(t, err)
}

func TestShort(t *testing.T) {
	assert.Equal(t, string(Registry())[:12], Registry().Short())
	assert.Equal(t, "abc", Location("abc").Short())
}

func TestAgentRef(t *testing.T) {
	loc := Agent("agent-1")
	assert.Equal(t, loc, AgentRef(string(loc)))
	assert.Equal(t, loc, AgentRef("agent-1"))
}
