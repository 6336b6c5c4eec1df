package audit

import (
	"bytes"
	"log"
	"os"
	"testing"

	"arena-ledger/internal/keys"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWithoutCollection(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	id := NewLogger(nil).Record(OpRegisterAgent, "owner", keys.Agent("a"), "Agent registered: Alpha")
	_, err := ulid.Parse(id)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[Ledger] Agent registered: Alpha (op=register_agent id="+id+")")
}

func TestRecordNilLogger(t *testing.T) {
	var l *Logger
	assert.NotEmpty(t, l.Record(OpPlaceBet, "bettor", keys.Bet("b", "bettor"), "Bet placed: 5 on x"))
}
