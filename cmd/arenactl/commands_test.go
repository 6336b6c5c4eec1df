package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"arena-ledger/internal/auth"
	"arena-ledger/internal/config"
	"arena-ledger/internal/db"
	"arena-ledger/internal/ledger"
	"arena-ledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inMemoryOpener shares one in-memory store across commands in a test.
func inMemoryOpener(t *testing.T) (openerFunc, *config.Config) {
	st, err := db.OpenBadgerInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	cfg := config.Default()
	cfg.JWT.Secret = "cli-secret"
	l := ledger.New(st)
	return func(string) (*ledger.Ledger, *config.Config, func(), error) {
		return l, cfg, func() {}, nil
	}, cfg
}

func execute(t *testing.T, open openerFunc, args ...string) (string, error) {
	cmd := newRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLIFlow(t *testing.T) {
	open, _ := inMemoryOpener(t)

	_, err := execute(t, open, "init", "--as", "admin")
	require.NoError(t, err)
	_, err = execute(t, open, "register", "a", "Alpha", "--as", "alice")
	require.NoError(t, err)
	_, err = execute(t, open, "register", "b", "Beta", "--as", "bob")
	require.NoError(t, err)

	out, err := execute(t, open, "battle", "b-1", "a", "b", "--winner", "defender", "--type", "speed", "--as", "ref")
	require.NoError(t, err)
	var result ledger.BattleResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, uint32(1016), result.Defender.Rating)

	_, err = execute(t, open, "bet", "b-1", "b", "--amount", "100", "--as", "carol")
	require.NoError(t, err)

	out, err = execute(t, open, "leaderboard", "--limit", "1")
	require.NoError(t, err)
	var board []ledger.LeaderboardEntry
	require.NoError(t, json.Unmarshal([]byte(out), &board))
	require.Len(t, board, 1)
	assert.Equal(t, "b", board[0].ExternalID)

	out, err = execute(t, open, "odds", "b-1")
	require.NoError(t, err)
	assert.Contains(t, out, `"0.95"`)
}

func TestCLIErrors(t *testing.T) {
	open, _ := inMemoryOpener(t)

	_, err := execute(t, open, "init")
	assert.Error(t, err)

	_, err = execute(t, open, "init", "--as", "admin")
	require.NoError(t, err)
	_, err = execute(t, open, "init", "--as", "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate_key")

	_, err = execute(t, open, "battle", "x", "a", "b", "--winner", "nobody", "--as", "ref")
	assert.Error(t, err)
}

func TestCLIToken(t *testing.T) {
	open, cfg := inMemoryOpener(t)

	out, err := execute(t, open, "token", "wallet-1")
	require.NoError(t, err)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	identity, _, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Hour).ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.Identity("wallet-1"), identity)
}
