package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aelin/pkg/config"
	"aelin/pkg/session"
)

const validDraftJSON = `{
  "dealAttributes": {"name": "Aelin Deal", "symbol": "AELD"},
  "investmentToken": {"symbol": "USDC", "address": "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", "decimals": 6},
  "dealToken": {"symbol": "DEAL", "address": "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "decimals": 18},
  "sponsorFee": "2",
  "holderAddress": "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
  "redemptionDeadline": {"days": 1},
  "dealPrivacy": "public",
  "exchangeRates": {"investmentTokenToRaise": "1000", "exchangeRates": 2},
  "vestingSchedule": {"vestingCliff": {"days": 30}, "vestingPeriod": {"days": 365}}
}`

func testConfig() config.Config {
	return config.Config{
		AppEnv:  "dev",
		Session: config.SessionConfig{Secret: "cli-secret", Issuer: "aelin", TTL: time.Hour},
	}
}

func run(t *testing.T, cfg config.Config, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(cfg, zap.NewNop())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCmdValidDraftFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.json")
	require.NoError(t, os.WriteFile(path, []byte(validDraftJSON), 0o644))

	out, err := run(t, testConfig(), "", "validate", "--chain-id", "10", path)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, out)
}

func TestValidateCmdInvalidDraftFromStdin(t *testing.T) {
	out, err := run(t, testConfig(), `{"dealAttributes":{"name":"","symbol":"TOOLONGSYM"}}`, "validate", "--chain-id", "1", "-")
	require.ErrorIs(t, err, ErrInvalidDraft)
	assert.Contains(t, out, `"dealAttributes": "No more than 7 chars"`)
	assert.Contains(t, out, `"investmentToken": true`)
}

func TestValidateCmdRequiresChain(t *testing.T) {
	_, err := run(t, testConfig(), validDraftJSON, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--chain-id")
}

func TestValidateCmdBadNumber(t *testing.T) {
	draft := strings.Replace(validDraftJSON, `"exchangeRates": 2`, `"exchangeRates": "two"`, 1)
	_, err := run(t, testConfig(), draft, "validate", "--chain-id", "10")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidDraft)
}

func TestSessionIssueCmd(t *testing.T) {
	cfg := testConfig()
	out, err := run(t, cfg, "", "session", "issue", "--address", "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359", "--chain-id", "10")
	require.NoError(t, err)

	vs, err := session.Verify(strings.TrimSpace(out), cfg.Session.Issuer, cfg.Session.Secret, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359", vs.Address)
	assert.Equal(t, int64(10), vs.ChainID)
}

func TestSessionIssueCmdRejects(t *testing.T) {
	prod := testConfig()
	prod.AppEnv = "prod"
	noSecret := testConfig()
	noSecret.Session.Secret = ""

	tests := []struct {
		name string
		cfg  config.Config
		addr string
		want string
	}{
		{name: "prod", cfg: prod, addr: "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359", want: "disabled in prod"},
		{name: "no secret", cfg: noSecret, addr: "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359", want: "SESSION_SECRET"},
		{name: "bad address", cfg: testConfig(), addr: "0x1234", want: "invalid --address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.cfg, "", "session", "issue", "--address", tt.addr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
