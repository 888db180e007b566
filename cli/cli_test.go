package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nstehr/vimy/vimy-zerg/agent"
	"github.com/nstehr/vimy/vimy-zerg/config"
	"github.com/nstehr/vimy/vimy-zerg/dsl"
	"github.com/nstehr/vimy/vimy-zerg/ipc"
	"github.com/nstehr/vimy/vimy-zerg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := BuildCLI()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestBuildCLI(t *testing.T) {
	cmd := BuildCLI()

	assert.Equal(t, "vimy-zerg", cmd.Use)
	assert.Equal(t, Version, cmd.Version)

	names := make(map[string]bool)
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
		assert.NotNil(t, c.RunE, "%s should have RunE", c.Name())
	}
	assert.True(t, names["run"])
	assert.True(t, names["validate"])
	assert.True(t, names["plan"])

	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
	assert.Equal(t, "", flag.DefValue)
}

func TestValidateListsBuilds(t *testing.T) {
	out, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "STAGE")
	assert.Contains(t, out, "hatch_gas_pool")
	assert.Contains(t, out, "early_game")
}

func TestValidateDumpsEmbeddedCatalog(t *testing.T) {
	out, err := execute(t, "validate", "--dump")
	require.NoError(t, err)
	assert.Contains(t, out, `build "hatch_gas_pool"`)
	assert.NotContains(t, out, "STAGE")

	// The dump parses back into a catalog.
	path := writeTemp(t, "zerg.hcl", out)
	cat, err := dsl.NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, cat.Has("hatch_gas_pool"))
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := map[string]string{
		"bad yaml":        "agent: [",
		"unknown opening": "agent:\n  openings:\n    default: no_such_build\n",
		"bad reaction":    "reactions:\n  rules:\n    - name: x\n      when: \"(\"\n      action: publish\n      message: y\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeTemp(t, "config.yaml", body)
			_, err := execute(t, "validate", "-c", path)
			assert.Error(t, err)
		})
	}
}

func openingState() model.GameState {
	gs := model.GameState{
		Tick:          1,
		Player:        model.Player{Minerals: 50, SupplyUsed: 12, SupplyCap: 14},
		MineralFields: []model.Resource{{X: 3, Y: 0, Contents: 1800}},
		Units: []model.Unit{
			{ID: 1, Type: "Hatchery", BuildProgress: 1, Idle: true, HP: 1500, MaxHP: 1500},
			{ID: 2, Type: "Overlord", BuildProgress: 1, HP: 200, MaxHP: 200},
		},
	}
	for i := 0; i < 12; i++ {
		gs.Units = append(gs.Units, model.Unit{ID: 100 + i, Type: "Drone", BuildProgress: 1, HP: 40, MaxHP: 40})
	}
	return gs
}

func TestPlanPrintsTargets(t *testing.T) {
	data, err := json.Marshal(openingState())
	require.NoError(t, err)
	path := writeTemp(t, "state.json", string(data))

	out, err := execute(t, "plan", "-s", path, "--opening", "hatch_gas_pool")
	require.NoError(t, err)
	assert.Contains(t, out, "targets:")
	assert.Contains(t, out, "1. Drone")
	assert.NotContains(t, out, "supply override")
}

func TestPlanErrors(t *testing.T) {
	data, err := json.Marshal(openingState())
	require.NoError(t, err)
	state := writeTemp(t, "state.json", string(data))

	tests := []struct {
		name string
		args []string
	}{
		{"missing state", []string{"plan", "-s", filepath.Join(t.TempDir(), "none.json")}},
		{"unknown opening", []string{"plan", "-s", state, "--opening", "nope"}},
		{"bad stage", []string{"plan", "-s", state, "--build", "endgame=ling_bane"}},
		{"wrong stage", []string{"plan", "-s", state, "--build", "early_game=roach_hydra"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			assert.Error(t, err)
		})
	}
}

func TestServeSession(t *testing.T) {
	cfg := config.Default()
	cat, err := dsl.Default()
	require.NoError(t, err)

	sock := filepath.Join(t.TempDir(), "z.sock")
	ln, err := net.Listen("unix", sock)
	require.NoError(t, err)

	s := &server{
		deps:       agent.Deps{Config: cfg, Catalog: cat, Reactions: cfg.ReactionRules},
		strategist: agent.NewStrategist("", cfg),
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln) }()

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	env, err := ipc.NewEnvelope(ipc.TypeHello, ipc.HelloMessage{Player: "p1", Race: "Zerg", EnemyRace: "Zerg"})
	require.NoError(t, err)
	require.NoError(t, ipc.WriteEnvelope(conn, env))

	resp, err := ipc.ReadEnvelope(conn)
	require.NoError(t, err)
	require.Equal(t, ipc.TypeAck, resp.Type)
	var ack ipc.AckMessage
	require.NoError(t, resp.Decode(&ack))
	assert.Equal(t, "ok", ack.Status)
	assert.Equal(t, "pool_first", ack.Opening)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
		off     slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 1},
		{"info", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
		{"loud", slog.LevelInfo, slog.LevelDebug},
	}
	for _, tc := range tests {
		l := newLogger(tc.level, "text", &bytes.Buffer{})
		assert.True(t, l.Enabled(context.Background(), tc.enabled), tc.level)
		assert.False(t, l.Enabled(context.Background(), tc.off), tc.level)
	}

	var buf bytes.Buffer
	newLogger("info", "json", &buf).Info("hello", "k", 1)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
}
