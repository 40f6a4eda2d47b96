package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"phoenix/pkg/phoenix"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	orig := stdout
	stdout = buf
	t.Cleanup(func() {
		stdout = orig
	})
	return buf
}

func TestRunCommandFileStoreEndToEnd(t *testing.T) {
	workdir := t.TempDir()
	root := filepath.Join(workdir, "checkpoints")
	artifactsDir := filepath.Join(workdir, "artifacts")
	metricsPath := filepath.Join(workdir, "phoenix.prom")

	out := captureStdout(t)
	err := run(context.Background(), []string{
		"run",
		"--store", "file",
		"--root", root,
		"--pop", "4",
		"--genome-len", "3",
		"--gens", "2",
		"--seed", "5",
		"--artifacts-dir", artifactsDir,
		"--metrics-out", metricsPath,
		"--log-level", "error",
	})
	if err != nil {
		t.Fatalf("run command: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"gen  0 |",
		"gen  2 |",
		"checkpoint saved: demo_gen_0",
		"checkpoint saved: demo_gen_1",
		"recovered checkpoint demo_gen_0 | generation counter still = 2 | pop=4",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "demo_gen_0.population.json")); err != nil {
		t.Fatalf("expected checkpoint file: %v", err)
	}
	metricsData, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(metricsData), "phoenix_checkpoint_operations_total") {
		t.Fatalf("expected checkpoint metrics, got:\n%s", metricsData)
	}

	out.Reset()
	if err := run(context.Background(), []string{"checkpoints", "--root", root, "--log-level", "error"}); err != nil {
		t.Fatalf("checkpoints command: %v", err)
	}
	if got := strings.Fields(out.String()); len(got) != 2 || got[0] != "demo_gen_0" || got[1] != "demo_gen_1" {
		t.Fatalf("unexpected checkpoint listing: %q", out.String())
	}

	out.Reset()
	if err := run(context.Background(), []string{"inspect", "--root", root, "--id", "demo_gen_0", "--log-level", "error"}); err != nil {
		t.Fatalf("inspect command: %v", err)
	}
	if !strings.HasPrefix(out.String(), "checkpoint=demo_gen_0 size=4 genome_len=3") {
		t.Fatalf("unexpected inspect output: %q", out.String())
	}
	if !strings.Contains(out.String(), "rank=1 ") {
		t.Fatalf("expected leaderboard in inspect output: %q", out.String())
	}

	out.Reset()
	if err := run(context.Background(), []string{"runs", "--artifacts-dir", artifactsDir, "--root", root, "--log-level", "error"}); err != nil {
		t.Fatalf("runs command: %v", err)
	}
	if !strings.Contains(out.String(), "run_id=demo-5") {
		t.Fatalf("expected indexed run, got %q", out.String())
	}
}

func TestRunCommandReadsConfigAndEnvFile(t *testing.T) {
	workdir := t.TempDir()
	configPath := filepath.Join(workdir, "phoenix.ini")
	envPath := filepath.Join(workdir, ".env")

	if err := os.WriteFile(configPath, []byte("[engine]\npopulation = 7\ngenome_length = 2\n\n[storage]\nkind = memory\n\n[run]\ngenerations = 3\nlog_level = error\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(envPath, []byte("PHOENIX_ENGINE_POPULATION=3\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Unsetenv("PHOENIX_ENGINE_POPULATION")
	})

	out := captureStdout(t)
	if err := run(context.Background(), []string{"run", "--config", configPath, "--env-file", envPath, "--json"}); err != nil {
		t.Fatalf("run command: %v", err)
	}

	var summary phoenix.RunSummary
	if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out.String())
	}
	if summary.Recovered.Size != 3 {
		t.Fatalf("expected env override population 3, got %d", summary.Recovered.Size)
	}
	if summary.Recovered.GenomeLength != 2 {
		t.Fatalf("expected genome length 2 from config, got %d", summary.Recovered.GenomeLength)
	}
	if len(summary.History) != 4 {
		t.Fatalf("expected 4 history entries, got %d", len(summary.History))
	}
}

func TestMutatorsCommand(t *testing.T) {
	out := captureStdout(t)
	if err := run(context.Background(), []string{"mutators"}); err != nil {
		t.Fatalf("mutators command: %v", err)
	}
	if got := strings.Fields(out.String()); len(got) < 2 || got[0] != "gaussian" || got[1] != "none" {
		t.Fatalf("unexpected mutators: %q", out.String())
	}
}

func TestCommandErrors(t *testing.T) {
	captureStdout(t)
	cases := map[string][]string{
		"missing command": nil,
		"unknown command": {"bogus"},
		"inspect no id":   {"inspect", "--store", "memory"},
		"bad log level":   {"checkpoints", "--store", "memory", "--log-level", "loud"},
		"bad store":       {"checkpoints", "--store", "tape"},
		"bad rate":        {"run", "--store", "memory", "--rate", "1.5"},
		"zero gens":       {"run", "--store", "memory", "--gens", "0"},
		"bad mutator":     {"run", "--store", "memory", "--mutator", "cosmic", "--log-level", "error"},
		"missing inspect": {"inspect", "--store", "memory", "--id", "nope", "--log-level", "error"},
		"bad runs limit":  {"runs", "--limit", "0"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if err := run(context.Background(), args); err == nil {
				t.Fatalf("expected error for %v", args)
			}
		})
	}
}
