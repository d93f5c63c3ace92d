// ABOUTME: Integration tests for the moody CLI.
// ABOUTME: Builds the binary and drives a full logging workflow against a temp database.
package test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestFullWorkflow(t *testing.T) {
	// Build the binary
	projectRoot, _ := filepath.Abs("..")
	moodyBinary := filepath.Join(projectRoot, "moody")

	buildCmd := exec.Command("go", "build", "-o", moodyBinary, "./cmd/moody")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}
	defer os.Remove(moodyBinary)

	// Use temp database and config
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	run := func(args ...string) (string, error) {
		fullArgs := append([]string{"--db", dbPath, "--owner", "integration"}, args...)
		cmd := exec.Command(moodyBinary, fullArgs...)
		cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+tmpDir, "NO_COLOR=1")
		output, err := cmd.CombinedOutput()
		return string(output), err
	}

	output, err := run("init")
	if err != nil {
		t.Fatalf("Failed to init: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Tracking 2 default metric(s)") {
		t.Errorf("Expected default tracking in output, got: %s", output)
	}

	// Log a vibe and a measurement
	output, err = run("add", "mood=happy", "sleep duration=7.5", "--comment", "rested")
	if err != nil {
		t.Fatalf("Failed to add entry: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Logged 2 value(s)") {
		t.Errorf("Expected 'Logged 2 value(s)' in output, got: %s", output)
	}

	// Fill the rest from baselines
	output, err = run("add", "exercised=yes", "--fill")
	if err != nil {
		t.Fatalf("Failed to add filled entry: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Logged 3 value(s)") {
		t.Errorf("Expected 'Logged 3 value(s)' in output, got: %s", output)
	}

	// Rejected values leave nothing behind
	output, err = run("add", "mood=ecstatic")
	if err == nil {
		t.Errorf("Expected unknown label to fail, got: %s", output)
	}

	output, err = run("list")
	if err != nil {
		t.Fatalf("Failed to list: %v\n%s", err, output)
	}
	for _, want := range []string{"Mood=Happy", "Sleep Duration=7.5", "Exercised=Happened", "rested"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in list output, got: %s", want, output)
		}
	}

	output, err = run("metric", "create", "Energy", "--type", "continuous", "--min", "1", "--max", "10", "--track")
	if err != nil {
		t.Fatalf("Failed to create metric: %v\n%s", err, output)
	}

	output, err = run("metric", "list")
	if err != nil {
		t.Fatalf("Failed to list metrics: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Energy") || !strings.Contains(output, "System metrics") {
		t.Errorf("Expected Energy and system metrics in output, got: %s", output)
	}

	output, err = run("stats")
	if err != nil {
		t.Fatalf("Failed to get stats: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Mood") {
		t.Errorf("Expected 'Mood' in stats output, got: %s", output)
	}

	output, err = run("export", "markdown")
	if err != nil {
		t.Fatalf("Failed to export: %v\n%s", err, output)
	}
	if !strings.Contains(output, "| rested |") {
		t.Errorf("Expected comment in markdown export, got: %s", output)
	}
}
