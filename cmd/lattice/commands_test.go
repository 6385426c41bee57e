package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/forkzero/lattice/internal/store"
)

// TestRootCommand tests that the root command is properly configured
func TestRootCommand(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd should not be nil")
	}
	if rootCmd.Use != "lattice" {
		t.Errorf("expected Use 'lattice', got %q", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("Short description should not be empty")
	}
}

func TestCommandWiring(t *testing.T) {
	wanted := []string{
		"init", "add", "list", "get", "search", "trace", "drift",
		"plan", "resolve", "verify", "refine", "summary", "lint",
		"export", "mcp", "update",
	}
	have := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range wanted {
		if !have[name] {
			t.Errorf("command %s not registered", name)
		}
	}
	if !addCmd.HasSubCommands() {
		t.Error("add should have subcommands")
	}
}

func TestCatalog(t *testing.T) {
	infos := catalog(rootCmd)
	if len(infos) == 0 {
		t.Fatal("catalog should not be empty")
	}
	byName := make(map[string]commandInfo)
	for _, info := range infos {
		byName[info.Name] = info
	}
	drift, ok := byName["drift"]
	if !ok {
		t.Fatal("drift missing from catalog")
	}
	foundCheck := false
	for _, f := range drift.Flags {
		if f.Name == "check" {
			foundCheck = true
		}
	}
	if !foundCheck {
		t.Error("drift --check missing from catalog")
	}
	if add, ok := byName["add"]; !ok || len(add.Subcommands) != 4 {
		t.Errorf("add subcommands = %+v", byName["add"].Subcommands)
	}
	exp, ok := byName["export"]
	if !ok {
		t.Fatal("export missing from catalog")
	}
	foundFormat := false
	for _, f := range exp.Flags {
		if f.Name == "format" && f.Default == "narrative" {
			foundFormat = true
		}
	}
	if !foundFormat {
		t.Error("export --format (default narrative) missing from catalog")
	}
}

func TestInitAndAddFlow(t *testing.T) {
	t.Chdir(t.TempDir())

	run := func(args ...string) {
		t.Helper()
		rootCmd.SetArgs(args)
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("lattice %v: %v", args, err)
		}
	}

	run("init")
	if _, err := os.Stat(filepath.Join(".", store.LatticeDir, "requirements")); err != nil {
		t.Fatalf("workspace not scaffolded: %v", err)
	}

	run("add", "requirement", "Work offline", "--priority", "P0")

	s, err := store.Open(".")
	if err != nil {
		t.Fatal(err)
	}
	n, err := s.Get("req-001")
	if err != nil {
		t.Fatalf("created requirement not readable: %v", err)
	}
	if n.Title != "Work offline" {
		t.Errorf("title = %q", n.Title)
	}

	run("summary")
	run("drift")
	run("plan")
}

func TestConfigAuthorAttribution(t *testing.T) {
	t.Chdir(t.TempDir())

	run := func(args ...string) {
		t.Helper()
		rootCmd.SetArgs(args)
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("lattice %v: %v", args, err)
		}
	}

	run("init")
	cfg := []byte("version: 1\nauthor: Config Author <cfg@example.com>\n")
	if err := os.WriteFile(filepath.Join(store.LatticeDir, store.ConfigFile), cfg, 0644); err != nil {
		t.Fatal(err)
	}

	run("add", "requirement", "Attributed work", "--priority", "P1")
	run("resolve", "req-001", "wontfix", "--note", "cut")

	s, err := store.Open(".")
	if err != nil {
		t.Fatal(err)
	}
	n, err := s.Get("req-001")
	if err != nil {
		t.Fatal(err)
	}
	if n.CreatedBy != "Config Author <cfg@example.com>" {
		t.Errorf("created_by = %q, want config author", n.CreatedBy)
	}
	if n.Resolution == nil || n.Resolution.ResolvedBy != "Config Author <cfg@example.com>" {
		t.Errorf("resolution = %+v, want config author attribution", n.Resolution)
	}
}

func TestConfigDefaultFormat(t *testing.T) {
	t.Chdir(t.TempDir())

	rootCmd.SetArgs([]string{"init"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	cfg := []byte("version: 1\ndefault_format: json\n")
	if err := os.WriteFile(filepath.Join(store.LatticeDir, store.ConfigFile), cfg, 0644); err != nil {
		t.Fatal(err)
	}

	outputFormat = "text"
	defer func() { outputFormat = "text" }()
	rootCmd.SetArgs([]string{"summary"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if outputFormat != "json" {
		t.Errorf("output format = %q, want json from workspace config", outputFormat)
	}
}

func TestCommandsOutsideWorkspaceFail(t *testing.T) {
	t.Chdir(t.TempDir())
	rootCmd.SetArgs([]string{"list"})
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	defer func() {
		rootCmd.SilenceErrors = false
		rootCmd.SilenceUsage = false
	}()
	if err := rootCmd.Execute(); err == nil {
		t.Error("list outside a workspace should fail")
	}
}
