package mcp

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/forkzero/lattice/internal/node"
	"github.com/forkzero/lattice/internal/store"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	s, err := store.Init(t.TempDir(), false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	s.Warnf = func(format string, args ...any) {}
	if _, err := s.AddRequirement(store.AddOptions{Title: "Work offline", Author: "test"},
		store.RequirementOptions{Priority: node.PriorityP0}); err != nil {
		t.Fatal(err)
	}
	return NewService(s)
}

func serve(t *testing.T, svc *Service, requests ...string) []Response {
	t.Helper()
	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	var out bytes.Buffer
	if err := NewServer(svc, "test").Serve(in, &out); err != nil {
		t.Fatalf("serve: %v", err)
	}

	var responses []Response
	dec := json.NewDecoder(&out)
	for dec.More() {
		var resp Response
		if err := dec.Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		responses = append(responses, resp)
	}
	return responses
}

func TestInitializeHandshake(t *testing.T) {
	svc := setupService(t)
	responses := serve(t, svc,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test","version":"0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
	)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response (notification ignored), got %d", len(responses))
	}
	if responses[0].Error != nil {
		t.Fatalf("initialize failed: %+v", responses[0].Error)
	}

	result, _ := json.Marshal(responses[0].Result)
	var init InitializeResult
	if err := json.Unmarshal(result, &init); err != nil {
		t.Fatal(err)
	}
	if init.ServerInfo.Name != "lattice" || init.Capabilities.Tools == nil {
		t.Errorf("initialize result = %+v", init)
	}
}

func TestToolsList(t *testing.T) {
	svc := setupService(t)
	responses := serve(t, svc, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	if len(responses) != 1 || responses[0].Error != nil {
		t.Fatalf("tools/list failed: %+v", responses)
	}

	result, _ := json.Marshal(responses[0].Result)
	var list ToolsListResult
	if err := json.Unmarshal(result, &list); err != nil {
		t.Fatal(err)
	}
	names := make(map[string]bool)
	for _, tool := range list.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"lattice_summary", "lattice_get", "lattice_drift", "lattice_trace", "lattice_resolve"} {
		if !names[want] {
			t.Errorf("missing tool %s, have %v", want, names)
		}
	}
}

func TestToolsCallGet(t *testing.T) {
	svc := setupService(t)
	responses := serve(t, svc,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"lattice_get","arguments":{"id":"req-001"}}}`)
	if len(responses) != 1 || responses[0].Error != nil {
		t.Fatalf("tools/call failed: %+v", responses)
	}

	result, _ := json.Marshal(responses[0].Result)
	var tr ToolResult
	if err := json.Unmarshal(result, &tr); err != nil {
		t.Fatal(err)
	}
	if tr.IsError || len(tr.Content) != 1 {
		t.Fatalf("tool result = %+v", tr)
	}
	if !strings.Contains(tr.Content[0].Text, "Work offline") {
		t.Errorf("tool output = %s", tr.Content[0].Text)
	}
}

func TestToolsCallUnknownTool(t *testing.T) {
	svc := setupService(t)
	responses := serve(t, svc,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"lattice_nonsense"}}`)
	result, _ := json.Marshal(responses[0].Result)
	var tr ToolResult
	if err := json.Unmarshal(result, &tr); err != nil {
		t.Fatal(err)
	}
	if !tr.IsError {
		t.Error("unknown tool should produce an error result")
	}
}

func TestMethodNotFound(t *testing.T) {
	svc := setupService(t)
	responses := serve(t, svc, `{"jsonrpc":"2.0","id":5,"method":"resources/list"}`)
	if responses[0].Error == nil || responses[0].Error.Code != CodeMethodNotFound {
		t.Errorf("expected method-not-found, got %+v", responses[0])
	}
}

func TestParseError(t *testing.T) {
	svc := setupService(t)
	responses := serve(t, svc, `this is not json`)
	if responses[0].Error == nil || responses[0].Error.Code != CodeParseError {
		t.Errorf("expected parse error, got %+v", responses[0])
	}
}

func TestExecuteToolResolve(t *testing.T) {
	svc := setupService(t)
	out, err := svc.ExecuteTool("lattice_resolve", map[string]any{
		"id": "req-001", "state": "verified", "note": "shipped",
	})
	if err != nil {
		t.Fatalf("resolve tool: %v", err)
	}
	if !strings.Contains(out, `"verified"`) {
		t.Errorf("resolve output = %s", out)
	}
}

func TestExecuteToolTrace(t *testing.T) {
	svc := setupService(t)
	if _, err := svc.store.AddImplementation(store.AddOptions{Title: "engine", Author: "test"},
		node.ImplementationMeta{}, []string{"req-001"}); err != nil {
		t.Fatal(err)
	}
	out, err := svc.ExecuteTool("lattice_trace", map[string]any{
		"id": "imp-001", "direction": "down", "depth": float64(2),
	})
	if err != nil {
		t.Fatalf("trace tool: %v", err)
	}
	if !strings.Contains(out, "req-001") {
		t.Errorf("trace output = %s", out)
	}
	if _, err := svc.ExecuteTool("lattice_trace", map[string]any{"id": "imp-001", "depth": float64(-1)}); err == nil {
		t.Error("negative depth should fail")
	}
}

func TestExecuteToolMissingArg(t *testing.T) {
	svc := setupService(t)
	if _, err := svc.ExecuteTool("lattice_get", map[string]any{}); err == nil {
		t.Error("missing id should fail")
	}
}
