package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Server speaks line-delimited JSON-RPC over a reader/writer pair,
// normally stdin/stdout.
type Server struct {
	service *Service
	version string
}

// NewServer builds a server around a tool service.
func NewServer(service *Service, version string) *Server {
	return &Server{service: service, version: version}
}

// Serve processes requests until the reader is exhausted. Protocol
// errors produce error responses; they never stop the loop.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			if err := enc.Encode(errorResponse(nil, CodeParseError, "parse error: "+err.Error())); err != nil {
				return fmt.Errorf("writing response: %w", err)
			}
			continue
		}

		resp, reply := s.handle(&req)
		if !reply {
			continue
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading requests: %w", err)
	}
	return nil
}

func (s *Server) handle(req *Request) (Response, bool) {
	if req.IsNotification() {
		// notifications/initialized and friends need no reply
		return Response{}, false
	}

	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
			ServerInfo:      Info{Name: "lattice", Version: s.version},
		}), true

	case "tools/list":
		return resultResponse(req.ID, ToolsListResult{Tools: s.service.ToolDefinitions()}), true

	case "tools/call":
		var params ToolsCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, CodeInvalidParams, "invalid params: "+err.Error()), true
		}
		text, err := s.service.ExecuteTool(params.Name, params.Arguments)
		if err != nil {
			return resultResponse(req.ID, errResult(err)), true
		}
		return resultResponse(req.ID, textResult(text)), true

	case "ping":
		return resultResponse(req.ID, struct{}{}), true
	}

	return errorResponse(req.ID, CodeMethodNotFound, "method not found: "+req.Method), true
}
