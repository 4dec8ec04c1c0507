package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/calc-portal/internal/dispatch"
	"github.com/bobmcallan/calc-portal/internal/registry"
	"github.com/bobmcallan/calc-portal/internal/schema"
)

// BuildMCPTool converts a tool definition into an mcp.Tool whose input schema
// mirrors the tool's request schema.
func BuildMCPTool(t *registry.ToolSpec) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(describeTool(t))}
	for _, p := range t.Parameters {
		opts = append(opts, buildParamOption(p))
	}
	if len(t.Scenarios) > 0 {
		ids := make([]string, len(t.Scenarios))
		for i, s := range t.Scenarios {
			ids[i] = s.ID
		}
		opts = append(opts, mcp.WithString(schema.ScenarioField,
			mcp.Description("Calculation scenario"),
			mcp.Enum(ids...),
		))
	}
	return mcp.NewTool(t.ID, opts...)
}

func describeTool(t *registry.ToolSpec) string {
	var b strings.Builder
	b.WriteString(t.DisplayName)
	if t.Description != "" {
		b.WriteString(". ")
		b.WriteString(strings.TrimSpace(t.Description))
	}
	if len(t.Scenarios) > 0 {
		b.WriteString("\nScenarios:")
		for _, s := range t.Scenarios {
			fmt.Fprintf(&b, "\n- %s: %s", s.ID, s.Title)
			if len(s.ParameterNames) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(s.ParameterNames, ", "))
			}
		}
	}
	return b.String()
}

// buildParamOption maps a parameter declaration to the matching mcp-go option.
func buildParamOption(p registry.ParameterSpec) mcp.ToolOption {
	var opts []mcp.PropertyOption
	desc := p.Label
	if p.Description != "" {
		desc += ": " + p.Description
	}
	if p.Unit != "" {
		desc += " [" + p.Unit + "]"
	}
	opts = append(opts, mcp.Description(desc))
	if p.Required {
		opts = append(opts, mcp.Required())
	}
	if p.Minimum != nil {
		opts = append(opts, mcp.Min(*p.Minimum))
	}
	if p.Maximum != nil {
		opts = append(opts, mcp.Max(*p.Maximum))
	}

	switch p.Type {
	case registry.TypeNumber, registry.TypeInteger:
		return mcp.WithNumber(p.Name, opts...)
	case registry.TypeBoolean:
		return mcp.WithBoolean(p.Name, opts...)
	case registry.TypeEnum:
		opts = append(opts, mcp.Enum(p.AllowedValues...))
		return mcp.WithString(p.Name, opts...)
	default:
		return mcp.WithString(p.Name, opts...)
	}
}

// ToolHandler runs a tool call through the dispatcher, so MCP callers get the
// same validation and error mapping as HTTP callers.
func ToolHandler(d *dispatch.Dispatcher, toolID string) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := r.GetArguments()
		if args == nil {
			args = map[string]interface{}{}
		}
		body, err := json.Marshal(args)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: invalid arguments: %v", err)), nil
		}

		res, err := d.Dispatch(ctx, toolID, body)
		if err != nil {
			return errorResult(fmt.Sprintf("Error (%d): %s", dispatch.Status(err), dispatch.Detail(err))), nil
		}

		out, err := json.Marshal(res)
		if err != nil {
			return errorResult("failed to marshal result"), nil
		}
		return &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(string(out))}}, nil
	}
}

// RegisterTools adds one MCP tool per definition in snap.
func RegisterTools(s *server.MCPServer, d *dispatch.Dispatcher, snap *registry.Snapshot) int {
	tools := snap.List()
	for _, t := range tools {
		s.AddTool(BuildMCPTool(t), ToolHandler(d, t.ID))
	}
	return len(tools)
}

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
