package mcp

import (
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestNormalizeTextOnly(t *testing.T) {
	raw := &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "all good"}},
	}
	res, err := normalizeResult(raw)
	if err != nil {
		t.Fatalf("normalizeResult: %v", err)
	}
	if res.Primary != "all good" {
		t.Errorf("Primary = %v, want all good", res.Primary)
	}
	if len(res.Attachments) != 0 {
		t.Errorf("Attachments = %v, want none", res.Attachments)
	}
}

func TestNormalizeMixedContent(t *testing.T) {
	raw := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.ImageContent{Type: "image", Data: "aGVsbG8=", MIMEType: "image/png"},
			mcp.TextContent{Type: "text", Text: "rendered chart"},
			mcp.TextContent{Type: "text", Text: "footnote"},
			mcp.ImageContent{Type: "image", Data: "d29ybGQ=", MIMEType: "image/jpeg"},
		},
	}
	res, err := normalizeResult(raw)
	if err != nil {
		t.Fatalf("normalizeResult: %v", err)
	}

	// The first text-bearing item wins, even with a blob before it.
	if res.Primary != "rendered chart" {
		t.Errorf("Primary = %v, want rendered chart", res.Primary)
	}
	if len(res.Attachments) != 3 {
		t.Fatalf("attachments = %d, want 3", len(res.Attachments))
	}

	// Remaining items keep their original order.
	first, ok := res.Attachments[0].(map[string]any)
	if !ok {
		t.Fatalf("attachment[0] = %T, want map", res.Attachments[0])
	}
	if first["type"] != "image" || first["mimeType"] != "image/png" {
		t.Errorf("attachment[0] = %v, want the leading png", first)
	}
	if res.Attachments[1] != "footnote" {
		t.Errorf("attachment[1] = %v, want footnote", res.Attachments[1])
	}
	last, ok := res.Attachments[2].(map[string]any)
	if !ok {
		t.Fatalf("attachment[2] = %T, want map", res.Attachments[2])
	}
	if last["mimeType"] != "image/jpeg" {
		t.Errorf("attachment[2] = %v, want the trailing jpeg", last)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if _, err := normalizeResult(nil); !errors.Is(err, ErrProtocol) {
		t.Errorf("nil result error = %v, want ErrProtocol", err)
	}
	if _, err := normalizeResult(&mcp.CallToolResult{}); !errors.Is(err, ErrProtocol) {
		t.Errorf("empty content error = %v, want ErrProtocol", err)
	}
}

func TestNormalizeNoTextContent(t *testing.T) {
	raw := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.ImageContent{Type: "image", Data: "aGVsbG8=", MIMEType: "image/png"},
		},
	}
	_, err := normalizeResult(raw)
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("normalizeResult error = %v, want ErrProtocol", err)
	}
}
