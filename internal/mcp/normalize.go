package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Result is the normalized outcome of one tool invocation: a single primary
// value plus zero or more attachments in the order the service returned them.
type Result struct {
	Primary     any
	Attachments []any
}

// normalizeResult shapes a raw tool response into a Result. The first
// text-bearing content item becomes the primary value; every remaining item,
// text or not, becomes an attachment in original order. A response with no
// content or no text-bearing item is structurally unexpected and rejected
// rather than guessed at.
func normalizeResult(raw *mcp.CallToolResult) (*Result, error) {
	if raw == nil || len(raw.Content) == 0 {
		return nil, fmt.Errorf("%w: empty tool response", ErrProtocol)
	}

	primaryIdx := -1
	var primary any
	for i, item := range raw.Content {
		if tc, ok := mcp.AsTextContent(item); ok {
			primary = tc.Text
			primaryIdx = i
			break
		}
	}
	if primaryIdx < 0 {
		return nil, fmt.Errorf("%w: tool response carries no text content", ErrProtocol)
	}

	var attachments []any
	for i, item := range raw.Content {
		if i == primaryIdx {
			continue
		}
		attachments = append(attachments, attachmentValue(item))
	}
	return &Result{Primary: primary, Attachments: attachments}, nil
}

// attachmentValue renders one content item as a plain value: text items as
// strings, everything else through its JSON object form so blob references
// (images, resources) keep their type and metadata.
func attachmentValue(item mcp.Content) any {
	if tc, ok := mcp.AsTextContent(item); ok {
		return tc.Text
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Sprintf("%v", item)
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	return v
}
