// internal/llmclient/convert.go
package llmclient

import (
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/xkilldash9x/vistest/api/schemas"
)

const (
	roleUser  = "user"
	roleModel = "model"

	screenshotMIME = "image/jpeg"
)

// -- Tool declarations --

var schemaTypes = map[string]genai.Type{
	"object":  genai.TypeObject,
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
}

// toFunctionDeclarations maps the provider neutral tool specs onto a single
// genai tool.
func toFunctionDeclarations(specs []schemas.ToolSpec) ([]*genai.Tool, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		params, err := toSchema(spec.Parameters)
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", spec.Name, err)
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  params,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}, nil
}

// toSchema converts a JSON schema fragment (type, description, enum,
// properties, required, items) into a genai.Schema.
func toSchema(raw map[string]any) (*genai.Schema, error) {
	if raw == nil {
		return nil, nil
	}
	typeName, _ := raw["type"].(string)
	typ, ok := schemaTypes[typeName]
	if !ok {
		return nil, fmt.Errorf("unsupported schema type %q", typeName)
	}

	s := &genai.Schema{Type: typ}
	if desc, ok := raw["description"].(string); ok {
		s.Description = desc
	}
	if enum, ok := raw["enum"]; ok {
		values, err := stringList(enum)
		if err != nil {
			return nil, fmt.Errorf("enum: %w", err)
		}
		s.Enum = values
	}
	if required, ok := raw["required"]; ok {
		values, err := stringList(required)
		if err != nil {
			return nil, fmt.Errorf("required: %w", err)
		}
		s.Required = values
	}
	if props, ok := raw["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			pm, ok := p.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("property %q is not an object", name)
			}
			ps, err := toSchema(pm)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", name, err)
			}
			s.Properties[name] = ps
		}
	}
	if items, ok := raw["items"].(map[string]any); ok {
		is, err := toSchema(items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		s.Items = is
	}
	return s, nil
}

func stringList(v any) ([]string, error) {
	switch vals := v.(type) {
	case []string:
		return vals, nil
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}
}

// -- Transcript --

// toContents renders the transcript as alternating user and model contents.
// Tool entries from the same turn become one model content holding the
// function calls, answered by one user content holding the responses and any
// screenshots they produced.
func toContents(entries []schemas.TranscriptEntry) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(entries))
	for i := 0; i < len(entries); {
		entry := entries[i]
		if entry.Role != schemas.RoleTool {
			contents = append(contents, userContent(entry))
			i++
			continue
		}

		j := i + 1
		for j < len(entries) && entries[j].Role == schemas.RoleTool && entries[j].Turn == entry.Turn {
			j++
		}
		call, reply, err := toolExchange(entries[i:j])
		if err != nil {
			return nil, err
		}
		contents = append(contents, call, reply)
		i = j
	}
	return contents, nil
}

func userContent(entry schemas.TranscriptEntry) *genai.Content {
	parts := []*genai.Part{{Text: entry.Text}}
	if len(entry.Image) > 0 {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: screenshotMIME, Data: entry.Image}})
	}
	return &genai.Content{Role: roleUser, Parts: parts}
}

func toolExchange(group []schemas.TranscriptEntry) (*genai.Content, *genai.Content, error) {
	call := &genai.Content{Role: roleModel}
	reply := &genai.Content{Role: roleUser}
	var images []*genai.Part

	for _, entry := range group {
		if entry.Call == nil {
			return nil, nil, fmt.Errorf("tool entry without a call")
		}
		if entry.ModelText != "" {
			call.Parts = append(call.Parts, &genai.Part{Text: entry.ModelText})
		}
		call.Parts = append(call.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{
			ID:   entry.Call.ID,
			Name: entry.Call.Name,
			Args: entry.Call.Args,
		}})

		response, image, err := toolResponse(entry)
		if err != nil {
			return nil, nil, fmt.Errorf("tool %q: %w", entry.Call.Name, err)
		}
		reply.Parts = append(reply.Parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
			ID:       entry.Call.ID,
			Name:     entry.Call.Name,
			Response: response,
		}})
		if image != nil {
			images = append(images, &genai.Part{InlineData: &genai.Blob{MIMEType: screenshotMIME, Data: image}})
		}
	}
	reply.Parts = append(reply.Parts, images...)
	return call, reply, nil
}

// toolResponse builds the function response payload. Failures go under
// "error" so the model can tell them apart from results.
func toolResponse(entry schemas.TranscriptEntry) (map[string]any, []byte, error) {
	out := entry.Outcome
	switch {
	case out == nil:
		return map[string]any{"output": entry.Text}, nil, nil
	case out.IsFailure():
		return map[string]any{"error": out.Failure}, nil, nil
	}

	response := map[string]any{"success": out.Result.Success}
	if out.Result.Message != "" {
		response["output"] = out.Result.Message
	}
	if !out.HasImage() {
		return response, nil, nil
	}
	image, err := base64.StdEncoding.DecodeString(out.Result.Image)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding screenshot: %w", err)
	}
	response["screenshot"] = "attached"
	return response, image, nil
}

// -- Responses --

var blockedReasons = map[genai.FinishReason]bool{
	genai.FinishReasonSafety:            true,
	genai.FinishReasonBlocklist:         true,
	genai.FinishReasonProhibitedContent: true,
}

// errBlocked marks a response the provider refused to produce. It is not retried.
type errBlocked struct {
	reason genai.FinishReason
}

func (e *errBlocked) Error() string {
	return fmt.Sprintf("gemini API blocked the response (reason: %s)", e.reason)
}

// fromResponse extracts tool calls and text from the first candidate.
// Thought parts are dropped.
func fromResponse(resp *genai.GenerateContentResponse) (*schemas.ModelTurn, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini API returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		if blockedReasons[candidate.FinishReason] {
			return nil, &errBlocked{reason: candidate.FinishReason}
		}
		return &schemas.ModelTurn{}, nil
	}

	turn := &schemas.ModelTurn{}
	var text []string
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		if part.FunctionCall != nil {
			turn.ToolCalls = append(turn.ToolCalls, schemas.ToolCall{
				ID:   part.FunctionCall.ID,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
			continue
		}
		if t := strings.TrimSpace(part.Text); t != "" {
			text = append(text, t)
		}
	}
	turn.Text = strings.Join(text, "\n")
	return turn, nil
}
