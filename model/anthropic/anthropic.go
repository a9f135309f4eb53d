// Package anthropic runs agent tasks against the Anthropic Messages API,
// including the tool-use loop for the desk's tools.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/bancoagil/agentdesk/agent"
	"github.com/bancoagil/agentdesk/logging"
	"github.com/bancoagil/agentdesk/model"
	"github.com/bancoagil/agentdesk/tool"
)

// Options configure the Anthropic executor.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	Logger      logging.Logger
}

// Executor drives a tool-use loop over the Anthropic Messages API.
type Executor struct {
	client *anthropic.Client
	opts   Options
}

// NewExecutor creates an executor using the official client; the API key
// falls back to ANTHROPIC_API_KEY when not set in options.
func NewExecutor(optFns ...func(o *Options)) *Executor {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.3,
		MaxTokens:   4096,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Executor{client: &client, opts: opts}
}

// NewExecutorFromClient creates an executor from an existing client.
func NewExecutorFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Executor {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.3,
		MaxTokens:   4096,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{client: client, opts: opts}
}

// Execute runs the task to completion, answering tool_use blocks until the
// model stops asking for tools or the iteration budget runs out.
func (e *Executor) Execute(ctx context.Context, task agent.Task) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       e.opts.Model,
		MaxTokens:   e.opts.MaxTokens,
		Temperature: anthropic.Float(e.opts.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: task.Instructions},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(task.Prompt)),
		},
		Tools: toolDefinitions(task.Tools),
	}

	tc := tool.NewContext(ctx, task.Session, task.AgentID, e.opts.Logger)

	maxIterations := task.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 10
	}

	for i := 0; i < maxIterations; i++ {
		resp, err := e.client.Messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("anthropic api error: %w", err)
		}

		var text strings.Builder
		var assistantBlocks []anthropic.ContentBlockParamUnion
		var resultBlocks []anthropic.ContentBlockParamUnion

		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				textBlock := block.AsText()
				text.WriteString(textBlock.Text)
				if textBlock.Text != "" {
					assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(textBlock.Text))
				}
			case "tool_use":
				toolBlock := block.AsToolUse()
				args := ""
				if toolBlock.Input != nil {
					if raw, err := json.Marshal(toolBlock.Input); err == nil {
						args = string(raw)
					}
				}
				e.opts.Logger.Debug("dispatching tool call",
					"agent", task.AgentID, "tool", toolBlock.Name)
				result := model.Dispatch(tc, task.Tools, toolBlock.Name, args)

				assistantBlocks = append(assistantBlocks, anthropic.NewToolUseBlock(
					toolBlock.ID, toolBlock.Input, toolBlock.Name))
				resultBlocks = append(resultBlocks, anthropic.NewToolResultBlock(
					toolBlock.ID, result, false))
			}
		}

		if len(resultBlocks) == 0 {
			return text.String(), nil
		}

		params.Messages = append(params.Messages,
			anthropic.NewAssistantMessage(assistantBlocks...),
			anthropic.NewUserMessage(resultBlocks...),
		)
	}

	return "", fmt.Errorf("tool loop exceeded %d iterations", maxIterations)
}

func toolDefinitions(tools []tool.Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	defs := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		schema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		params := t.Parameters()
		if properties, ok := params["properties"]; ok {
			schema.Properties = properties
		}
		if required, ok := params["required"].([]string); ok {
			schema.Required = required
		}
		defs[i] = anthropic.ToolUnionParamOfTool(schema, t.Name())
	}
	return defs
}

var _ agent.Executor = (*Executor)(nil)
