// Package openai runs agent tasks against the OpenAI Chat Completions API,
// including the function-calling loop for the desk's tools.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/bancoagil/agentdesk/agent"
	"github.com/bancoagil/agentdesk/logging"
	"github.com/bancoagil/agentdesk/model"
	"github.com/bancoagil/agentdesk/tool"
)

// Options configure the OpenAI executor. Fields mirror a minimal subset of
// Chat Completion parameters; extend via functional options.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	Logger              logging.Logger
}

// Executor drives a tool-calling loop over the OpenAI Chat Completions API.
type Executor struct {
	client *openai.Client
	opts   Options
}

// NewExecutor creates an executor using a client configured from the
// environment (OPENAI_API_KEY).
func NewExecutor(optFns ...func(o *Options)) *Executor {
	client := openai.NewClient()
	return NewExecutorFromClient(&client, optFns...)
}

// NewExecutorFromClient creates an executor from an existing client.
func NewExecutorFromClient(client *openai.Client, optFns ...func(o *Options)) *Executor {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.3,
		MaxCompletionTokens: 4096,
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{client: client, opts: opts}
}

// Execute runs the task to completion: it keeps answering tool calls until
// the model produces a plain assistant reply or the iteration budget runs out.
func (e *Executor) Execute(ctx context.Context, task agent.Task) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(task.Instructions),
		openai.UserMessage(task.Prompt),
	}

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               e.opts.Model,
		Temperature:         openai.Float(e.opts.Temperature),
		MaxCompletionTokens: openai.Int(e.opts.MaxCompletionTokens),
		Tools:               toolDefinitions(task.Tools),
	}

	tc := tool.NewContext(ctx, task.Session, task.AgentID, e.opts.Logger)

	maxIterations := task.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 10
	}

	for i := 0; i < maxIterations; i++ {
		resp, err := e.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("openai api error: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no choices returned")
		}

		message := resp.Choices[0].Message
		if len(message.ToolCalls) == 0 {
			return message.Content, nil
		}

		params.Messages = append(params.Messages, message.ToParam())
		for _, call := range message.ToolCalls {
			e.opts.Logger.Debug("dispatching tool call",
				"agent", task.AgentID, "tool", call.Function.Name)
			result := model.Dispatch(tc, task.Tools, call.Function.Name, call.Function.Arguments)
			params.Messages = append(params.Messages, openai.ToolMessage(result, call.ID))
		}
	}

	return "", fmt.Errorf("tool loop exceeded %d iterations", maxIterations)
}

func toolDefinitions(tools []tool.Tool) []openai.ChatCompletionToolParam {
	if len(tools) == 0 {
		return nil
	}
	defs := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		defs[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        t.Name(),
				Description: openai.String(t.Description()),
				Parameters:  t.Parameters(),
			},
		}
	}
	return defs
}

var _ agent.Executor = (*Executor)(nil)
