package tool

import (
	"context"
	"encoding/json"

	"github.com/relabs-ai/relay/sandbox"
)

// NewCodeInterpreter exposes the sandbox evaluator as a tool. The model
// submits a Starlark snippet; the structured result (output variable,
// captured stdout, elapsed time, error detail) is returned as JSON so the
// model can reason about failures instead of the run aborting: user-code
// errors are data, not tool errors.
//
// env is merged into every execution namespace and is the only way for
// snippets to reach host helpers.
func NewCodeInterpreter(ev *sandbox.Evaluator, env map[string]any) *FunctionTool {
	return NewFunctionTool(
		"code_interpreter",
		"Execute a short Starlark (Python-like) script to perform computations or analyze data. "+
			"Assign the final value to the variable `out`. No imports, network or file access.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Starlark source code to execute",
				},
			},
			"required": []string{"code"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			code, _ := args["code"].(string)

			res := ev.Evaluate(ctx, code, env)

			payload, err := json.Marshal(res)
			if err != nil {
				return nil, err
			}
			return string(payload), nil
		},
	)
}
