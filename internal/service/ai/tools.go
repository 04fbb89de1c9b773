package ai

import (
	"encoding/json"
	"strings"
)

// crisisToolParameters is the JSON schema of the crisis tool arguments.
func crisisToolParameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			crisisReasonParam: map[string]any{
				"type":        "string",
				"description": crisisReasonDesc,
			},
		},
		"required": []string{crisisReasonParam},
	}
}

// parseCrisisReason extracts the reason argument from a JSON tool call,
// tolerating malformed arguments.
func parseCrisisReason(arguments string) string {
	arguments = strings.TrimSpace(arguments)
	if arguments == "" {
		return ""
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return ""
	}
	reason, _ := args[crisisReasonParam].(string)
	return reason
}
