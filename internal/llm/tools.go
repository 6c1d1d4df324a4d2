package llm

// ToolParam describes one parameter of a tool schema.
type ToolParam struct {
	Type        string
	Description string
}

// ToolDef is a vendor-neutral function schema. Each provider adapter
// converts it into the shape its function-calling layer expects.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]ToolParam
	Required    []string
}
