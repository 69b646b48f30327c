package mcptools

// --- MCP tool types for serve-mcp ---
// These tools let an MCP client run the assistant services and inspect
// saved results without shelling out to the CLI.

// RunServiceInput is the input for the run_service MCP tool.
type RunServiceInput struct {
	Service string `json:"service" jsonschema:"service name or alias: testing, refactoring, debugging, documentation, analysis, planning (or 1-6)"`
	Path    string `json:"path,omitempty" jsonschema:"file or directory to process (default: server working directory)"`
}

// RunServiceOutput is the result of the run_service MCP tool.
type RunServiceOutput struct {
	Service string         `json:"service"`
	Status  string         `json:"status"` // "completed", "failed" or "no_files"
	Message string         `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
	Files   []string       `json:"files"`
	SavedTo string         `json:"savedTo,omitempty"`
	Result  map[string]any `json:"result,omitempty"`
}

// ListServicesInput is the input for the list_services MCP tool.
type ListServicesInput struct{}

// ListServicesOutput is the result of the list_services MCP tool.
type ListServicesOutput struct {
	Services []ServiceSummary `json:"services"`
}

// ServiceSummary describes one service.
type ServiceSummary struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ParseFilesInput is the input for the parse_files MCP tool.
type ParseFilesInput struct {
	Path     string `json:"path,omitempty" jsonschema:"file or directory to parse (default: server working directory)"`
	MaxFiles int    `json:"maxFiles,omitempty" jsonschema:"maximum number of files to parse (default: 20)"`
}

// ParseFilesOutput is the result of the parse_files MCP tool.
type ParseFilesOutput struct {
	Files []FileSummary `json:"files"`
}

// FileSummary is the structural summary of one parsed file.
type FileSummary struct {
	Path      string   `json:"path"`
	Language  string   `json:"language"`
	Lines     int      `json:"lines"`
	Parsed    bool     `json:"parsed"`
	Error     string   `json:"error,omitempty"`
	Classes   []string `json:"classes"`
	Functions []string `json:"functions"`
	Imports   int      `json:"imports"`
}

// GetStatusInput is the input for the get_status MCP tool.
type GetStatusInput struct {
	ResultsDir string `json:"resultsDir,omitempty" jsonschema:"directory holding saved result dumps (default: the configured results directory)"`
}

// GetStatusOutput is the result of the get_status MCP tool.
type GetStatusOutput struct {
	ResultsDir string     `json:"resultsDir"`
	Runs       []SavedRun `json:"runs"`
	Missing    []string   `json:"missing"`
	Unreadable []string   `json:"unreadable,omitempty"`
}

// SavedRun is the last saved outcome of one service.
type SavedRun struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	RunID   string `json:"runId,omitempty"`
	SavedAt string `json:"savedAt,omitempty"`
	File    string `json:"file"`
}

// ListAgentsInput is the input for the list_agents MCP tool.
type ListAgentsInput struct{}

// ListAgentsOutput is the result of the list_agents MCP tool.
type ListAgentsOutput struct {
	Agents []AgentBinding `json:"agents"`
}

// AgentBinding names the agent serving one capability.
type AgentBinding struct {
	Capability string `json:"capability"`
	Agent      string `json:"agent"`
	State      string `json:"state"`
}
