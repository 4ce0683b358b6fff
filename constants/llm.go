package constants

import "time"

const (
	// DefaultModel is the deployment model id sent with every completion request.
	DefaultModel = "meta--llama3-70b-instruct"
	// DefaultMaxTokens caps the completion length.
	DefaultMaxTokens = 4096
	// DefaultResourceGroup is sent as the AI-Resource-Group header.
	DefaultResourceGroup = "default"
	// ResourceGroupHeader names the header carrying the resource group.
	ResourceGroupHeader = "AI-Resource-Group"

	// DefaultPagesPerChunk is the number of pages sent per item completion.
	DefaultPagesPerChunk = 3

	// DefaultTokenLifetime applies when the auth server omits expires_in.
	DefaultTokenLifetime = 3600 * time.Second

	DefaultLLMTimeout  = 60 * time.Second
	DefaultAuthTimeout = 15 * time.Second
)

// Role is a chat message role understood by the completion endpoint.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)
