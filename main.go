package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agentrules/rule-lint/tools"
)

const (
	version     = "0.3.1"
	serverName  = "rule-lint-mcp-server"
	description = "MCP server for linting and searching AI agent rule documents"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("%s version %s\n", serverName, version)
		os.Exit(0)
	}

	// Set up logging to stderr (MCP uses stdout for protocol)
	log.SetOutput(os.Stderr)
	log.Printf("%s v%s starting...", serverName, version)

	// Optional positional argument: the rule corpus directory
	if len(os.Args) > 1 && os.Args[1] != "" {
		tools.SetCorpusRoot(os.Args[1])
		log.Printf("Rule corpus: %s", os.Args[1])
	}

	// Create MCP server
	server := createMCPServer()

	// Register all tools
	if err := registerTools(server); err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}

	log.Printf("✓ Server ready and waiting for connections")

	// Set up cleanup on shutdown
	defer func() {
		if err := tools.CloseRuleSearch(); err != nil {
			log.Printf("Error closing rule search: %v", err)
		}
	}()

	// Run server with stdio transport
	ctx := context.Background()
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// createMCPServer initializes the MCP server
func createMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil, // Default options
	)

	log.Printf("Server initialized: %s v%s", serverName, version)
	return server
}

// registerTools registers all MCP tools
func registerTools(server *mcp.Server) error {
	toolCount := 0

	// Lint and metadata validation tools (2 tools)
	if err := tools.RegisterLintTools(server); err != nil {
		return fmt.Errorf("failed to register lint tools: %w", err)
	}
	toolCount += 2

	// Corpus inspection tool (1 tool)
	tools.RegisterCorpusTools(server)
	toolCount++

	// Document generation tool (1 tool)
	tools.RegisterGenerationTools(server)
	toolCount++

	// Rule search tools (2 tools)
	if err := tools.RegisterRuleSearchTools(server); err != nil {
		log.Printf("Warning: Failed to register rule search tools: %v", err)
		log.Printf("Rule search will be unavailable")
	} else {
		toolCount += 2
	}

	log.Printf("✓ All tools registered: %d tools (lint + metadata + corpus + generation + search)", toolCount)
	return nil
}
