// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/getsproj/getscheck/internal/tool"
)

const version = "0.1.0"

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the readiness analyzer as an MCP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := mcp.NewServer(&mcp.Implementation{
				Name:    "getscheck",
				Version: version,
			}, nil)

			mcp.AddTool(srv, tool.MetadataAssessInvoiceReadiness, tool.AssessInvoiceReadiness)

			return srv.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
