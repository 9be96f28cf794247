package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-tracker/pkg/models"
)

// RegisterVendorTools registers list_vendors and get_vendor.
func RegisterVendorTools(s *server.MCPServer, deps *Deps) {
	registerListVendorsTool(s, deps)
	registerGetVendorTool(s, deps)
}

type vendorSummary struct {
	ID                   uuid.UUID         `json:"id"`
	Name                 string            `json:"name"`
	AIMaturity           models.AIMaturity `json:"ai_maturity"`
	ImplementationClaims string            `json:"implementation_claims,omitempty"`
	Capabilities         []string          `json:"capabilities"`
	SourceCount          int               `json:"source_count"`
}

func toVendorSummary(v *models.Vendor) vendorSummary {
	caps := make([]string, 0, len(v.Capabilities))
	for _, c := range v.Capabilities {
		caps = append(caps, c.Capability)
	}
	return vendorSummary{
		ID:                   v.ID,
		Name:                 v.Name,
		AIMaturity:           v.AIMaturity,
		ImplementationClaims: v.ImplementationClaims,
		Capabilities:         caps,
		SourceCount:          len(v.Sources),
	}
}

func registerListVendorsTool(s *server.MCPServer, deps *Deps) {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"List tracked ERP vendors, highest AI maturity first. " +
				"Returns each vendor's maturity, claims and capability list. " +
				"Use get_vendor for notes, classifications and sources.",
		),
		mcp.WithString("ai_maturity",
			mcp.Description("Only return vendors at this maturity"),
			mcp.Enum(maturityNames()...),
		),
	}
	tool := mcp.NewTool("list_vendors", append(opts, readOnly()...)...)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var want models.AIMaturity
		if raw := strings.TrimSpace(req.GetString("ai_maturity", "")); raw != "" {
			m, err := models.ParseAIMaturity(raw)
			if err != nil {
				return NewErrorResult("validation_error", err.Error()), nil
			}
			want = m
		}

		ctx, release, err := deps.acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()

		vendors, err := deps.Vendors.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list vendors: %w", err)
		}

		out := make([]vendorSummary, 0, len(vendors))
		for _, v := range vendors {
			if want != "" && v.AIMaturity != want {
				continue
			}
			out = append(out, toVendorSummary(v))
		}
		return jsonResult(struct {
			Vendors []vendorSummary `json:"vendors"`
			Count   int             `json:"count"`
		}{Vendors: out, Count: len(out)})
	})
}

func registerGetVendorTool(s *server.MCPServer, deps *Deps) {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Get one vendor with every field, its capabilities and its sources. " +
				"Accepts the vendor ID or its exact name (case-insensitive), e.g. 'NetSuite'.",
		),
		mcp.WithString("vendor",
			mcp.Required(),
			mcp.Description("Vendor ID or name"),
		),
	}
	tool := mcp.NewTool("get_vendor", append(opts, readOnly()...)...)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("vendor")
		if err != nil {
			return NewErrorResult("validation_error", err.Error()), nil
		}
		key = strings.TrimSpace(key)

		ctx, release, err := deps.acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()

		if id, perr := uuid.Parse(key); perr == nil {
			vendor, err := deps.Vendors.Get(ctx, id)
			if err != nil {
				if result := serviceErrorResult(err); result != nil {
					return result, nil
				}
				return nil, fmt.Errorf("failed to get vendor: %w", err)
			}
			return jsonResult(vendor)
		}

		vendors, err := deps.Vendors.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list vendors: %w", err)
		}
		names := make([]string, 0, len(vendors))
		for _, v := range vendors {
			if strings.EqualFold(v.Name, key) {
				return jsonResult(v)
			}
			names = append(names, v.Name)
		}
		return NewErrorResultWithDetails("not_found", fmt.Sprintf("no vendor named %q", key),
			map[string]any{"known_vendors": names}), nil
	})
}

func maturityNames() []string {
	out := make([]string, len(models.AIMaturities))
	for i, m := range models.AIMaturities {
		out[i] = string(m)
	}
	return out
}
