package tools

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ekaya-inc/ekaya-tracker/pkg/models"
)

// RegisterSignalTools registers list_signals, log_signal and update_signal_status.
func RegisterSignalTools(s *server.MCPServer, deps *Deps) {
	registerListSignalsTool(s, deps)
	registerLogSignalTool(s, deps)
	registerUpdateSignalStatusTool(s, deps)
}

func registerListSignalsTool(s *server.MCPServer, deps *Deps) {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"List weak market signals, highest impact first and newest first within an impact. " +
				"Filter by status and impact; omit a filter or pass 'All' to match everything.",
		),
		mcp.WithString("status",
			mcp.Description("Signal status filter"),
			mcp.Enum(append([]string{models.FilterAll}, statusNames()...)...),
		),
		mcp.WithString("impact",
			mcp.Description("Impact filter"),
			mcp.Enum(append([]string{models.FilterAll}, impactNames()...)...),
		),
	}
	tool := mcp.NewTool("list_signals", append(opts, readOnly()...)...)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter, err := models.ParseSignalFilter(req.GetString("status", ""), req.GetString("impact", ""))
		if err != nil {
			return NewErrorResult("validation_error", err.Error()), nil
		}

		ctx, release, err := deps.acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()

		signals, err := deps.Signals.List(ctx, filter)
		if err != nil {
			if result := serviceErrorResult(err); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("failed to list signals: %w", err)
		}
		if signals == nil {
			signals = []*models.WeakSignal{}
		}
		return jsonResult(struct {
			Signals []*models.WeakSignal `json:"signals"`
			Count   int                  `json:"count"`
		}{Signals: signals, Count: len(signals)})
	})
}

func registerLogSignalTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"log_signal",
		mcp.WithDescription(
			"Record a weak market signal: an early observation that may indicate a vendor's AI direction. "+
				"Unset fields default to confidence 50, timeline '6 months', impact Medium and status Monitoring.",
		),
		mcp.WithString("observation", mcp.Required(), mcp.Description("What was observed")),
		mcp.WithString("source", mcp.Description("Where it was observed")),
		mcp.WithString("vendor_tag", mcp.Description("Vendor the signal relates to, display only")),
		mcp.WithNumber("confidence", mcp.Description("Confidence 0-100"), mcp.Min(0), mcp.Max(100)),
		mcp.WithString("timeline", mcp.Description("Expected timeline, e.g. "+strings.Join(models.SignalTimelines, ", "))),
		mcp.WithString("impact", mcp.Description("Expected impact"), mcp.Enum(impactNames()...)),
		mcp.WithString("notes", mcp.Description("Free-form notes")),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if result := deps.locked(ctx); result != nil {
			return result, nil
		}

		observation, err := req.RequireString("observation")
		if err != nil {
			return NewErrorResult("validation_error", err.Error()), nil
		}
		confidence, err := optionalInt(req.GetArguments(), "confidence")
		if err != nil {
			return NewErrorResult("validation_error", err.Error()), nil
		}

		signal := &models.WeakSignal{
			Observation: observation,
			Source:      req.GetString("source", ""),
			VendorTag:   req.GetString("vendor_tag", ""),
			Confidence:  models.ConfidenceOrDefault(confidence),
			Timeline:    req.GetString("timeline", ""),
			Notes:       req.GetString("notes", ""),
		}
		if raw := req.GetString("impact", ""); raw != "" {
			impact, err := models.ParseImpact(raw)
			if err != nil {
				return NewErrorResult("validation_error", err.Error()), nil
			}
			signal.Impact = impact
		}

		ctx, release, err := deps.acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()

		if err := deps.Signals.Create(ctx, signal); err != nil {
			if result := serviceErrorResult(err); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("failed to log signal: %w", err)
		}
		return jsonResult(signal)
	})
}

func registerUpdateSignalStatusTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"update_signal_status",
		mcp.WithDescription(
			"Move a weak signal to a new status (any status may follow any other) and optionally replace its notes.",
		),
		mcp.WithString("signal_id", mcp.Required(), mcp.Description("Signal ID")),
		mcp.WithString("status", mcp.Required(), mcp.Description("New status"), mcp.Enum(statusNames()...)),
		mcp.WithString("notes", mcp.Description("Replacement notes")),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if result := deps.locked(ctx); result != nil {
			return result, nil
		}

		rawID, err := req.RequireString("signal_id")
		if err != nil {
			return NewErrorResult("validation_error", err.Error()), nil
		}
		id, err := uuid.Parse(strings.TrimSpace(rawID))
		if err != nil {
			return NewErrorResult("invalid_signal_id", "signal_id must be a UUID"), nil
		}
		rawStatus, err := req.RequireString("status")
		if err != nil {
			return NewErrorResult("validation_error", err.Error()), nil
		}
		status, err := models.ParseSignalStatus(rawStatus)
		if err != nil {
			return NewErrorResult("validation_error", err.Error()), nil
		}

		patch := &models.SignalPatch{Status: &status}
		if notes, ok := req.GetArguments()["notes"].(string); ok {
			patch.Notes = &notes
		}

		ctx, release, err := deps.acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()

		signal, err := deps.Signals.Update(ctx, id, patch)
		if err != nil {
			if result := serviceErrorResult(err); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("failed to update signal: %w", err)
		}
		return jsonResult(signal)
	})
}

// optionalInt reads a whole number argument. Absent means nil.
func optionalInt(args map[string]any, key string) (*int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	f, ok := raw.(float64)
	if !ok || f != math.Trunc(f) {
		return nil, fmt.Errorf("%s must be a whole number", key)
	}
	n := int(f)
	return &n, nil
}

func statusNames() []string {
	out := make([]string, len(models.SignalStatuses))
	for i, s := range models.SignalStatuses {
		out[i] = string(s)
	}
	return out
}

func impactNames() []string {
	out := make([]string, len(models.Impacts))
	for i, im := range models.Impacts {
		out[i] = string(im)
	}
	return out
}
