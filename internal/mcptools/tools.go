package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	appplayers "sleeper-players-service/internal/app/players"
	"sleeper-players-service/internal/domain/players"
	"sleeper-players-service/internal/logging"
)

const (
	serverName   = "sleeper-players"
	defaultSport = "nfl"

	ToolGetPlayer         = "get_player"
	ToolGetPlayerName     = "get_player_name"
	ToolPlayersByPosition = "players_by_position"
	ToolCacheStatus       = "player_cache_status"
)

// Registry resolves player services by sport.
type Registry interface {
	Service(sport string) (*appplayers.Service, bool)
	Statuses() map[string]appplayers.Status
}

// PlayerArgs is the input schema for get_player and get_player_name.
type PlayerArgs struct {
	Sport    string `json:"sport,omitempty" jsonschema:"Sport partition (default nfl)"`
	PlayerID string `json:"player_id" jsonschema:"Sleeper player id (required)"`
}

// PositionArgs is the input schema for players_by_position.
type PositionArgs struct {
	Sport    string `json:"sport,omitempty" jsonschema:"Sport partition (default nfl)"`
	Position string `json:"position" jsonschema:"Position code such as QB, RB, WR, TE, K or DEF (required)"`
}

// StatusArgs is the input schema for player_cache_status.
type StatusArgs struct {
	Sport string `json:"sport,omitempty" jsonschema:"Sport partition; empty reports every sport"`
}

type nameResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type positionResult struct {
	Sport    string           `json:"sport"`
	Position string           `json:"position"`
	Count    int              `json:"count"`
	Players  []players.Player `json:"players"`
}

// Server exposes the player dictionary as MCP tools.
type Server struct {
	registry Registry
	logger   *slog.Logger
	server   *mcp.Server
}

// New builds the MCP server and registers every tool.
func New(registry Registry, logger *slog.Logger, version string) *Server {
	if strings.TrimSpace(version) == "" {
		version = "dev"
	}
	s := &Server{
		registry: registry,
		logger:   logger,
		server:   mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil),
	}
	s.register()
	return s
}

// MCPServer returns the underlying server, for in-process transports.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// Handler serves the tools over streamable HTTP.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func (s *Server) register() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolGetPlayer,
		Description: "Look up one player record by Sleeper id",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlayerArgs) (*mcp.CallToolResult, any, error) {
		id := strings.TrimSpace(args.PlayerID)
		if id == "" {
			return toolError(fmt.Errorf("player_id is required")), nil, nil
		}
		svc, err := s.loaded(ctx, ToolGetPlayer, args.Sport)
		if err != nil {
			return toolError(err), nil, nil
		}
		p, ok := svc.Player(id)
		if !ok {
			return toolError(fmt.Errorf("player %s not found", id)), nil, nil
		}
		return toolJSON(p)
	})

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolGetPlayerName,
		Description: "Resolve a Sleeper id to a display name; unknown ids get a placeholder",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PlayerArgs) (*mcp.CallToolResult, any, error) {
		id := strings.TrimSpace(args.PlayerID)
		if id == "" {
			return toolError(fmt.Errorf("player_id is required")), nil, nil
		}
		svc, err := s.service(args.Sport)
		if err != nil {
			return toolError(err), nil, nil
		}
		if !svc.IsReady() {
			if err := svc.Load(ctx); err != nil {
				s.warn(ctx, ToolGetPlayerName, svc, err)
			}
		}
		return toolJSON(nameResult{ID: id, Name: svc.PlayerName(id)})
	})

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolPlayersByPosition,
		Description: "List players at a position, ordered by name",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PositionArgs) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(args.Position) == "" {
			return toolError(fmt.Errorf("position is required")), nil, nil
		}
		svc, err := s.loaded(ctx, ToolPlayersByPosition, args.Sport)
		if err != nil {
			return toolError(err), nil, nil
		}
		list := svc.PlayersByPosition(args.Position)
		return toolJSON(positionResult{
			Sport:    svc.Partition(),
			Position: players.NormalizePosition(args.Position),
			Count:    len(list),
			Players:  list,
		})
	})

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolCacheStatus,
		Description: "Report player dictionary load state per sport",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(args.Sport) == "" {
			if s.registry == nil {
				return toolJSON(map[string]appplayers.Status{})
			}
			return toolJSON(s.registry.Statuses())
		}
		svc, err := s.service(args.Sport)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(svc.Status())
	})
}

func (s *Server) service(sport string) (*appplayers.Service, error) {
	sport = strings.TrimSpace(sport)
	if sport == "" {
		sport = defaultSport
	}
	if s.registry != nil {
		if svc, ok := s.registry.Service(sport); ok {
			return svc, nil
		}
	}
	return nil, fmt.Errorf("unknown sport %q", sport)
}

// loaded resolves the service and runs a read-through load when nothing is held.
func (s *Server) loaded(ctx context.Context, tool, sport string) (*appplayers.Service, error) {
	svc, err := s.service(sport)
	if err != nil {
		return nil, err
	}
	if svc.IsReady() {
		return svc, nil
	}
	if err := svc.Load(ctx); err != nil {
		s.warn(ctx, tool, svc, err)
		return nil, err
	}
	if !svc.IsReady() {
		return nil, appplayers.ErrNoData
	}
	return svc, nil
}

func (s *Server) warn(ctx context.Context, tool string, svc *appplayers.Service, err error) {
	logging.Warn(logging.FromContext(ctx, s.logger), "mcp tool served without dictionary",
		slog.String("tool", tool),
		slog.String(logging.FieldPartition, svc.Partition()),
		"error", err,
	)
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
