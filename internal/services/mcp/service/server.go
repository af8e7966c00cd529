package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/louisbranch/rolltables/internal/platform/branding"
	"github.com/louisbranch/rolltables/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// serverVersion identifies the MCP server version.
const serverVersion = "0.1.0"

// serverName identifies this MCP server to clients.
var serverName = branding.AppName + " MCP"

const (
	mcpTableToolsModuleName    = "table-tools"
	mcpTableResourceModuleName = "table-resources"
)

type mcpRegistrationTarget interface {
	AddTool(*mcp.Tool, any) error
	AddResource(*mcp.Resource, mcp.ResourceHandler)
}

type mcpRegistrationModule struct {
	name     string
	register func(mcpRegistrationTarget) error
}

type mcpServerRegistrationAdapter struct {
	server *mcp.Server
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addMCPTool(r.server, tool, handler)
}

func (r mcpServerRegistrationAdapter) AddResource(resource *mcp.Resource, handler mcp.ResourceHandler) {
	r.server.AddResource(resource, handler)
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[domain.TableDrawInput, domain.TableDrawResult](),
	newMCPToolRegistrar[domain.TableListInput, domain.TableListResult](),
	newMCPToolRegistrar[domain.TableRefInput, domain.TableDetail](),
	newMCPToolRegistrar[domain.TableSetKindInput, domain.TableDetail](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}

func newMCPRegistrationModules(svc domain.TableService, notify domain.ResourceUpdateNotifier) []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{
			name: mcpTableToolsModuleName,
			register: func(target mcpRegistrationTarget) error {
				return registerTableTools(target, svc, notify)
			},
		},
		{
			name: mcpTableResourceModuleName,
			register: func(target mcpRegistrationTarget) error {
				target.AddResource(domain.TableListResource(), domain.TableListResourceHandler(svc))
				return nil
			},
		},
	}
}

func registerTableTools(target mcpRegistrationTarget, svc domain.TableService, notify domain.ResourceUpdateNotifier) error {
	registrations := []struct {
		tool    *mcp.Tool
		handler any
	}{
		{tool: domain.TableDrawTool(), handler: domain.TableDrawHandler(svc, notify)},
		{tool: domain.TableListTool(), handler: domain.TableListHandler(svc)},
		{tool: domain.TableGetTool(), handler: domain.TableGetHandler(svc)},
		{tool: domain.TableResetTool(), handler: domain.TableResetHandler(svc, notify)},
		{tool: domain.TableSetKindTool(), handler: domain.TableSetKindHandler(svc, notify)},
	}
	for _, registration := range registrations {
		if err := target.AddTool(registration.tool, registration.handler); err != nil {
			return err
		}
	}
	return nil
}

// Server exposes the table tools over MCP.
type Server struct {
	mcpServer *mcp.Server
}

// NewServer registers every table tool and resource against svc.
func NewServer(svc domain.TableService) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("table service is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		CompletionHandler:  completionHandler,
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})

	notify := func(ctx context.Context, uri string) {
		if strings.TrimSpace(uri) == "" {
			return
		}
		if err := mcpServer.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri}); err != nil {
			log.Printf("mcp resource updated notify failed: uri=%s err=%v", uri, err)
		}
	}

	for _, module := range newMCPRegistrationModules(svc, notify) {
		if err := module.register(mcpServerRegistrationAdapter{server: mcpServer}); err != nil {
			return nil, fmt.Errorf("register MCP module %q: %w", module.name, err)
		}
	}
	return &Server{mcpServer: mcpServer}, nil
}

// completionHandler answers completion requests with no suggestions.
func completionHandler(context.Context, *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	return &mcp.CompleteResult{
		Completion: mcp.CompletionResultDetails{
			Values: []string{},
		},
	}, nil
}

func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}
