package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/ganot/appforge/internal/identity"
	"github.com/ganot/appforge/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// defaultWorkspace is used when a request carries no workspace hint and the
// transport has no session id.
const defaultWorkspace = "default"

type contextKey int

const workspaceIDKey contextKey = iota

func getWorkspaceID(ctx context.Context) string {
	v, _ := ctx.Value(workspaceIDKey).(string)
	if v == "" {
		return defaultWorkspace
	}
	return v
}

func getOwner(ctx context.Context) (identity.OwnerID, error) {
	owner, ok := identity.OwnerFromContext(ctx)
	if !ok {
		return identity.OwnerID{}, identity.ErrUnauthorized
	}
	return owner, nil
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(resolver identity.Resolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Protocol handshake is open.
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			auth := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}

			ident, err := resolver.Resolve(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}
			if ident.Owner().IsZero() {
				return nil, fmt.Errorf("unauthorized: %w", identity.ErrNoEmail)
			}

			return next(identity.WithOwner(ctx, ident.Owner()), method, req)
		}
	}
}

// noAuthMiddleware attaches the local identity when auth is disabled.
func noAuthMiddleware(local identity.Identity) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(identity.WithOwner(ctx, local.Owner()), method, req)
		}
	}
}

// workspaceMiddleware picks the workspace a request acts on: the
// X-Workspace-Id header, then the Mcp-Session-Id header, then
// _meta.workspace_id, then the transport session id.
func workspaceMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			var id string

			if extra := req.GetExtra(); extra != nil && extra.Header != nil {
				id = strings.TrimSpace(extra.Header.Get(transport.WorkspaceHeader))
				if id == "" {
					id = extra.Header.Get("Mcp-Session-Id")
				}
			}

			// Notifications such as "initialized" may carry nil params behind
			// a non-nil interface.
			if id == "" {
				if params := req.GetParams(); params != nil {
					func() {
						defer func() { recover() }()
						if meta := params.GetMeta(); meta != nil {
							if wid, ok := meta["workspace_id"].(string); ok {
								id = wid
							}
						}
					}()
				}
			}

			if id == "" {
				id = safeSessionID(req)
			}

			if id != "" {
				ctx = context.WithValue(ctx, workspaceIDKey, id)
			}
			return next(ctx, method, req)
		}
	}
}
