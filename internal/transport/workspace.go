package transport

import (
	"context"
	"net/http"
	"strings"
)

// WorkspaceHeader names the workspace a request acts on.
const WorkspaceHeader = "X-Workspace-Id"

type workspaceKey struct{}

// WorkspaceIDFromContext returns the workspace ID from context, if present.
func WorkspaceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(workspaceKey{}).(string)
	return id, ok && id != ""
}

// WorkspaceMiddleware extracts X-Workspace-Id and stores it in context.
func WorkspaceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(WorkspaceHeader))
		if id != "" {
			ctx := context.WithValue(r.Context(), workspaceKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		next.ServeHTTP(w, r)
	})
}
