// Package workspace resolves which project is active and routes every
// mutation of it through one writer.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ganot/appforge/internal/deploy"
	"github.com/ganot/appforge/internal/domain/activity"
	"github.com/ganot/appforge/internal/domain/chat"
	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/domain/generation"
	"github.com/ganot/appforge/internal/domain/project"
	"github.com/ganot/appforge/internal/identity"
)

// Coordinator is one workspace of one owner. Its epoch changes on every
// Open and Close; requests carry the epoch they started under, and a write
// carrying an older epoch is refused with generation.ErrStaleResponse.
type Coordinator struct {
	mu       sync.Mutex
	id       string
	owner    identity.OwnerID
	deps     Dependencies
	logger   *slog.Logger
	epoch    uint64
	current  *project.Project
	view     View
	chat     *chat.Session
	lastUsed time.Time
}

// NewCoordinator creates an empty workspace.
func NewCoordinator(id string, owner identity.OwnerID, deps Dependencies, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{
		id:       id,
		owner:    owner,
		deps:     deps,
		logger:   logger.With("workspace_id", id),
		view:     View{WorkspaceID: id, Messages: []project.Message{}},
		lastUsed: time.Now(),
	}
}

// ID returns the workspace id.
func (c *Coordinator) ID() string { return c.id }

// Owner returns the workspace owner.
func (c *Coordinator) Owner() identity.OwnerID { return c.owner }

// Open makes the project named by token active. An empty token opens a
// blank workspace. A token naming a missing project also leaves the
// workspace blank and reports project.ErrProjectNotFound.
func (c *Coordinator) Open(ctx context.Context, token string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked()
	token = strings.TrimSpace(token)
	if token == "" {
		return c.view.clone(), nil
	}

	proj, err := c.deps.Projects.Resolve(ctx, c.owner, token)
	if errors.Is(err, project.ErrProjectNotFound) {
		c.logger.Info("resume token not found, workspace blank", "project_id", token)
		return c.view.clone(), err
	}
	if err != nil {
		return c.view.clone(), fmt.Errorf("resolving project: %w", err)
	}

	c.current = proj
	c.view = viewOf(c.id, proj)
	c.chat = chat.NewSession(c.ticketLocked(), proj.ChatHistory, c.deps.Generator, c, c.logger)
	c.record(ctx, &activity.ActivityEntry{
		ProjectID:    proj.ID,
		ActivityType: activity.TypeProjectOpened,
		Summary:      fmt.Sprintf("Opened %q", proj.Name),
		Version:      proj.Version,
	})
	return c.view.clone(), nil
}

// Close returns the workspace to blank. In-flight requests become stale.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// View returns a snapshot of the workspace.
func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastUsed = time.Now()
	return c.view.clone()
}

// Ticket returns the tag for a request submitted now.
func (c *Coordinator) Ticket() generation.Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticketLocked()
}

// GenerateInput is a prompt-driven generation request.
type GenerateInput struct {
	Mode     generation.Mode
	Provider credential.Provider
	Prompt   string
	Language string
	Context  *generation.LanguageContext
}

// Generate submits a prompt. The provider call runs without holding the
// workspace lock, so the active project may change before it returns; in
// that case the result goes to history only.
func (c *Coordinator) Generate(ctx context.Context, in GenerateInput) (generation.Outcome, error) {
	ticket := c.Ticket()

	req := generation.Request{
		Ticket:   ticket,
		Mode:     in.Mode,
		Provider: in.Provider,
		Prompt:   in.Prompt,
		Language: in.Language,
		Context:  in.Context,
	}
	outcome, err := c.deps.Generator.Submit(ctx, c, req)
	if err != nil {
		return generation.Outcome{}, err
	}

	c.mu.Lock()
	if ticket.Epoch == c.epoch && !outcome.Discarded {
		c.view.Prompt = in.Prompt
		if in.Language != "" {
			c.view.Language = in.Language
		}
		if outcome.Code != "" {
			c.view.Code = outcome.Code
			c.view.SetupInstructions = outcome.SetupInstructions
			c.view.Explanation = outcome.Explanation
		}
	}
	c.mu.Unlock()

	if outcome.Code != "" && ticket.HasProject() && !outcome.Discarded {
		entry := &activity.ActivityEntry{
			ProjectID:    ticket.ProjectID,
			ActivityType: activity.TypeCodeGenerated,
			Summary:      fmt.Sprintf("Generated code with %s", in.Provider),
		}
		if outcome.History != nil {
			entry.HistoryID = &outcome.History.ID
		}
		if outcome.Project != nil {
			entry.Version = outcome.Project.Version
		}
		c.record(ctx, entry)
	}
	return outcome, nil
}

// Chat returns the session bound to the active project.
func (c *Coordinator) Chat() (*chat.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chat == nil {
		return nil, ErrNoActiveProject
	}
	return c.chat, nil
}

// SendChat sends one chat message on the active project's session.
func (c *Coordinator) SendChat(ctx context.Context, provider credential.Provider, input string, lc *generation.LanguageContext) (chat.Reply, error) {
	session, err := c.Chat()
	if err != nil {
		return chat.Reply{}, err
	}
	reply, err := session.Send(ctx, provider, input, lc)
	if err != nil {
		return chat.Reply{}, err
	}
	if reply.Code != "" && !reply.Discarded {
		c.record(ctx, &activity.ActivityEntry{
			ProjectID:    session.ProjectID(),
			ActivityType: activity.TypeChatCodeApplied,
			Summary:      "Applied code from chat",
		})
	}
	return reply, nil
}

// SelectHistory copies a ledger entry into the view. Nothing is persisted
// until the next generation or chat write.
func (c *Coordinator) SelectHistory(ctx context.Context, id string) (View, error) {
	entry, err := c.deps.History.Get(ctx, id)
	if err != nil {
		return View{}, err
	}

	c.mu.Lock()
	c.view.Prompt = entry.Prompt
	c.view.Language = entry.Language
	c.view.Code = entry.Code
	c.view.SetupInstructions = entry.SetupInstructions
	c.view.Explanation = entry.Explanation
	view := c.view.clone()
	c.mu.Unlock()

	c.record(ctx, &activity.ActivityEntry{
		ProjectID:    view.ProjectID,
		HistoryID:    &entry.ID,
		ActivityType: activity.TypeHistorySelected,
		Summary:      "Selected history entry",
	})
	return view, nil
}

// Deploy publishes the workspace's current code.
func (c *Coordinator) Deploy(ctx context.Context, platform deploy.Platform, siteName, token string) (deploy.Result, error) {
	c.mu.Lock()
	projectID := c.view.ProjectID
	code := c.view.Code
	c.mu.Unlock()

	if projectID == "" {
		return deploy.Result{}, ErrNoActiveProject
	}
	if code == "" {
		return deploy.Result{}, ErrNothingToDeploy
	}
	if c.deps.Deployer == nil {
		return deploy.Result{}, fmt.Errorf("%w: no deployer configured", deploy.ErrDeployFailed)
	}

	res, err := c.deps.Deployer.Deploy(ctx, deploy.Request{
		Platform: platform,
		SiteName: siteName,
		Code:     code,
		Token:    token,
	})
	if err != nil {
		return deploy.Result{}, err
	}

	c.record(ctx, &activity.ActivityEntry{
		ProjectID:    projectID,
		ActivityType: activity.TypeDeployed,
		Summary:      fmt.Sprintf("Deployed to %s: %s", platform, res.URL),
	})
	return res, nil
}

// Apply implements generation.ProjectWriter. It is the only path by which a
// workspace writes its project.
func (c *Coordinator) Apply(ctx context.Context, ticket generation.Ticket, patch project.Patch) (*project.Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ticket.Epoch != c.epoch || c.current == nil || c.current.ID != ticket.ProjectID {
		c.record(ctx, &activity.ActivityEntry{
			ProjectID:    ticket.ProjectID,
			ActivityType: activity.TypeResponseDiscarded,
			Summary:      "Response arrived after the active project changed",
		})
		return nil, generation.ErrStaleResponse
	}

	proj, err := c.deps.Projects.Update(ctx, c.owner, ticket.ProjectID, patch)
	if errors.Is(err, project.ErrConflict) {
		c.record(ctx, &activity.ActivityEntry{
			ProjectID:    ticket.ProjectID,
			ActivityType: activity.TypeConflictDetected,
			Summary:      "Project changed by another writer",
		})
	}
	if err != nil {
		return nil, err
	}
	if proj == nil {
		return nil, project.ErrProjectNotFound
	}

	c.current = proj
	c.view.absorb(proj, patch)
	return proj.Clone(), nil
}

// Idle reports how long the workspace has been unused.
func (c *Coordinator) Idle(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Sub(c.lastUsed)
}

func (c *Coordinator) resetLocked() {
	c.epoch++
	c.current = nil
	c.chat = nil
	c.view = View{WorkspaceID: c.id, Messages: []project.Message{}}
	c.lastUsed = time.Now()
}

func (c *Coordinator) ticketLocked() generation.Ticket {
	t := generation.Ticket{Epoch: c.epoch}
	if c.current != nil {
		t.ProjectID = c.current.ID
	}
	return t
}

func (c *Coordinator) record(ctx context.Context, entry *activity.ActivityEntry) {
	if c.deps.Activities == nil {
		return
	}
	id := c.id
	entry.WorkspaceID = &id
	c.deps.Activities.Record(ctx, c.owner, entry)
}
