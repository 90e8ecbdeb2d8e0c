// Package explorer bridges the api client, the address translator, and
// the host's tree/filesystem view: it lists registered servers and their
// remote items as nodes, dispatches capability-driven actions, and exposes
// a read/write virtual filesystem surface over remote content.
package explorer

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/Triumph-Tech/magnus"
	"github.com/Triumph-Tech/magnus/api"
	"github.com/Triumph-Tech/magnus/config"
	"github.com/Triumph-Tech/magnus/internal/util"
	"github.com/Triumph-Tech/magnus/vuri"
)

// Explorer combines the session, api, and address layers into the tree
// and virtual filesystem surface consumed by a hosting view.
//
// The node and parent lookup tables are best-effort caches rebuilt on
// every listing: a missing entry is never an error, only a signal to
// refresh from the root.
type Explorer struct {
	cfg     *config.Config
	client  *api.Client
	creds   magnus.CredentialStore
	servers magnus.ServerListStore
	ui      magnus.Interactor
	icons   *iconCache

	nodes      *xsync.Map[string, *Node]   // virtual URI -> node
	parents    *xsync.Map[string, *Node]   // child virtual URI -> parent node
	childIndex *xsync.Map[string, []string] // parent virtual URI -> child URIs of last listing

	observerMu    sync.Mutex
	nextObserver  int
	treeObservers map[int]func(*Node)
	fileObservers map[int]func(string)

	log util.Logger
}

// New creates an Explorer. All collaborators are required except ui-driven
// flows degrade when ui is nil (prompt-backed operations fail cleanly).
func New(cfg *config.Config, client *api.Client, creds magnus.CredentialStore, servers magnus.ServerListStore, ui magnus.Interactor) *Explorer {
	return &Explorer{
		cfg:           cfg,
		client:        client,
		creds:         creds,
		servers:       servers,
		ui:            ui,
		icons:         newIconCache(cfg.ReadTimeout),
		nodes:         xsync.NewMap[string, *Node](),
		parents:       xsync.NewMap[string, *Node](),
		childIndex:    xsync.NewMap[string, []string](),
		treeObservers: map[int]func(*Node){},
		fileObservers: map[int]func(string){},
		log:           util.GetLogger("explorer"),
	}
}

// Roots lists the registered servers as tree roots. Each root is
// decorated with a live server descriptor when one can be fetched; a
// failed fetch falls back to a minimal descriptor carrying the host name
// and never blocks the tree from rendering.
func (e *Explorer) Roots(ctx context.Context) ([]*Node, error) {
	serverURLs, err := e.servers.Load()
	if err != nil {
		return nil, fmt.Errorf("load server list: %w", err)
	}

	roots := make([]*Node, 0, len(serverURLs))
	for _, serverURL := range serverURLs {
		item := e.serverDescriptor(ctx, serverURL)
		virtual, err := vuri.FromItem(serverURL, item.URI)
		if err != nil {
			e.log.Error().Err(err).Str("server", serverURL).Msg("Skipping server with unusable url")
			continue
		}

		node := &Node{
			ServerURL:  serverURL,
			VirtualURI: virtual,
			Item:       *item,
			IsServer:   true,
		}
		e.nodes.Store(virtual, node)
		roots = append(roots, node)
	}
	return roots, nil
}

func (e *Explorer) serverDescriptor(ctx context.Context, serverURL string) *magnus.ItemDescriptor {
	item, err := e.client.GetServerDescriptor(ctx, serverURL)
	if err == nil {
		item.IsFolder = true
		return item
	}
	e.log.Debug().Err(err).Str("server", serverURL).Msg("Server descriptor unavailable, using fallback")

	label := serverURL
	if u, err := url.Parse(serverURL); err == nil && u.Host != "" {
		label = u.Host
	}
	return &magnus.ItemDescriptor{DisplayName: label, IsFolder: true}
}

// Children lists a node's children. Leaf nodes (no logical path, not a
// server root) return an empty list. Previous table entries for the node
// are replaced, not accumulated.
func (e *Explorer) Children(ctx context.Context, parent *Node) ([]*Node, error) {
	if !parent.IsServer && parent.Item.URI == "" {
		return nil, nil
	}

	items, err := e.client.GetChildItems(ctx, parent.ServerURL, parent.Item.URI)
	if err != nil {
		return nil, err
	}

	// Evict the previous generation of this parent's children
	if old, ok := e.childIndex.Load(parent.VirtualURI); ok {
		for _, uri := range old {
			e.nodes.Delete(uri)
			e.parents.Delete(uri)
		}
	}

	children := make([]*Node, 0, len(items))
	childURIs := make([]string, 0, len(items))
	for _, item := range items {
		virtual, err := vuri.FromItem(parent.ServerURL, item.URI)
		if err != nil {
			e.log.Error().Err(err).Str("item", item.DisplayName).Msg("Skipping item with unusable uri")
			continue
		}
		child := &Node{
			ServerURL:  parent.ServerURL,
			VirtualURI: virtual,
			Item:       item,
		}
		e.nodes.Store(virtual, child)
		e.parents.Store(virtual, parent)
		children = append(children, child)
		childURIs = append(childURIs, virtual)
	}
	e.childIndex.Store(parent.VirtualURI, childURIs)

	e.log.Debug().Str("parent", parent.VirtualURI).Int("children", len(children)).Msg("Listed children")
	return children, nil
}

// Node re-looks-up a node by its virtual identifier. ok is false when the
// tables have been rebuilt since the node was handed out; callers should
// then refresh the whole tree.
func (e *Explorer) Node(virtualURI string) (*Node, bool) {
	return e.nodes.Load(virtualURI)
}

// Parent returns the last-listed parent of the node with the given
// virtual identifier.
func (e *Explorer) Parent(virtualURI string) (*Node, bool) {
	return e.parents.Load(virtualURI)
}

// RegisterServer validates and registers a new server: the URL must parse
// as http(s), the credentials must pass a live login, and only then are
// the server list and credential store updated. No partial state survives
// a failure.
func (e *Explorer) RegisterServer(ctx context.Context, rawURL string, creds magnus.Credentials) error {
	base, err := vuri.ServerBase(strings.TrimRight(strings.TrimSpace(rawURL), "/"))
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}

	if !e.client.Sessions().Login(ctx, base, creds.Username, creds.Password) {
		return api.ErrUnauthorized
	}

	servers, err := e.servers.Load()
	if err != nil {
		return fmt.Errorf("load server list: %w", err)
	}
	if slices.Contains(servers, base) {
		return fmt.Errorf("server %s is already registered", base)
	}

	if err := e.creds.Set(base, creds); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}
	if err := e.servers.Save(append(servers, base)); err != nil {
		// Roll back the credential write so no partial state persists
		_ = e.creds.Delete(base)
		return fmt.Errorf("save server list: %w", err)
	}

	e.log.Info().Str("server", base).Msg("Server registered")
	e.notifyTree(nil)
	return nil
}

// AddServerInteractive collects a server URL and credentials through the
// host prompts and registers the server. A dismissed prompt aborts
// silently.
func (e *Explorer) AddServerInteractive(ctx context.Context) error {
	if e.ui == nil {
		return fmt.Errorf("no interaction host available")
	}

	rawURL, ok := e.ui.PromptInput(ctx, "Server URL")
	if !ok {
		return nil
	}
	creds, ok := e.ui.PromptCredentials(ctx, rawURL)
	if !ok {
		return nil
	}

	if err := e.RegisterServer(ctx, rawURL, creds); err != nil {
		e.ui.ShowError(fmt.Sprintf("Could not add server: %v", err))
		return err
	}
	e.ui.ShowMessage("Server added")
	return nil
}

// RemoveServer unregisters a server: drops it from the server list,
// deletes its credentials, and invalidates any cached session.
func (e *Explorer) RemoveServer(ctx context.Context, serverURL string) error {
	servers, err := e.servers.Load()
	if err != nil {
		return fmt.Errorf("load server list: %w", err)
	}

	idx := slices.Index(servers, serverURL)
	if idx < 0 {
		return fmt.Errorf("server %s is not registered", serverURL)
	}

	if err := e.servers.Save(slices.Delete(servers, idx, idx+1)); err != nil {
		return fmt.Errorf("save server list: %w", err)
	}
	if err := e.creds.Delete(serverURL); err != nil {
		e.log.Error().Err(err).Str("server", serverURL).Msg("Failed to remove stored credentials")
	}
	e.client.Sessions().Invalidate(serverURL)

	e.log.Info().Str("server", serverURL).Msg("Server removed")
	e.notifyTree(nil)
	return nil
}

// OnTreeChange registers an observer for structural tree changes. The
// callback receives the node whose subtree changed, or nil for the root.
func (e *Explorer) OnTreeChange(fn func(node *Node)) magnus.Disposable {
	e.observerMu.Lock()
	defer e.observerMu.Unlock()
	id := e.nextObserver
	e.nextObserver++
	e.treeObservers[id] = fn
	return magnus.DisposableFunc(func() {
		e.observerMu.Lock()
		defer e.observerMu.Unlock()
		delete(e.treeObservers, id)
	})
}

// OnFileChange registers an observer for virtual file content changes.
// Remote content is not watched, so this system never fires it; the
// registration exists so hosts get a valid handle.
func (e *Explorer) OnFileChange(fn func(virtualURI string)) magnus.Disposable {
	e.observerMu.Lock()
	defer e.observerMu.Unlock()
	id := e.nextObserver
	e.nextObserver++
	e.fileObservers[id] = fn
	return magnus.DisposableFunc(func() {
		e.observerMu.Lock()
		defer e.observerMu.Unlock()
		delete(e.fileObservers, id)
	})
}

func (e *Explorer) notifyTree(node *Node) {
	e.observerMu.Lock()
	observers := make([]func(*Node), 0, len(e.treeObservers))
	for _, fn := range e.treeObservers {
		observers = append(observers, fn)
	}
	e.observerMu.Unlock()

	for _, fn := range observers {
		fn(node)
	}
}

// refreshParent fires a tree change for the parent of the given node, when
// the parent table still knows it. A missing entry means no refresh, an
// accepted best-effort limitation.
func (e *Explorer) refreshParent(node *Node) {
	if parent, ok := e.parents.Load(node.VirtualURI); ok {
		e.notifyTree(parent)
	}
}
