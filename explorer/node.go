package explorer

import (
	"strings"

	"github.com/Triumph-Tech/magnus"
)

// Node is one entry in the remote resource tree: a server root or an item
// beneath one. Nodes are rebuilt on every listing and never mutated; the
// explorer's lookup tables only ever hold the latest generation.
type Node struct {
	// ServerURL is the base URL of the owning server.
	ServerURL string

	// VirtualURI addresses this node in the virtual filesystem.
	VirtualURI string

	// Item is the server-supplied descriptor for this node.
	Item magnus.ItemDescriptor

	// IsServer marks the synthetic root node for a registered server.
	IsServer bool
}

// Name returns the node's display label.
func (n *Node) Name() string {
	return n.Item.DisplayName
}

// Expandable reports whether the node can have children listed: servers
// always can, other nodes only when they carry a logical path.
func (n *Node) Expandable() bool {
	return n.IsServer || (n.Item.IsFolder && n.Item.URI != "")
}

// ContextValue computes the composite classification key for the node from
// its kind and capability set. Hosts use it purely as a dispatch key for
// context-sensitive actions; it carries no other semantics.
func (n *Node) ContextValue() string {
	parts := make([]string, 0, 10)
	if n.IsServer {
		parts = append(parts, "server")
	}
	if n.Item.IsFolder {
		parts = append(parts, "folder")
	} else {
		parts = append(parts, "file")
	}

	caps := n.Item.Capabilities()
	for _, c := range []struct {
		on  bool
		tag string
	}{
		{caps.View, "view"},
		{caps.Edit, "edit"},
		{caps.Build, "build"},
		{caps.Delete, "delete"},
		{caps.CreateFile, "createFile"},
		{caps.CreateFolder, "createFolder"},
		{caps.UploadFile, "uploadFile"},
		{caps.UploadFolder, "uploadFolder"},
	} {
		if c.on {
			parts = append(parts, c.tag)
		}
	}
	return strings.Join(parts, "+")
}
