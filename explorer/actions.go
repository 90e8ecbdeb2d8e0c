package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Triumph-Tech/magnus"
	"github.com/Triumph-Tech/magnus/vuri"
)

// Messages shown when an action response carries no message of its own.
const (
	genericSuccessMessage = "The action completed successfully."
	genericFailureMessage = "The action could not be completed."
)

// Build triggers the server-side build action for the node. Valid only
// when the descriptor carries a build capability URL.
func (e *Explorer) Build(ctx context.Context, node *Node) error {
	return e.runNodeAction(ctx, node, "Building "+node.Name(), http.MethodPost, node.Item.BuildURI, nil, "")
}

// Delete removes the remote item after an explicit modal confirmation.
// Declining the confirmation aborts without any remote call.
func (e *Explorer) Delete(ctx context.Context, node *Node) error {
	if node.Item.DeleteURI == "" {
		return errCapabilityMissing("delete")
	}
	if e.ui == nil || !e.ui.Confirm(ctx, fmt.Sprintf("Delete %q? This cannot be undone.", node.Name())) {
		return nil
	}
	return e.runNodeAction(ctx, node, "Deleting "+node.Name(), http.MethodDelete, node.Item.DeleteURI, nil, "")
}

// CreateFile prompts for a name and asks the server to create a new file
// under the node. A dismissed or empty prompt aborts silently.
func (e *Explorer) CreateFile(ctx context.Context, node *Node) error {
	return e.createNamed(ctx, node, "New file name", node.Item.CreateFileURI, "createFile")
}

// CreateFolder prompts for a name and asks the server to create a new
// folder under the node. A dismissed or empty prompt aborts silently.
func (e *Explorer) CreateFolder(ctx context.Context, node *Node) error {
	return e.createNamed(ctx, node, "New folder name", node.Item.CreateFolderURI, "createFolder")
}

func (e *Explorer) createNamed(ctx context.Context, node *Node, prompt, capabilityURL, capability string) error {
	if capabilityURL == "" {
		return errCapabilityMissing(capability)
	}
	if e.ui == nil {
		return fmt.Errorf("no interaction host available")
	}
	name, ok := e.ui.PromptInput(ctx, prompt)
	if !ok || name == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return err
	}
	return e.runNodeAction(ctx, node, "Creating "+name, http.MethodPost, capabilityURL, payload, "application/json")
}

// UploadFiles asks the person to pick local files and uploads them to the
// node's upload-file capability URL.
func (e *Explorer) UploadFiles(ctx context.Context, node *Node) error {
	if node.Item.UploadFileURI == "" {
		return errCapabilityMissing("uploadFile")
	}
	if e.ui == nil {
		return fmt.Errorf("no interaction host available")
	}
	paths, ok := e.ui.PickFiles(ctx)
	if !ok || len(paths) == 0 {
		return nil
	}

	actionURL, err := vuri.Resolve(node.ServerURL, node.Item.UploadFileURI)
	if err != nil {
		return err
	}
	return e.finishAction(ctx, node, "Uploading files", func(ctx context.Context) (*magnus.ActionResponse, error) {
		return e.client.UploadFiles(ctx, actionURL, paths)
	})
}

// UploadFolder asks the person to pick a local folder and uploads its
// entire contents to the node's upload-folder capability URL. The
// client-side count and size guards fire before anything is sent.
func (e *Explorer) UploadFolder(ctx context.Context, node *Node) error {
	if node.Item.UploadFolderURI == "" {
		return errCapabilityMissing("uploadFolder")
	}
	if e.ui == nil {
		return fmt.Errorf("no interaction host available")
	}
	dir, ok := e.ui.PickFolder(ctx)
	if !ok || dir == "" {
		return nil
	}

	actionURL, err := vuri.Resolve(node.ServerURL, node.Item.UploadFolderURI)
	if err != nil {
		return err
	}
	return e.finishAction(ctx, node, "Uploading folder", func(ctx context.Context) (*magnus.ActionResponse, error) {
		return e.client.UploadFolder(ctx, actionURL, dir)
	})
}

// RemoteViewURL resolves the node's view capability URL to an absolute
// web URL for the host to open.
func (e *Explorer) RemoteViewURL(node *Node) (string, error) {
	if node.Item.ViewURI == "" {
		return "", errCapabilityMissing("view")
	}
	return vuri.Resolve(node.ServerURL, node.Item.ViewURI)
}

// CopyValue returns the node's copy-metadata value when the descriptor
// carries one.
func (e *Explorer) CopyValue(node *Node) (string, bool) {
	return node.Item.CopyValue, node.Item.CopyValue != ""
}

// runNodeAction resolves the capability URL, runs the remote action under
// a progress indication, surfaces the outcome message, and refreshes the
// node's parent.
func (e *Explorer) runNodeAction(ctx context.Context, node *Node, title, method, capabilityURL string, payload []byte, contentType string) error {
	if capabilityURL == "" {
		return errCapabilityMissing(method)
	}
	actionURL, err := vuri.Resolve(node.ServerURL, capabilityURL)
	if err != nil {
		return err
	}
	return e.finishAction(ctx, node, title, func(ctx context.Context) (*magnus.ActionResponse, error) {
		return e.client.RunAction(ctx, method, actionURL, payload, contentType)
	})
}

// finishAction is the shared tail of every action: progress, message
// surfacing, and best-effort parent refresh. The parent refresh happens
// even when the server reports the action as unsuccessful, so the tree
// reflects whatever state the server is now in.
func (e *Explorer) finishAction(ctx context.Context, node *Node, title string, run func(ctx context.Context) (*magnus.ActionResponse, error)) error {
	var action *magnus.ActionResponse

	do := func(ctx context.Context) error {
		var err error
		action, err = run(ctx)
		return err
	}

	var err error
	if e.ui != nil {
		err = e.ui.WithProgress(ctx, title, do)
	} else {
		err = do(ctx)
	}
	if err != nil {
		if e.ui != nil {
			e.ui.ShowError(fmt.Sprintf("%s failed: %v", title, err))
		}
		return err
	}

	message := action.ResponseMessage
	if e.ui != nil {
		switch {
		case action.ActionSuccessful:
			if message == "" {
				message = genericSuccessMessage
			}
			e.ui.ShowMessage(message)
		default:
			if message == "" {
				message = genericFailureMessage
			}
			e.ui.ShowError(message)
		}
	}

	e.refreshParent(node)
	e.log.Debug().
		Str("node", node.VirtualURI).
		Bool("successful", action.ActionSuccessful).
		Bool("async", action.IsAsynchronous).
		Msg("Action completed")
	return nil
}

func errCapabilityMissing(capability string) error {
	return fmt.Errorf("item does not support the %s action", capability)
}
