package magnus

import "context"

// Credentials is a username/password pair for one server.
type Credentials struct {
	Username string
	Password string
}

// CredentialStore persists one credential pair per server base URL.
// Implementations are expected to be opaque and secure; the explorer only
// ever addresses entries by the exact base URL string.
type CredentialStore interface {
	// Get returns the stored credentials for serverURL.
	// ok is false when no entry exists.
	Get(serverURL string) (creds Credentials, ok bool, err error)

	Set(serverURL string, creds Credentials) error

	Delete(serverURL string) error
}

// ServerListStore persists the ordered list of registered server base URLs.
// The list is always read and written as a whole.
type ServerListStore interface {
	Load() ([]string, error)
	Save(servers []string) error
}

// Interactor is the host-provided user interaction surface. The explorer
// calls back into it for prompts, pickers, confirmations, and progress;
// everything else flows through return values.
//
// Prompt-style methods report ok=false when the person dismissed the
// prompt. That is not an error.
type Interactor interface {
	// PromptCredentials asks for a username and password for serverURL.
	PromptCredentials(ctx context.Context, serverURL string) (creds Credentials, ok bool)

	// PromptInput asks for a single line of free text.
	PromptInput(ctx context.Context, prompt string) (value string, ok bool)

	// Confirm shows a modal yes/no confirmation.
	Confirm(ctx context.Context, message string) bool

	// PickFiles asks the person to select one or more local files.
	PickFiles(ctx context.Context) (paths []string, ok bool)

	// PickFolder asks the person to select a single local folder.
	PickFolder(ctx context.Context) (path string, ok bool)

	ShowMessage(message string)
	ShowError(message string)

	// WithProgress runs fn while a progress indication titled title is
	// visible. The indication is cosmetic; fn is not cancellable through it.
	WithProgress(ctx context.Context, title string, fn func(ctx context.Context) error) error
}

// Disposable releases a subscription or watch handle.
type Disposable interface {
	Dispose()
}

// DisposableFunc adapts a plain func to [Disposable].
type DisposableFunc func()

func (f DisposableFunc) Dispose() {
	if f != nil {
		f()
	}
}
