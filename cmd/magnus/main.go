package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Triumph-Tech/magnus"
	"github.com/Triumph-Tech/magnus/api"
	"github.com/Triumph-Tech/magnus/config"
	"github.com/Triumph-Tech/magnus/explorer"
	"github.com/Triumph-Tech/magnus/internal/util"
	"github.com/Triumph-Tech/magnus/stores"
	"github.com/Triumph-Tech/magnus/vuri"
)

const usage = `Usage: magnus [flags] <command> [args]

Commands:
  servers                    List registered servers
  add <server-url>           Register a server (prompts for credentials)
  remove <server-url>        Unregister a server
  ls [virtual-uri]           List tree roots, or the children of an item
  stat <virtual-uri>         Show file metadata
  cat <virtual-uri>          Print file content to stdout
  put <virtual-uri> <file>   Replace file content from a local file
`

func main() {
	var (
		verbose    int
		configPath string
		stateDir   string
	)
	flag.StringVar(&configPath, "config", "", "Path to config override file (yaml or json)")
	flag.StringVar(&configPath, "c", "", "--config (shorthand)")
	flag.StringVar(&stateDir, "state", "", "Directory for server list and credentials. Default is ~/.config/magnus.")
	flag.IntVar(&verbose, "verbose", 3, "Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	flag.IntVar(&verbose, "v", 3, "--verbose (shorthand)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	// Initialize logger
	if verbose < 1 {
		verbose = 1
	}
	if verbose > 5 {
		verbose = 5
	}
	logLvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	util.InitializeLogger(logLvls[verbose-1])
	logger := util.GetLogger("main")

	cfg := config.NewDefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = config.NewConfigFromFile(configPath)
		if err != nil {
			logger.Fatal().Err(err).Str("config", configPath).Msg("Failed to load config file")
		}
	}

	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			logger.Fatal().Err(err).Msg("Cannot determine home directory; pass -state")
		}
		stateDir = filepath.Join(home, ".config", "magnus")
	}

	ui := &consoleInteractor{in: bufio.NewReader(os.Stdin)}
	creds := stores.NewFileCredentialStore(filepath.Join(stateDir, "credentials.yml"))
	servers := stores.NewFileServerListStore(filepath.Join(stateDir, "servers.yml"))
	sessions := api.NewSessionStore(cfg.ReadTimeout, creds, ui)
	client := api.NewClient(cfg, sessions)
	ex := explorer.New(cfg, client, creds, servers, ui)

	ctx := context.Background()
	cmd := flag.Arg(0)
	var err error
	switch cmd {
	case "servers":
		err = listServers(servers)
	case "add":
		err = addServer(ctx, ex, ui, flag.Arg(1))
	case "remove":
		err = ex.RemoveServer(ctx, flag.Arg(1))
	case "ls":
		err = list(ctx, ex, flag.Arg(1))
	case "stat":
		err = stat(ctx, ex, flag.Arg(1))
	case "cat":
		err = cat(ctx, ex, flag.Arg(1))
	case "put":
		err = put(ctx, ex, flag.Arg(1), flag.Arg(2))
	case "":
		flag.Usage()
		os.Exit(2)
	default:
		logger.Fatal().Str("command", cmd).Msg("Unknown command")
	}
	if err != nil {
		logger.Fatal().Err(err).Str("command", cmd).Msg("Command failed")
	}
}

func listServers(servers magnus.ServerListStore) error {
	urls, err := servers.Load()
	if err != nil {
		return err
	}
	for _, u := range urls {
		fmt.Println(u)
	}
	return nil
}

func addServer(ctx context.Context, ex *explorer.Explorer, ui *consoleInteractor, serverURL string) error {
	if serverURL == "" {
		return ex.AddServerInteractive(ctx)
	}
	creds, ok := ui.PromptCredentials(ctx, serverURL)
	if !ok {
		return nil
	}
	return ex.RegisterServer(ctx, serverURL, creds)
}

func list(ctx context.Context, ex *explorer.Explorer, virtualURI string) error {
	var nodes []*explorer.Node
	var err error
	if virtualURI == "" {
		nodes, err = ex.Roots(ctx)
	} else {
		var parent *explorer.Node
		parent, err = nodeFromURI(virtualURI)
		if err != nil {
			return err
		}
		nodes, err = ex.Children(ctx, parent)
	}
	if err != nil {
		return err
	}
	for _, n := range nodes {
		kind := "file"
		if n.Item.IsFolder {
			kind = "dir"
		}
		fmt.Printf("%-4s  %-40s  %s\n", kind, n.Name(), n.VirtualURI)
	}
	return nil
}

func stat(ctx context.Context, ex *explorer.Explorer, virtualURI string) error {
	info, err := ex.Stat(ctx, virtualURI)
	if err != nil {
		return err
	}
	fmt.Printf("size:     %d\n", info.Size)
	fmt.Printf("created:  %s\n", info.CreatedTime)
	fmt.Printf("modified: %s\n", info.ModifiedTime)
	fmt.Printf("readonly: %t\n", info.ReadOnly)
	return nil
}

func cat(ctx context.Context, ex *explorer.Explorer, virtualURI string) error {
	data, err := ex.ReadFile(ctx, virtualURI)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func put(ctx context.Context, ex *explorer.Explorer, virtualURI, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	return ex.WriteFile(ctx, virtualURI, data)
}

// nodeFromURI reconstructs a listable node from a bare virtual
// identifier, for when the in-process lookup tables have no entry (every
// CLI invocation starts cold).
func nodeFromURI(virtualURI string) (*explorer.Node, error) {
	webURL, err := vuri.ToWebURL(virtualURI)
	if err != nil {
		return nil, err
	}
	serverURL, err := vuri.ServerBase(webURL)
	if err != nil {
		return nil, err
	}
	return &explorer.Node{
		ServerURL:  serverURL,
		VirtualURI: virtualURI,
		Item:       magnus.ItemDescriptor{URI: webURL, IsFolder: true},
	}, nil
}

// consoleInteractor satisfies the interaction contract on a terminal.
// Prompts read line input from stdin; a blank line counts as dismissal.
type consoleInteractor struct {
	in *bufio.Reader
}

func (c *consoleInteractor) readLine(prompt string) (string, bool) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := c.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil || line == "" {
		return "", false
	}
	return line, true
}

func (c *consoleInteractor) PromptCredentials(ctx context.Context, serverURL string) (magnus.Credentials, bool) {
	username, ok := c.readLine("Username for " + serverURL + ": ")
	if !ok {
		return magnus.Credentials{}, false
	}
	password, ok := c.readLine("Password: ")
	if !ok {
		return magnus.Credentials{}, false
	}
	return magnus.Credentials{Username: username, Password: password}, true
}

func (c *consoleInteractor) PromptInput(ctx context.Context, prompt string) (string, bool) {
	return c.readLine(prompt + ": ")
}

func (c *consoleInteractor) Confirm(ctx context.Context, message string) bool {
	answer, ok := c.readLine(message + " [y/N]: ")
	return ok && strings.EqualFold(answer, "y")
}

func (c *consoleInteractor) PickFiles(ctx context.Context) ([]string, bool) {
	line, ok := c.readLine("Local files (space separated): ")
	if !ok {
		return nil, false
	}
	return strings.Fields(line), true
}

func (c *consoleInteractor) PickFolder(ctx context.Context) (string, bool) {
	return c.readLine("Local folder: ")
}

func (c *consoleInteractor) ShowMessage(message string) {
	fmt.Fprintln(os.Stderr, message)
}

func (c *consoleInteractor) ShowError(message string) {
	fmt.Fprintln(os.Stderr, "Error: "+message)
}

func (c *consoleInteractor) WithProgress(ctx context.Context, title string, fn func(ctx context.Context) error) error {
	fmt.Fprintln(os.Stderr, title+"...")
	return fn(ctx)
}

var _ magnus.Interactor = (*consoleInteractor)(nil)
