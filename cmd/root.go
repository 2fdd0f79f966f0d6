// Package cmd wires up the stash command set: a live-config store CLI
// built on the pkg/manager registration engine.
package cmd

import (
	"os"

	"stash/pkg/logging"
	"stash/pkg/manager"
	"stash/pkg/prompt"
)

// versionString is injected from main at build time.
var versionString = "dev"

// SetVersion sets the version reported by the version command.
// This function is typically called from the main package to inject the
// application version at build time.
func SetVersion(v string) {
	versionString = v
}

// storeOpts are the registration options shared by every command that
// touches the store: the --store flag with its STASH_PATH fallback.
func storeOpts() []manager.Option {
	return []manager.Option{
		manager.WithArg("store",
			manager.Help("Path to the store file."),
			manager.Shortcut("s"),
		),
		manager.WithEnv("store", "STASH_PATH"),
	}
}

// NewManager builds the registry with the full stash command set. Kept
// separate from Execute so tests can dispatch against buffers.
func NewManager() *manager.Manager {
	m := manager.New("stash")

	m.MustRegister(&Set{}, append(storeOpts(),
		manager.WithArg("path", manager.Help("Config path, namespace.key or bare key.")),
		manager.WithArg("value", manager.Help("Value to store.")),
	)...)

	m.MustRegister(&Get{}, append(storeOpts(),
		manager.WithArg("path", manager.Help("Config path to read.")),
	)...)

	m.MustRegister(&Delete{}, append(storeOpts(),
		manager.WithArg("path", manager.Help("Config path to remove.")),
	)...)

	m.MustRegister(&List{}, append(storeOpts(),
		manager.WithArg("namespace", manager.Help("Only list this namespace."), manager.Shortcut("n")),
		manager.WithArg("expand", manager.Help("Show full multi-line values.")),
	)...)
	// Without an explicit --namespace the filter can come from the
	// environment.
	m.BindEnv("list", manager.EnvBinding{
		Var: "STASH_NAMESPACE", Default: "", HasDefault: true, Param: "namespace",
	})

	m.MustRegister(&Reset{}, append(storeOpts(),
		manager.WithArg("force", manager.Help("Skip the confirmation prompt.")),
		manager.WithPrompt("force", prompt.Options{}),
	)...)

	m.MustRegister(&Snapshot{}, storeOpts()...)
	m.MustRegister(&Export{}, storeOpts()...)

	m.MustRegister(&Import{}, append(storeOpts(),
		manager.WithArg("file", manager.Help("Env blob file to import.")),
	)...)

	m.MustRegister(&SecretSet{}, append(storeOpts(),
		manager.WithName("set"),
		manager.WithNamespace("secret"),
		manager.WithArg("path", manager.Help("Config path for the secret.")),
		manager.WithPrompt("value", prompt.Options{Hidden: true, Confirm: true}),
	)...)

	m.MustRegister(&Version{})

	return m
}

// Execute is the main entry point for the CLI application. It builds the
// registry, dispatches os.Args and exits with the resulting status.
func Execute() {
	if os.Getenv("STASH_DEBUG") != "" {
		logging.Init(logging.LevelDebug, os.Stderr)
	}
	NewManager().Main()
}
