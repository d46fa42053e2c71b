package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pyview/hiergraph/pkg/entity"
	hgerrors "github.com/pyview/hiergraph/pkg/errors"
	"github.com/pyview/hiergraph/pkg/pipeline"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for hiergraph.

  bash:        source <(hiergraph completion bash)
  zsh:         hiergraph completion zsh > "${fpath[1]}/_hiergraph"
  fish:        hiergraph completion fish | source
  powershell:  hiergraph completion powershell | Out-String | Invoke-Expression

Completions cover view levels, output formats and entity kinds.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}
}

// registerCompletions attaches value completions to the flags of every
// subcommand that defines them.
func registerCompletions(root *cobra.Command) {
	for _, cmd := range root.Commands() {
		complete(cmd, "level", completeLevels)
		complete(cmd, "format", completeFormats)
		complete(cmd, "kind", completeKinds)
	}
}

func complete(cmd *cobra.Command, flag string, fn cobra.CompletionFunc) {
	if cmd.Flags().Lookup(flag) == nil {
		return
	}
	_ = cmd.RegisterFlagCompletionFunc(flag, fn)
}

func completeLevels(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
	var out []cobra.Completion
	for level := 0; level <= hgerrors.MaxViewLevel; level++ {
		out = append(out, cobra.CompletionWithDesc(fmt.Sprint(level), entity.LevelName(level)))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeFormats completes comma-separated format lists, offering only
// formats not already named.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	prefix := ""
	seen := map[string]bool{}
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
		for _, f := range strings.Split(toComplete[:i], ",") {
			seen[strings.TrimSpace(f)] = true
		}
	}
	var out []cobra.Completion
	for _, f := range pipeline.Formats {
		if !seen[f] {
			out = append(out, prefix+f)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

func completeKinds(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
	out := make([]cobra.Completion, 0, len(entity.Kinds))
	for _, k := range entity.Kinds {
		out = append(out, k.String())
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
