package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	perrors "github.com/matzehuels/portalmap/pkg/errors"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [descriptor]",
		Short: "Check a descriptor and report dangling edges",
		Long: `Load a descriptor and report its layers, nodes and edges.

Duplicate node ids, unknown layers and empty labels fail the load. Edges
that reference unknown nodes are reported as warnings, since the router
leaves them out; --strict turns them into an error.`,
		Example: `  portalmap validate diagram.yaml
  portalmap validate --mongo-uri mongodb://localhost:27017 --strict`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, src, err := c.loadGraph(cmd.Context(), args)
			if err != nil {
				if src != nil {
					printError("Invalid descriptor %s", src)
				}
				if code := perrors.GetCode(err); code != "" {
					printDetail("%s: %s", code, perrors.UserMessage(err))
				}
				return err
			}

			printSuccess("Valid descriptor %s", src)
			if g.Title() != "" {
				printKeyValue("Title", g.Title())
			}
			for _, l := range g.Layers() {
				count := strconv.Itoa(len(g.NodesInLayer(l)))
				if p := len(g.PlaceholdersIn(l)); p > 0 {
					count += fmt.Sprintf(" + %d placeholder", p)
				}
				printKeyValue(l.Title(), count)
			}
			printStats(g.NodeCount(), g.EdgeCount(), len(g.DanglingEdges()))

			dangling := g.DanglingEdges()
			for _, e := range dangling {
				printWarning("Edge %s references an unknown node", e.Key())
			}
			if strict && len(dangling) > 0 {
				return fmt.Errorf("%d dangling edge(s)", len(dangling))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail on edges that reference unknown nodes")
	addSourceFlags(cmd.Flags())

	return cmd
}
