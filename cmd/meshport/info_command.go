package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshport/meshport/internal/replay"
	"github.com/meshport/meshport/internal/scene"
	"github.com/meshport/meshport/pkg/recording"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <recording>",
		Short: "Replay a recording and print scene statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmds, err := recording.DecodeFile(args[0])
			if err != nil {
				return err
			}

			res := replay.Run(cmds, ctx.log)

			var rows [][]string
			res.Graph.Walk(func(n *scene.Node) error {
				if n.Path.IsRoot() {
					return nil
				}
				kind := "group"
				verts := ""
				if g := n.Geometry; g != nil {
					kind = g.Kind.String()
					if g.Kind == recording.GeometryMesh {
						verts = fmt.Sprintf("%d", g.VertexCount())
					}
				}
				rows = append(rows, []string{string(n.Path), kind, verts})
				return nil
			})

			fmt.Println(renderTable([]string{"Path", "Kind", "Vertices"}, rows))

			var trackRows [][]string
			for _, tr := range res.Tracks.Tracks() {
				trackRows = append(trackRows, []string{
					string(tr.Path), tr.Property, fmt.Sprintf("%d", len(tr.Keys)),
				})
			}
			if len(trackRows) > 0 {
				fmt.Println(renderTable([]string{"Track", "Property", "Keys"}, trackRows))
			}

			fmt.Printf("%d commands, %d nodes, %d tracks\n", len(cmds), res.Graph.Len(), res.Tracks.Len())

			if len(res.Diagnostics) > 0 {
				fmt.Fprintf(os.Stderr, "%d commands skipped:\n", len(res.Diagnostics))
				for _, d := range res.Diagnostics {
					fmt.Fprintf(os.Stderr, "  %s\n", d)
				}
			}
			return nil
		},
	}
	return cmd
}
