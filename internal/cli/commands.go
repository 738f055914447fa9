package cli

import (
	"fmt"
	"os"

	"floorplan/internal/editor"
	"floorplan/internal/render"
	"floorplan/internal/svgimport"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ============================================================
// Offline Commands
// ============================================================

func (a *app) newDeriveCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive the room/hallway adjacency graph of a plan",
		Long:  `Loads and validates the nodes of a Graph JSON file and prints the derived graph.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGraph(cmd, file)
			if err != nil {
				return err
			}
			store, err := a.loadStore(g)
			if err != nil {
				return err
			}
			out := store.Export()
			a.logger.Debug("derived", zap.Int("nodes", len(out.Nodes)), zap.Int("edges", len(out.Edges)))
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Graph JSON file, - for stdin (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) newRenderCmd() *cobra.Command {
	var (
		file   string
		view   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a Graph JSON file as SVG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := render.ParseView(view)
			if err != nil {
				return err
			}
			g, err := readGraph(cmd, file)
			if err != nil {
				return err
			}

			ec := a.cfg.Editor
			svg, err := render.NewRenderer(ec.CanvasWidth, ec.CanvasHeight, ec.GridUnit).Render(g, v)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), svg)
				return err
			}
			if err := os.WriteFile(output, []byte(svg), 0644); err != nil {
				return err
			}
			a.logger.Info("svg written", zap.String("file", output), zap.String("view", string(v)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Graph JSON file, - for stdin (required)")
	cmd.Flags().StringVar(&view, "view", string(render.ViewPlan), "plan or graph")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output SVG file (default stdout)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) newImportSVGCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import-svg",
		Short: "Convert an SVG floor plan into Graph JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			g, err := svgimport.Import(f)
			if err != nil {
				return err
			}
			store, err := a.loadStore(g)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), store.Export())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "SVG file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// ============================================================
// Layouts Commands
// ============================================================

func (a *app) newLayoutsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "Manage layouts stored in the layouts service",
	}
	cmd.AddCommand(
		a.newLayoutsListCmd(),
		a.newLayoutsGetCmd(),
		a.newLayoutsSaveCmd(),
		a.newLayoutsDeleteCmd(),
	)
	return cmd
}

func (a *app) newLayoutsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved layouts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.client().List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), items)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of layouts (0 = all)")
	return cmd
}

func (a *app) newLayoutsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a saved layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := a.client().Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), layout)
		},
	}
}

func (a *app) newLayoutsSaveCmd() *cobra.Command {
	var (
		name string
		file string
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Derive the graph of a plan and save it as a layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGraph(cmd, file)
			if err != nil {
				return err
			}
			store, err := a.loadStore(g)
			if err != nil {
				return err
			}
			if store.IsEmpty() {
				return editor.ErrEmptyLayout
			}

			id, err := a.client().Create(cmd.Context(), name, *store.Export())
			if err != nil {
				return err
			}
			a.logger.Info("layout saved", zap.String("id", id), zap.String("name", name))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "layout name (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Graph JSON file, - for stdin (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) newLayoutsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.logger.Info("layout deleted", zap.String("id", args[0]))
			return nil
		},
	}
}
