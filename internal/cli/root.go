// Package cli реализует planctl: офлайн-построение графа, рендер, импорт SVG
// и работу с сервисом раскладок.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"floorplan/internal/common/config"
	"floorplan/internal/common/observability"
	"floorplan/internal/editor"
	"floorplan/internal/layouts/client"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ============================================================
// Root Command
// ============================================================

type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
}

// NewRootCmd собирает дерево команд planctl.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "planctl",
		Short:         "Floor plan tooling: derive adjacency graphs, render SVG, manage saved layouts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "YAML config file")
	flags.String("layouts-url", "", "layouts service base URL")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("layouts_url", flags.Lookup("layouts-url"))
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))

	root.AddCommand(
		a.newDeriveCmd(),
		a.newRenderCmd(),
		a.newImportSVGCmd(),
		a.newLayoutsCmd(),
	)
	return root
}

// Execute запускает planctl с контекстом из main.
func Execute(ctx context.Context) error {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) init(stderr io.Writer) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", a.cfgFile, err)
		}
	}

	a.cfg = config.FromViper(a.v)
	a.cfg.Logger.ServiceName = "planctl"
	// файл логов сервиса не нужен утилите
	a.cfg.Logger.LogFile = ""
	a.logger = observability.NewLoggerTo(a.cfg.Logger, zapcore.AddSync(stderr))
	return nil
}

func (a *app) client() *client.Client {
	return client.New(a.cfg.LayoutsURL, a.cfg.UpstreamTimeout)
}

// ============================================================
// Helpers
// ============================================================

// readGraph читает Graph JSON из файла или stdin ("-").
func readGraph(cmd *cobra.Command, path string) (*editor.Graph, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var g editor.Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &g, nil
}

// loadStore проверяет граф через LoadShapes, как это делает редактор.
func (a *app) loadStore(g *editor.Graph) (*editor.Store, error) {
	store := editor.NewStore(
		editor.WithGridUnit(a.cfg.Editor.GridUnit),
		editor.WithCanvas(a.cfg.Editor.CanvasWidth, a.cfg.Editor.CanvasHeight),
	)
	if err := store.LoadShapes(g); err != nil {
		return nil, err
	}
	return store, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
