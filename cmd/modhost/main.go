package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/script-host/engine"
	"github.com/wippyai/script-host/graph"
	"github.com/wippyai/script-host/loader"
	"github.com/wippyai/script-host/registry"
)

func main() {
	var (
		root        = flag.String("root", "", "Root module to load (path relative to -dir)")
		dir         = flag.String("dir", ".", "Module root directory")
		importMap   = flag.String("importmap", "", "YAML import map file (optional)")
		snapshotOut = flag.String("snapshot", "", "Write the registry snapshot payload to this file")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *root == "" {
		fmt.Fprintln(os.Stderr, "Usage: modhost -root <module.wasm> [-dir <path>] [-importmap <map.yaml>]")
		fmt.Fprintln(os.Stderr, "       modhost -root <module.wasm> -snapshot <out.bin>")
		fmt.Fprintln(os.Stderr, "       modhost -root <module.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			registry.SetLogger(logger)
			graph.SetLogger(logger)
		}
	}

	if err := run(*root, *dir, *importMap, *snapshotOut, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(root, dir, importMapPath, snapshotOut string, interactive bool) error {
	ctx := context.Background()

	opts := loader.FSOptions{}
	if importMapPath != "" {
		m, err := loader.LoadImportMap(importMapPath)
		if err != nil {
			return err
		}
		opts.ImportMap = m
	}

	eng, err := engine.NewWazero(ctx)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	defer eng.Close(ctx)

	reg := registry.New(loader.NewFSWithOptions(dir, opts), eng)

	rootID, err := graph.LoadMain(ctx, reg, root)
	if err != nil {
		return err
	}

	if snapshotOut != "" {
		payload, err := reg.EncodeSnapshot()
		if err != nil {
			return err
		}
		if err := os.WriteFile(snapshotOut, payload, 0o644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		fmt.Printf("snapshot: %d bytes -> %s\n", len(payload), snapshotOut)
	}

	if interactive {
		return runInteractive(reg, rootID)
	}

	printGraph(reg, rootID)
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	mainMarkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func printGraph(reg *registry.Registry, rootID registry.ModuleID) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("module graph (%d modules, root #%d)", reg.Len(), rootID)))

	for _, info := range reg.Modules() {
		mark := " "
		if info.Main {
			mark = mainMarkStyle.Render("*")
		}
		fmt.Printf("%s #%-3d %-7s %s\n", mark, info.ID, info.Type, info.Name)
		for _, req := range info.Requests {
			fmt.Printf("      %s\n", dimStyle.Render(fmt.Sprintf("-> %s (%s)", req.Specifier, req.AssertedType)))
		}
	}

	for _, at := range []registry.AssertedType{registry.AssertedScript, registry.AssertedJSON} {
		aliases := reg.Aliases(at)
		for name, target := range aliases {
			fmt.Printf("  %s\n", dimStyle.Render(fmt.Sprintf("%s => %s (%s)", name, target, at)))
		}
	}
}
