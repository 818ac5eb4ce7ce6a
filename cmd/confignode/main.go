// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/mdhender/confignode"
	"github.com/mdhender/confignode/loader"
	store "github.com/mdhender/confignode/stores/sqlite"
	"github.com/spf13/cobra"
)

func main() {
	addFlags := func(cmd *cobra.Command) error {
		cmd.PersistentFlags().Bool("debug", false, "log debugging information")
		cmd.PersistentFlags().Bool("log-with-default-flags", false, "log with default flags")
		cmd.PersistentFlags().Bool("log-with-shortfile", true, "log with short file name")
		cmd.PersistentFlags().Bool("log-with-timestamp", false, "log with timestamp")
		cmd.PersistentFlags().Bool("quiet", false, "log less information")
		cmd.PersistentFlags().Bool("show-version", false, "show version")
		cmd.PersistentFlags().Bool("verbose", false, "log more information")
		return nil
	}
	var cmdRoot = &cobra.Command{
		Use:   "confignode",
		Short: "ConfigNode command line utility",
		Long:  `Read, query, and import Kerbal Space Program ConfigNode files (saves, craft, part configs).`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logWithDefaultFlags, _ := cmd.Flags().GetBool("log-with-default-flags")
			logWithShortFileName, _ := cmd.Flags().GetBool("log-with-shortfile")
			logWithTimestamp, _ := cmd.Flags().GetBool("log-with-timestamp")
			logFlags := 0
			if logWithShortFileName {
				logFlags |= log.Lshortfile
			}
			if logWithTimestamp {
				logFlags |= log.Ltime
			}
			if logWithDefaultFlags || logFlags == 0 {
				logFlags = log.LstdFlags
			}
			log.SetFlags(logFlags)

			if showVersion, _ := cmd.Flags().GetBool("show-version"); showVersion {
				fmt.Printf("confignode: version %q\n", confignode.Version().Core())
			}

			return nil
		},
	}
	cmdRoot.AddCommand(cmdSavefile())
	cmdRoot.AddCommand(cmdParse())
	cmdRoot.AddCommand(cmdGet())
	cmdRoot.AddCommand(cmdImport())
	cmdRoot.AddCommand(cmdQuery())
	cmdRoot.AddCommand(cmdVersion())
	if err := addFlags(cmdRoot); err != nil {
		log.Fatal(err)
	}

	if err := cmdRoot.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger returns the logger handed to the loader and parser, or nil
// when neither --debug nor --verbose is set.
func newLogger(cmd *cobra.Command) *slog.Logger {
	quiet, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")
	debug, _ := cmd.Flags().GetBool("debug")
	if quiet {
		return nil
	}
	var level slog.Level
	switch {
	case debug:
		level = slog.LevelDebug
	case verbose:
		level = slog.LevelInfo
	default:
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newLoader(cmd *cobra.Command, opts ...loader.Option) *loader.Loader {
	if logger := newLogger(cmd); logger != nil {
		opts = append(opts, loader.WithLogger(logger))
	}
	return loader.New(nil, opts...)
}

// loadFile loads a single file, printing a diagnostic with the offending
// source line when the file does not parse.
func loadFile(cmd *cobra.Command, path string) (*confignode.Node, error) {
	root, err := newLoader(cmd).LoadFile(path)
	if err != nil {
		printDiagnostic(err)
		return nil, err
	}
	return root, nil
}

func printDiagnostic(err error) {
	var syntaxErr *loader.ErrParseSyntax
	if !errors.As(err, &syntaxErr) {
		return
	}
	if diag, ok := confignode.NewDiagnostic(syntaxErr.Err); ok {
		confignode.PrintDiagnostic(os.Stderr, diag, syntaxErr.Path, syntaxErr.Source)
	}
}

func cmdSavefile() *cobra.Command {
	var cmd = &cobra.Command{
		Use:          "savefile <persistent.sfs>",
		Short:        "show the title and version of a saved game",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1), // require path to save file
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := loadFile(cmd, args[0])
			if err != nil {
				return err
			}
			game, ok := root.Child("GAME")
			if !ok {
				return fmt.Errorf("%s: missing GAME node", args[0])
			}
			for _, field := range []struct{ label, key string }{
				{"Title", "Title"},
				{"Version", "version"},
				{"Version created", "versionCreated"},
			} {
				text, ok := game.Text(field.key)
				if !ok {
					return fmt.Errorf("%s: GAME: missing %s", args[0], field.key)
				}
				fmt.Printf("%s: %s\n", field.label, text)
			}
			return nil
		},
	}
	return cmd
}

func cmdParse() *cobra.Command {
	var maxDepth int
	var outputFile string
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().IntVar(&maxDepth, "max-depth", confignode.DefaultMaxDepth, "maximum node nesting, 0 for no limit")
		cmd.Flags().StringVarP(&outputFile, "output", "o", outputFile, "save parse to file")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "parse <config-file>",
		Short:        "parse a ConfigNode file and print it as JSON",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1), // require path to config file
		RunE: func(cmd *cobra.Command, args []string) error {
			started := time.Now()
			root, err := newLoader(cmd, loader.WithParseOptions(confignode.WithMaxDepth(maxDepth))).LoadFile(args[0])
			if err != nil {
				printDiagnostic(err)
				return err
			}
			data, err := json.MarshalIndent(root, "", "  ")
			if err != nil {
				return err
			}
			if outputFile == "" {
				fmt.Printf("%s\n", string(data))
			} else if err = os.WriteFile(outputFile, data, 0o644); err != nil {
				return err
			} else if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
				log.Printf("%s: wrote %d bytes in %v\n", outputFile, len(data), time.Since(started))
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdGet() *cobra.Command {
	var cmd = &cobra.Command{
		Use:          "get <config-file> <key> [<key>...]",
		Short:        "print the value at a key path",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(2), // require a file and at least one key
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := loadFile(cmd, args[0])
			if err != nil {
				return err
			}
			v, ok := root.Lookup(args[1:]...)
			if !ok {
				return fmt.Errorf("%s: %q: not found", args[0], args[1:])
			}
			if text, ok := v.AsText(); ok {
				fmt.Println(text)
				return nil
			}
			data, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", string(data))
			return nil
		},
	}
	return cmd
}

func cmdImport() *cobra.Command {
	var dbPath string
	var initDB bool
	var workers int
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVar(&dbPath, "db", dbPath, "path to the SQLite database")
		cmd.Flags().BoolVar(&initDB, "init-db", initDB, "create and initialize the database")
		cmd.Flags().IntVar(&workers, "workers", 0, "files to parse at once (default: number of CPUs)")
		return cmd.MarkFlagRequired("db")
	}
	var cmd = &cobra.Command{
		Use:          "import --db <database> <config-file> [<config-file>...]",
		Short:        "parse ConfigNode files and save them to a database",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1), // require at least one file
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			quiet, _ := cmd.Flags().GetBool("quiet")

			if initDB {
				if err := store.InitDatabase(dbPath); err != nil {
					return err
				}
				log.Printf("%s: created database\n", dbPath)
			}
			sqlStore, err := store.NewSQLiteStoreWithConfig(store.StoreConfig{Path: dbPath})
			if err != nil {
				return err
			}
			defer sqlStore.Close()

			started := time.Now()
			results, err := newLoader(cmd, loader.WithWorkers(workers)).LoadAll(ctx, args)
			if err != nil {
				return err
			}

			var failed int
			for _, r := range results {
				if r.Err != nil {
					failed++
					printDiagnostic(r.Err)
					log.Printf("%s: %s: %v\n", r.Path, loader.ErrorCode(r.Err), r.Err)
					continue
				}
				if _, err := sqlStore.SaveDocument(ctx, r.Path, r.Root); err != nil {
					return fmt.Errorf("%s: save: %w", r.Path, err)
				}
				if !quiet {
					log.Printf("%s: imported %d top-level entries\n", r.Path, r.Root.Len())
				}
			}
			log.Printf("imported %d of %d files in %v\n", len(results)-failed, len(results), time.Since(started))
			if failed != 0 {
				return fmt.Errorf("%d files failed to import", failed)
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdQuery() *cobra.Command {
	var dbPath string
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVar(&dbPath, "db", dbPath, "path to the SQLite database")
		return cmd.MarkFlagRequired("db")
	}
	var cmd = &cobra.Command{
		Use:          "query --db <database> [<document> [<key>...]]",
		Short:        "list saved documents, or look up an entry in one",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			sqlStore, err := store.NewSQLiteStoreWithConfig(store.StoreConfig{Path: dbPath})
			if err != nil {
				return err
			}
			defer sqlStore.Close()

			if len(args) == 0 {
				docs, err := sqlStore.Documents(ctx)
				if err != nil {
					return err
				}
				for _, d := range docs {
					fmt.Printf("%-40s %6d entries  %s\n", d.Name, d.Entries, d.CreatedAt.Format(time.RFC3339))
				}
				return nil
			}

			name, path := args[0], args[1:]
			if len(path) != 0 {
				e, err := sqlStore.Lookup(ctx, name, path...)
				if err != nil {
					return err
				} else if e == nil {
					return fmt.Errorf("%s: %q: not found", name, path)
				} else if !e.IsNode {
					fmt.Println(e.Text)
					return nil
				}
			}

			children, err := sqlStore.Children(ctx, name, path...)
			if err != nil {
				return err
			}
			for _, e := range children {
				if e.IsNode {
					fmt.Printf("%s { ... }\n", e.Key)
				} else {
					fmt.Printf("%s = %s\n", e.Key, e.Text)
				}
			}
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func cmdVersion() *cobra.Command {
	showBuildInfo := false
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().BoolVar(&showBuildInfo, "build-info", showBuildInfo, "show build information")
		return nil
	}
	var cmd = &cobra.Command{
		Use:   "version",
		Short: "display the application's version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showBuildInfo {
				fmt.Println(confignode.Version().String())
				return nil
			}
			fmt.Println(confignode.Version().Core())
			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}
