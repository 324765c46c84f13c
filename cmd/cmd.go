// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// dedupeCommand reduces a title list to one canonical entry per song
func dedupeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "dedupe",
		Aliases: []string{"dd"},
		Usage:   "Remove duplicate and annotated variants from a title list",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "input"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Where to write the deduplicated list (defaults to dedupe.output)",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Also write a report; format follows the extension (.csv, .md, .txt)",
			},
			&cli.IntFlag{
				Name:  "suggest",
				Usage: "List kept titles whose keys are within N edits of each other",
				Value: -1,
			},
		},
		Action: r.Dedupe,
	}
}

// runCommand hands every pending title of a file to the performer
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Process a title file from its saved cursor, halting on the first failure",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Flags: []cli.Flag{
			storeFlag(),
			&cli.StringFlag{
				Name:  "performer",
				Usage: "Work unit: command, clipboard or dryrun (defaults to performer.kind)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "List the pending titles without performing them",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the run summary as JSON",
			},
		},
		Action: r.Run,
	}
}

// progressCommand inspects and edits saved cursors and run history
func progressCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "progress",
		Aliases: []string{"p"},
		Usage:   "Inspect and edit saved cursors",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List every file with a saved cursor",
				Flags:  []cli.Flag{storeFlag()},
				Action: r.ProgressList,
			},
			{
				Name:  "show",
				Usage: "Show the cursor for one file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
				},
				Flags:  []cli.Flag{storeFlag()},
				Action: r.ProgressShow,
			},
			{
				Name:  "set",
				Usage: "Set the cursor for a file (0-based index of the next line)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
					&cli.StringArg{Name: "n"},
				},
				Flags:  []cli.Flag{storeFlag()},
				Action: r.ProgressSet,
			},
			{
				Name:  "reset",
				Usage: "Forget the cursor for a file so the next run starts at line 1",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
				},
				Flags:  []cli.Flag{storeFlag()},
				Action: r.ProgressReset,
			},
			{
				Name:  "history",
				Usage: "List past runs, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "Only runs over this file",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
				},
				Action: r.ProgressHistory,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive runs.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Review the pending queue and run it interactively",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Flags: []cli.Flag{
			storeFlag(),
			&cli.StringFlag{
				Name:  "performer",
				Usage: "Work unit: command, clipboard or dryrun (defaults to performer.kind)",
			},
		},
		Action: r.TUI,
	}
}

func storeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "store",
		Usage: "Progress store: sqlite or json (defaults to progress.store)",
	}
}
