// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/desertthunder/ldx/internal/formatter"
	"github.com/desertthunder/ldx/internal/scanner"
	"github.com/urfave/cli/v3"
)

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func yesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Skip the confirmation prompt",
	}
}

func engineFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "engine",
		Aliases: []string{"e"},
		Usage:   fmt.Sprintf("Decoding engine (%s); defaults to the configured engine", strings.Join(scanner.Engines, ", ")),
	}
}

// itemFlags are the editable LaserDisc fields, one flag per form field.
func itemFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "upc", Usage: "Product code"},
		&cli.StringFlag{Name: "title", Usage: "Title"},
		&cli.StringFlag{Name: "year", Usage: "Release year"},
		&cli.StringFlag{Name: "director", Usage: "Director"},
		&cli.StringFlag{Name: "genre", Usage: "Genre"},
		&cli.StringFlag{Name: "format", Usage: "Disc format (CLV, CAV, ...)"},
		&cli.StringFlag{Name: "sides", Usage: "Number of sides"},
		&cli.StringFlag{Name: "runtime", Usage: "Runtime in minutes"},
		&cli.StringFlag{Name: "notes", Usage: "Notes (markdown)"},
	}
}

// setupCommand initializes the config file and the database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file, initialize the database and run migrations",
		Action: r.SetupDatabase,
	}
}

// migrateCommand inspects and steps the embedded migrations
func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Database migration operations",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "List migrations and whether they are applied",
				Action: r.MigrateStatus,
			},
			{
				Name:   "up",
				Usage:  "Apply pending migrations",
				Action: r.MigrateUp,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.MigrateRollback,
			},
		},
	}
}

// authCommand manages the access token
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Access token operations",
		Commands: []*cli.Command{
			{
				Name:      "login",
				Usage:     "Validate and store an access token (WORD-WORD-NNNN)",
				ArgsUsage: "[token]",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "token"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "browser",
						Usage: "Open the backend's sign-in page before prompting for the token",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored access token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Check the stored access token against the backend",
				Action: r.AuthStatus,
			},
		},
	}
}

// collectionCommand lists and edits the collection
func collectionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "collection",
		Aliases: []string{"ls"},
		Usage:   "LaserDisc collection operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List a page of the collection",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Search term"},
					&cli.IntFlag{Name: "offset", Usage: "Offset of the first item"},
					&cli.StringFlag{Name: "sort", Usage: "Sort key (title, year, director, added_date, genre, runtime, upc)"},
					&cli.StringFlag{Name: "order", Usage: "Sort order (asc, desc)"},
					&cli.StringFlag{Name: "filter", Usage: "Watched filter (all, watched, unwatched)"},
				}, outputFlags()...),
				Action: r.CollectionList,
			},
			{
				Name:      "find",
				Usage:     "Fuzzy find titles, directors and genres on the first page",
				ArgsUsage: "<pattern>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "pattern"},
				},
				Flags:  outputFlags(),
				Action: r.CollectionFind,
			},
			{
				Name:   "add",
				Usage:  "Add a LaserDisc",
				Flags:  itemFlags(),
				Action: r.CollectionAdd,
			},
			{
				Name:      "edit",
				Usage:     "Update the given fields of a LaserDisc",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  itemFlags(),
				Action: r.CollectionEdit,
			},
			{
				Name:      "watched",
				Usage:     "Toggle the watched flag of a LaserDisc",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.CollectionWatched,
			},
			{
				Name:      "delete",
				Usage:     "Delete a LaserDisc",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{yesFlag()},
				Action: r.CollectionDelete,
			},
		},
	}
}

// bulkCommand runs an operation over several ids
func bulkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "bulk",
		Usage: "Bulk operations over LaserDisc ids",
		Commands: []*cli.Command{
			{
				Name:      "watched",
				Usage:     "Mark the given LaserDiscs as watched",
				ArgsUsage: "<id>...",
				Action:    r.BulkWatched,
			},
			{
				Name:      "delete",
				Usage:     "Delete the given LaserDiscs",
				ArgsUsage: "<id>...",
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.BulkDelete,
			},
		},
	}
}

// lookupCommand queries the reference database
func lookupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "Look up a product code or catalog reference",
		ArgsUsage: "<code>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "code"},
		},
		Flags: append([]cli.Flag{
			&cli.BoolFlag{Name: "add", Usage: "Add the result to the collection"},
		}, outputFlags()...),
		Action: r.Lookup,
	}
}

// randomCommand picks an unwatched LaserDisc
func randomCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "random",
		Usage: "Pick a random unwatched LaserDisc",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{Name: "watch", Usage: "Mark the pick as watched"},
		}, outputFlags()...),
		Action: r.Random,
	}
}

// scanCommand reads a barcode with a decoding engine
func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Scan a barcode and look it up",
		Flags: []cli.Flag{
			engineFlag(),
			&cli.BoolFlag{Name: "add", Usage: "Add the scanned LaserDisc to the collection"},
			&cli.DurationFlag{Name: "timeout", Usage: "Give up after this long (0 waits forever)"},
		},
		Action: r.Scan,
		Commands: []*cli.Command{
			{
				Name:  "history",
				Usage: "List recently accepted scans",
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum number of scans", Value: 20},
				}, outputFlags()...),
				Action: r.ScanHistory,
			},
			{
				Name:  "prune",
				Usage: "Delete all but the most recent scans",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "keep", Usage: "Number of scans to keep", Value: 100},
				},
				Action: r.ScanPrune,
			},
		},
	}
}

// serveCommand runs the remote scan server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Accept barcode detections from a paired phone",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (defaults to server.host)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (defaults to server.port)"},
			&cli.BoolFlag{Name: "add", Usage: "Add every LaserDisc found to the collection"},
			&cli.BoolFlag{Name: "open", Usage: "Open the pairing page in a browser"},
		},
		Action: r.Serve,
	}
}

// exportCommand writes the whole collection to a file
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the collection",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   fmt.Sprintf("Export format (%s)", strings.Join(formatter.Formats(), ", ")),
				Value:   "json",
			},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path (defaults to stdout)"},
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Search term"},
			&cli.StringFlag{Name: "filter", Usage: "Watched filter (all, watched, unwatched)"},
		},
		Action: r.Export,
		Commands: []*cli.Command{
			{
				Name:  "covers",
				Usage: "Download the cover art of every LaserDisc",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "Destination directory", Value: "covers"},
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Search term"},
				},
				Action: r.ExportCovers,
			},
		},
	}
}

// tuiCommand launches the terminal UI
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive terminal UI",
		Flags:  []cli.Flag{engineFlag()},
		Action: r.TUI,
	}
}
