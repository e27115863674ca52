// Package cli contains the contactscan command line interface.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	generalFlagConfig  = "config"
	generalFlagDebug   = "debug"
	generalFlagLogFile = "log-file"

	detectFlagScene     = "scene"
	detectFlagPrecision = "precision"
	detectFlagSubsteps  = "substeps"
	detectFlagPolicy    = "policy"
	detectFlagEpsilon   = "epsilon"
	detectFlagMargin    = "margin"
	detectFlagTargets   = "targets"
	detectFlagColliders = "colliders"
	detectFlagOut       = "out"
	detectFlagTable     = "table"
	detectFlagTimeout   = "timeout"
	detectFlagWatch     = "watch"

	inspectFlagHistogram = "histogram"
)

var app = &cli.App{
	Name:            "contactscan",
	Usage:           "find the moments animated bodies come into contact",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.StringFlag{
			Name:  generalFlagLogFile,
			Usage: "also write logs to `FILE`, rotated by size",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "detect",
			Usage:     "scan a scene for collision events",
			UsageText: "contactscan detect [--config FILE | --scene FILE --targets NAME --colliders NAME] [other options]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    generalFlagConfig,
					Aliases: []string{"c"},
					Usage:   "load configuration from `FILE`",
				},
				&cli.StringFlag{
					Name:  detectFlagScene,
					Usage: "scene `FILE` to scan (json or toml); overrides the config",
				},
				&cli.BoolFlag{
					Name:  detectFlagPrecision,
					Usage: "refine onsets to sub-frame times",
				},
				&cli.IntFlag{
					Name:  detectFlagSubsteps,
					Usage: "sub-frame resolution of the refinement",
				},
				&cli.StringFlag{
					Name:  detectFlagPolicy,
					Usage: "contact policy: overlap or surface_distance",
				},
				&cli.Float64Flag{
					Name:  detectFlagEpsilon,
					Usage: "proxy inflation",
				},
				&cli.Float64Flag{
					Name:  detectFlagMargin,
					Usage: "contact margin of objects that do not set one",
				},
				&cli.StringFlag{
					Name:  detectFlagTargets,
					Usage: "collection of target objects",
				},
				&cli.StringFlag{
					Name:  detectFlagColliders,
					Usage: "collection of collider objects",
				},
				&cli.DurationFlag{
					Name:  detectFlagTimeout,
					Usage: "give up after this long",
				},
				&cli.StringFlag{
					Name:    detectFlagOut,
					Aliases: []string{"o"},
					Usage:   "write the event file to `FILE` instead of stdout",
				},
				&cli.BoolFlag{
					Name:  detectFlagTable,
					Usage: "print a table of the events instead of json",
				},
				&cli.BoolFlag{
					Name:  detectFlagWatch,
					Usage: "scan again whenever the scene or config file changes",
				},
			},
			Action: DetectAction,
		},
		{
			Name:   "schema",
			Usage:  "print the json schema of the event file",
			Action: SchemaAction,
		},
		{
			Name:      "inspect",
			Usage:     "print the events of an event file",
			ArgsUsage: "<file>",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  inspectFlagHistogram,
					Usage: "also draw a histogram of impact speeds with `N` bins",
				},
			},
			Action: InspectAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
