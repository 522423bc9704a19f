// Copyright 2026 The Lumina Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	serveFlags := []cli.Flag{
		&cli.BoolFlag{
			Name:  "migrate",
			Usage: "Apply pending database migrations before serving",
		},
	}

	cmd := &cli.Command{
		Name:   "lumina",
		Usage:  "Permission and effective-filter service for the Lumina platform",
		Flags:  serveFlags,
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Starts the HTTP API (default)",
				Flags:  serveFlags,
				Action: runServe,
			},
			{
				Name:   "migrate",
				Usage:  "Applies the embedded schema and seed migrations",
				Action: runMigrate,
			},
			{
				Name:  "seed-check",
				Usage: "Prints the effective filter a role resolves to for a permission key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "role",
						Aliases:  []string{"r"},
						Usage:    "Role name, e.g. INSTRUCTOR",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "key",
						Aliases:  []string{"k"},
						Usage:    "Permission key `RESOURCE:ACTION`. Can be specified multiple times.",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "user",
						Usage: "User ID to evaluate as",
						Value: "operator",
					},
				},
				Action: runSeedCheck,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
