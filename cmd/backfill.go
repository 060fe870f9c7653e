/*
Copyright 2025 Plaza Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/plazahq/plaza/config"
	"github.com/plazahq/plaza/database"
)

// backfillCommands creates the root command for one-off data repairs.
func backfillCommands(_ *plazaInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "run one-off data backfills",
	}

	cmd.AddCommand(backfillDraftsCommand())

	return cmd
}

// backfillDraftsCommand assigns DRAFT to listings recorded before status
// tracking existed, so the lifecycle engine can pick them up.
func backfillDraftsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use: "drafts",
		Run: func(cmd *cobra.Command, args []string) {
			cnf, err := config.Fetch()
			if err != nil {
				log.Printf("Error fetching config: %v", err)
				return
			}

			db, err := database.NewDataSource(cnf)
			if err != nil {
				log.Printf("Error getting datasource: %v", err)
				return
			}

			n, err := db.BackfillDraftStatus(context.Background())
			if err != nil {
				log.Printf("Error backfilling draft status: %v", err)
				return
			}
			fmt.Printf("Classified %d listings as drafts!\n", n)
		},
	}

	return cmd
}
