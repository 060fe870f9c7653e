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
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/plazahq/plaza"
	"github.com/plazahq/plaza/config"
	"github.com/plazahq/plaza/database"
	"github.com/plazahq/plaza/internal/notification"
)

// Plaza represents the CLI application, encapsulating the root Cobra command.
type Plaza struct {
	cmd *cobra.Command
}

// plazaInstance holds the Plaza engine instance and its configuration.
// This is used to store the runtime instance and configuration globally within the application.
type plazaInstance struct {
	plaza *plaza.Plaza
	cnf   *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun sets up the configuration and initializes the Plaza instance before running any command.
func preRun(app *plazaInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("plaza.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newPlaza, err := setupPlaza(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.plaza = newPlaza
		app.cnf = cnf

		return nil
	}
}

// setupPlaza creates and initializes a new Plaza instance based on the provided configuration.
// It connects to the data source (such as a database) using the configuration settings.
func setupPlaza(cfg *config.Configuration) (*plaza.Plaza, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newPlaza, err := plaza.NewPlaza(db)
	if err != nil {
		return nil, fmt.Errorf("error creating plaza: %v", err)
	}
	return newPlaza, nil
}

// NewCLI creates the command-line interface (CLI) for the Plaza application.
// It sets up the root command and subcommands like serverCommands, workerCommands, and migrateCommands.
func NewCLI() *Plaza {
	var configFile string
	b := &plazaInstance{}

	var rootCmd = &cobra.Command{
		Use:   "plaza",
		Short: "Listing monetization and lifecycle engine",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./plaza.json", "Configuration file for the plaza server")

	rootCmd.PersistentPreRunE = preRun(b)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(workerCommands(b))
	rootCmd.AddCommand(migrateCommands(b))
	rootCmd.AddCommand(backfillCommands(b))
	rootCmd.AddCommand(configCommands())

	return &Plaza{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during execution.
func (w Plaza) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
