/*
 * Copyright (C) 2024 ArgusObs Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/argusobs/shadowit-pipeline/pkg/config"
	"github.com/argusobs/shadowit-pipeline/pkg/pipeline"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	buildVersion = "unknown"
	buildDate    = "unknown"
	envPrefix    = "SHADOWIT-PIPELINE"
	opts         config.Options
)

// rootCmd represents the root command
var rootCmd = &cobra.Command{
	Use:   "shadowit-pipeline",
	Short: "Extract windowed behavior features from flow archives and score hosts for shadow IT risk",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

// initConfig use config file and ENV variables if set.
func initConfig() {
	v := viper.New()

	if opts.ConfigPath != "" {
		v.SetConfigFile(opts.ConfigPath)
	}

	// Read environment variables that match prefix
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if opts.ConfigPath != "" {
		if err := v.ReadInConfig(); err != nil {
			log.Errorf("Read config error: %v", err)
		}
	}

	bindFlags(rootCmd, v)

	// initialize logger
	initLogger()
}

func initLogger() {
	ll, err := log.ParseLevel(opts.LogLevel)
	if err != nil {
		ll = log.InfoLevel
	}
	log.SetLevel(ll)
	log.SetFormatter(&log.TextFormatter{DisableColors: false, FullTimestamp: true, PadLevelText: true, DisableQuote: true})
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if strings.Contains(f.Name, ".") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, ".", "_"))
			_ = v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix))
		}

		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			_ = cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val))
		}
	})
}

func initFlags() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path of the configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warning, error")
	rootCmd.PersistentFlags().BoolVar(&opts.DryRun, "dry-run", false, "compute rows but skip all writes")
	rootCmd.PersistentFlags().BoolVar(&opts.Reprocess, "reprocess", false, "ignore the processed-files state and re-read all matching files")
}

func main() {
	// Initialize flags (command line parameters)
	initFlags()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run() {
	// Initial log message
	fmt.Printf("Starting %s:\n=====\nBuild version: %s\nBuild date: %s\n\n", filepath.Base(os.Args[0]), buildVersion, buildDate)

	cfg, err := config.ParseConfig(&opts)
	if err != nil {
		log.Errorf("error in parsing config file: %v", err)
		os.Exit(1)
	}

	mainPipeline, err := pipeline.NewPipeline(cfg)
	if err != nil {
		log.Errorf("failed to initialize pipeline: %s", err)
		os.Exit(1)
	}

	if err := mainPipeline.Run(); err != nil {
		log.Errorf("run %s failed: %s", mainPipeline.RunID(), err)
		os.Exit(1)
	}

	log.Debugf("exiting main run")
}
