// Copyright 2026 The Magenta Authors.
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
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/donball360/magenta/fdio"
	"github.com/donball360/magenta/fdio/startup"
	"github.com/donball360/magenta/internal/kernel"
	"github.com/donball360/magenta/internal/obslog"
	"github.com/donball360/magenta/internal/transport"
	"github.com/donball360/magenta/internal/transport/nulltransport"
	"github.com/donball360/magenta/internal/transport/pipetransport"
	"github.com/donball360/magenta/internal/transport/remoteio"
)

var (
	bindErr error
)

var rootCmd = &cobra.Command{
	Use:   "fdioctl",
	Short: "Exercise the magenta fdio core against a chosen backend transport",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		return configureLogging(viper.GetString("log-level"))
	},
}

func init() {
	rootCmd.PersistentFlags().String("backend", "remoteio", "transport backing the demonstration root: remoteio|pipe|null")
	rootCmd.PersistentFlags().String("log-level", "info", "obslog level: debug|info|warn|error")
	bindErr = viper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(writeCmd, catCmd, mkdirCmd, lsCmd, echoCmd)
}

func configureLogging(level string) error {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
	obslog.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
	return nil
}

// buildCore constructs a Core whose root is backed by the chosen
// --backend. The pipe backend has no directory semantics, so path-taking
// commands reject it up front rather than failing confusingly deep in
// pathresolve.
func buildCore() (*fdio.Core, error) {
	ops := kernel.NewRealOps()
	backend := viper.GetString("backend")

	var root transport.Transport
	switch backend {
	case "remoteio":
		root = remoteio.NewTree(ops).Root()
	case "null":
		root = nulltransport.New()
	case "pipe":
		return nil, fmt.Errorf("backend %q has no directory hierarchy; use the echo subcommand instead", backend)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}

	entries := []startup.Entry{{Info: startup.MakeInfo(startup.TagRoot, 0, false), Tr: root}}
	return startup.Build(entries, ops, "/")
}

var writeCmd = &cobra.Command{
	Use:   "write <path> <data>",
	Short: "Create or truncate path and write data to it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := buildCore()
		if err != nil {
			return err
		}
		fd, err := core.Open(args[0], transport.OCreat|transport.OTrunc|transport.OWronly, 0644)
		if err != nil {
			return err
		}
		defer core.Close(fd)
		_, err = core.Write(fd, []byte(args[1]))
		return err
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print the contents of path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := buildCore()
		if err != nil {
			return err
		}
		fd, err := core.Open(args[0], transport.ORdonly, 0)
		if err != nil {
			return err
		}
		defer core.Close(fd)

		buf := make([]byte, 4096)
		for {
			n, err := core.Read(fd, buf)
			if n > 0 {
				fmt.Print(string(buf[:n]))
			}
			if err != nil || n == 0 {
				break
			}
		}
		return nil
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Create a directory at path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := buildCore()
		if err != nil {
			return err
		}
		return core.Mkdir(args[0], 0755)
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls <path>",
	Short: "List directory entries at path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := buildCore()
		if err != nil {
			return err
		}
		dfd, err := core.Opendir(args[0])
		if err != nil {
			return err
		}
		defer core.Closedir(dfd)

		for {
			ent, ok, err := core.Readdir(dfd)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			fmt.Println(ent.Name)
		}
	},
}

var echoCmd = &cobra.Command{
	Use:   "echo <data>",
	Short: "Push data through a fresh pipe pair and print what comes out the read end",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ops := kernel.NewRealOps()
		core := fdio.New(nulltransport.New(), nil, ops)
		read, write := pipetransport.New(ops)
		r, w, err := core.Pipe(read, write)
		if err != nil {
			return err
		}
		if _, err := core.Write(w, []byte(args[0])); err != nil {
			return err
		}
		if err := core.Close(w); err != nil {
			return err
		}

		buf := make([]byte, 4096)
		n, err := core.Read(r, buf)
		if err != nil {
			return err
		}
		fmt.Println(string(buf[:n]))
		return core.Close(r)
	},
}

// Execute runs the root command, printing any error to stderr and
// exiting non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
