// Copyright 2021 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	winmd "github.com/gowinmd/winmd"
)

var (
	verbose   bool
	winrtOnly bool
)

func isDirectory(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fi.IsDir()
}

func openTarget(path string) (*winmd.Reader, error) {
	opts := &winmd.Options{WinRTOnly: winrtOnly}
	if isDirectory(path) {
		return winmd.FromDirectory(path, opts)
	}
	return winmd.Open(path, opts)
}

func printBucket(title string, types []winmd.TypeDef) {
	if len(types) == 0 {
		return
	}
	fmt.Printf("  %s:\n", title)
	for _, t := range types {
		name, err := t.Name()
		if err != nil {
			fmt.Printf("    <error: %s>\n", err)
			continue
		}
		fmt.Printf("    %s\n", name)
		if !verbose {
			continue
		}
		fields, err := t.Fields()
		if err == nil {
			for _, f := range fields {
				fn, err := f.Name()
				if err == nil {
					fmt.Printf("      field %s\n", fn)
				}
			}
		}
		methods, err := t.Methods()
		if err == nil {
			for _, m := range methods {
				mn, err := m.Name()
				if err == nil {
					fmt.Printf("      method %s\n", mn)
				}
			}
		}
	}
}

func dump(cmd *cobra.Command, args []string) {
	path := args[0]
	r, err := openTarget(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening %q: %s\n", path, err)
		os.Exit(1)
	}
	defer r.Close()

	for _, ns := range r.Namespaces() {
		fmt.Println(ns)
		n, ok := r.Namespace(ns)
		if !ok {
			continue
		}
		printBucket("interfaces", n.Interfaces())
		printBucket("classes", n.Classes())
		printBucket("enums", n.Enums())
		printBucket("structs", n.Structs())
		printBucket("delegates", n.Delegates())
	}

	if anomalies := r.Anomalies(); len(anomalies) > 0 {
		fmt.Fprintln(os.Stderr, "anomalies:")
		for _, a := range anomalies {
			fmt.Fprintf(os.Stderr, "  %s\n", a)
		}
	}
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "winmddump",
		Short: "A Windows Runtime metadata (.winmd) reader",
		Long:  "Reads ECMA-335 CLI metadata out of .winmd files and dumps namespaces, types and members",
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("You are using version 0.0.1")
		},
	}

	var dumpCmd = &cobra.Command{
		Use:   "dump [file-or-directory]",
		Short: "Dumps the namespaces and types of a .winmd file or directory",
		Args:  cobra.ExactArgs(1),
		Run:   dump,
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(dumpCmd)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "also list fields and methods")
	dumpCmd.Flags().BoolVarP(&winrtOnly, "winrt-only", "", true, "restrict the namespace index to Windows Runtime types")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
