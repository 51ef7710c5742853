// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/tabmirror/tabmirror/lib/codec"
	"github.com/tabmirror/tabmirror/lib/journal"
	"github.com/tabmirror/tabmirror/lib/modelhash"
	"github.com/tabmirror/tabmirror/lib/version"
	"github.com/tabmirror/tabmirror/mirror"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	switch os.Args[1] {
	case "dump":
		return runDump(os.Args[2:])
	case "verify":
		return runVerify(os.Args[2:])
	case "version", "--version":
		fmt.Printf("tabmirror-journal %s\n", version.Info())
		return nil
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", os.Args[1])
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: tabmirror-journal <subcommand> [flags] FILE

Subcommands:
  dump      Print every journaled snapshot
  verify    Recompute snapshot digests and check revision continuity
  version   Print version information

Dump flags:
  --json    One JSON object per snapshot (decoded model included)
  --diag    CBOR diagnostic notation of each snapshot's model
`)
}

// dumpFormat selects the dump output encoding.
type dumpFormat int

const (
	formatText dumpFormat = iota
	formatJSON
	formatDiag
)

func runDump(args []string) error {
	flagSet := pflag.NewFlagSet("dump", pflag.ContinueOnError)
	jsonOutput := flagSet.Bool("json", false, "one JSON object per snapshot")
	diagOutput := flagSet.Bool("diag", false, "CBOR diagnostic notation per snapshot")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if *jsonOutput && *diagOutput {
		return fmt.Errorf("--json and --diag are mutually exclusive")
	}

	rest := flagSet.Args()
	if len(rest) != 1 {
		return fmt.Errorf("usage: tabmirror-journal dump [--json|--diag] FILE")
	}

	format := formatText
	if *jsonOutput {
		format = formatJSON
	}
	if *diagOutput {
		format = formatDiag
	}
	return dumpJournal(os.Stdout, rest[0], format)
}

func runVerify(args []string) error {
	flagSet := pflag.NewFlagSet("verify", pflag.ContinueOnError)
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	rest := flagSet.Args()
	if len(rest) != 1 {
		return fmt.Errorf("usage: tabmirror-journal verify FILE")
	}
	return verifyJournal(os.Stdout, rest[0])
}

// dumpEntry is the JSON shape of one snapshot in --json output.
type dumpEntry struct {
	Revision uint64         `json:"revision"`
	Time     time.Time      `json:"time"`
	Digest   string         `json:"digest"`
	Groups   []mirror.Group `json:"groups"`
}

// dumpJournal prints every record of the journal at path to w in the
// requested format.
func dumpJournal(w io.Writer, path string, format dumpFormat) error {
	reader, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if format == formatDiag {
			diagnostic, err := codec.Diagnose(record.Model)
			if err != nil {
				return fmt.Errorf("%s: revision %d: %w", path, record.Revision, err)
			}
			fmt.Fprintf(w, "# revision %d, %s\n%s\n",
				record.Revision, record.Time().Format(time.RFC3339), diagnostic)
			continue
		}

		hash, err := record.Hash()
		if err != nil {
			return fmt.Errorf("%s: revision %d: %w", path, record.Revision, err)
		}
		var groups []mirror.Group
		if err := codec.Unmarshal(record.Model, &groups); err != nil {
			return fmt.Errorf("%s: revision %d: decoding model: %w", path, record.Revision, err)
		}

		switch format {
		case formatText:
			fmt.Fprintf(w, "%6d  %s  %s  %d groups, %d tabs\n",
				record.Revision, record.Time().Format(time.RFC3339),
				modelhash.FormatShort(hash), len(groups), countTabs(groups))
		case formatJSON:
			encoded, err := json.Marshal(dumpEntry{
				Revision: record.Revision,
				Time:     record.Time(),
				Digest:   modelhash.Format(hash),
				Groups:   groups,
			})
			if err != nil {
				return fmt.Errorf("%s: revision %d: encoding: %w", path, record.Revision, err)
			}
			fmt.Fprintf(w, "%s\n", encoded)
		}
	}
}

// verifyJournal recomputes the digest of every record in the journal
// at path and checks that revisions are contiguous from 1. Digest
// mismatches are reported individually; the returned error summarizes
// them. Structural damage (short frames, bad revisions) aborts
// immediately since nothing after it can be trusted.
func verifyJournal(w io.Writer, path string) error {
	reader, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	var total int
	var mismatched int
	var lastRevision uint64
	for {
		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: after revision %d: %w", path, lastRevision, err)
		}
		if record.Revision != lastRevision+1 {
			return fmt.Errorf("%s: revision %d follows %d, want contiguous revisions from 1",
				path, record.Revision, lastRevision)
		}
		lastRevision = record.Revision
		total++

		if !record.Verify() {
			mismatched++
			fmt.Fprintf(w, "revision %d: digest mismatch\n", record.Revision)
		}
	}

	if mismatched > 0 {
		return fmt.Errorf("%s: %d of %d snapshots failed verification", path, mismatched, total)
	}
	fmt.Fprintf(w, "%s: %d snapshots verified, digests match\n", path, total)
	return nil
}

func countTabs(groups []mirror.Group) int {
	count := 0
	for _, group := range groups {
		count += len(group.Tabs)
	}
	return count
}
