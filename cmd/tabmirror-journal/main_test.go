// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tabmirror/tabmirror/lib/codec"
	"github.com/tabmirror/tabmirror/lib/journal"
	"github.com/tabmirror/tabmirror/lib/modelhash"
	"github.com/tabmirror/tabmirror/mirror"
)

func testGroups(label string) []mirror.Group {
	tab := mirror.Tab{
		ViewColumn: 1,
		Label:      label,
		Resource:   mirror.Resource("file:///src/" + label),
		EditorKind: "default",
		Resources: []mirror.TabResource{
			{Resource: mirror.Resource("file:///src/" + label), Kind: "default"},
		},
		IsActive: true,
	}
	active := tab
	return []mirror.Group{{
		ID:         1,
		IsActive:   true,
		ViewColumn: 1,
		Tabs:       []mirror.Tab{tab},
		ActiveTab:  &active,
	}}
}

// writeTestJournal writes records with the given models to a fresh
// journal file. Digests are computed honestly; tamper marks the
// revisions whose digest should be corrupted.
func writeTestJournal(t *testing.T, path string, labels []string, tamper map[uint64]bool) {
	t.Helper()

	writer, err := journal.Create(path, journal.CompressionZstd)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	base := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	for i, label := range labels {
		revision := uint64(i + 1)
		encoded, err := codec.Marshal(testGroups(label))
		if err != nil {
			t.Fatalf("encoding model: %v", err)
		}
		digest := modelhash.HashSnapshot(encoded)
		if tamper[revision] {
			digest[0] ^= 0xff
		}
		record := journal.Record{
			Revision: revision,
			UnixNano: base.Add(time.Duration(i) * time.Second).UnixNano(),
			Digest:   digest[:],
			Model:    codec.RawMessage(encoded),
		}
		if err := writer.Append(record); err != nil {
			t.Fatalf("Append revision %d: %v", revision, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestDumpText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.journal")
	writeTestJournal(t, path, []string{"main.go", "util.go"}, nil)

	var out bytes.Buffer
	if err := dumpJournal(&out, path, formatText); err != nil {
		t.Fatalf("dumpJournal: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("dump produced %d lines, want 2:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[0], "2026-07-01T12:00:00Z") {
		t.Errorf("first line missing timestamp: %q", lines[0])
	}
	if !strings.Contains(lines[0], "1 groups, 1 tabs") {
		t.Errorf("first line missing group summary: %q", lines[0])
	}
}

func TestDumpJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.journal")
	writeTestJournal(t, path, []string{"main.go", "util.go"}, nil)

	var out bytes.Buffer
	if err := dumpJournal(&out, path, formatJSON); err != nil {
		t.Fatalf("dumpJournal: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("dump produced %d lines, want 2", len(lines))
	}

	wantLabels := []string{"main.go", "util.go"}
	for i, line := range lines {
		var entry dumpEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("line %d is not valid JSON: %v\n%s", i, err, line)
		}
		if entry.Revision != uint64(i+1) {
			t.Errorf("line %d revision = %d, want %d", i, entry.Revision, i+1)
		}
		if len(entry.Digest) != 64 {
			t.Errorf("line %d digest %q is not 64 hex chars", i, entry.Digest)
		}
		if len(entry.Groups) != 1 || len(entry.Groups[0].Tabs) != 1 {
			t.Fatalf("line %d groups = %+v, want one group with one tab", i, entry.Groups)
		}
		if got := entry.Groups[0].Tabs[0].Label; got != wantLabels[i] {
			t.Errorf("line %d tab label = %q, want %q", i, got, wantLabels[i])
		}
	}
}

func TestDumpDiag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.journal")
	writeTestJournal(t, path, []string{"main.go"}, nil)

	var out bytes.Buffer
	if err := dumpJournal(&out, path, formatDiag); err != nil {
		t.Fatalf("dumpJournal: %v", err)
	}

	dumped := out.String()
	if !strings.Contains(dumped, "# revision 1") {
		t.Errorf("diag output missing revision header:\n%s", dumped)
	}
	if !strings.Contains(dumped, `"tabs"`) {
		t.Errorf("diag output missing model content:\n%s", dumped)
	}
}

func TestVerifyCleanJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.journal")
	writeTestJournal(t, path, []string{"main.go", "util.go", "notes.md"}, nil)

	var out bytes.Buffer
	if err := verifyJournal(&out, path); err != nil {
		t.Fatalf("verifyJournal: %v", err)
	}
	if !strings.Contains(out.String(), "3 snapshots verified") {
		t.Errorf("verify output = %q, want snapshot count", out.String())
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.journal")
	writeTestJournal(t, path, []string{"main.go", "util.go"}, map[uint64]bool{2: true})

	var out bytes.Buffer
	err := verifyJournal(&out, path)
	if err == nil {
		t.Fatal("verifyJournal should fail on a corrupted digest")
	}
	if !strings.Contains(err.Error(), "1 of 2 snapshots failed") {
		t.Errorf("error = %v, want mismatch summary", err)
	}
	if !strings.Contains(out.String(), "revision 2: digest mismatch") {
		t.Errorf("verify output = %q, want per-revision mismatch line", out.String())
	}
}

func TestVerifyDetectsRevisionGap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.journal")

	writer, err := journal.Create(path, journal.CompressionNone)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, revision := range []uint64{1, 3} {
		encoded, err := codec.Marshal(testGroups("main.go"))
		if err != nil {
			t.Fatalf("encoding model: %v", err)
		}
		digest := modelhash.HashSnapshot(encoded)
		record := journal.Record{
			Revision: revision,
			UnixNano: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC).UnixNano(),
			Digest:   digest[:],
			Model:    codec.RawMessage(encoded),
		}
		if err := writer.Append(record); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var out bytes.Buffer
	err = verifyJournal(&out, path)
	if err == nil {
		t.Fatal("verifyJournal should fail on a revision gap")
	}
	if !strings.Contains(err.Error(), "revision 3 follows 1") {
		t.Errorf("error = %v, want revision gap report", err)
	}
}

func TestVerifyMissingFile(t *testing.T) {
	var out bytes.Buffer
	if err := verifyJournal(&out, filepath.Join(t.TempDir(), "absent.journal")); err == nil {
		t.Fatal("verifyJournal should fail on a missing file")
	}
}
