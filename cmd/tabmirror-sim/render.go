// Copyright 2026 The Tabmirror Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/tabmirror/tabmirror/mirror"
)

// renderModel formats the mirrored model for terminal output: one
// block per group, one line per tab, the active tab marked with a
// star. Composite tabs show both of their resources.
func renderModel(groups []mirror.Group) string {
	if len(groups) == 0 {
		return "no open editors\n"
	}

	var b strings.Builder
	for _, group := range groups {
		focus := ""
		if group.IsActive {
			focus = "  [focus]"
		}
		fmt.Fprintf(&b, "column %d (group %d)%s\n", group.ViewColumn, group.ID, focus)
		for _, tab := range group.Tabs {
			marker := " "
			if tab.IsActive {
				marker = "*"
			}
			fmt.Fprintf(&b, "  %s %s", marker, tab.Label)
			if location := tabLocation(tab); location != "" {
				fmt.Fprintf(&b, "  %s", location)
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// tabLocation describes where a tab's content comes from. Composite
// tabs list both sides; plain tabs their single resource.
func tabLocation(tab mirror.Tab) string {
	if len(tab.Resources) == 2 {
		return fmt.Sprintf("%s | %s", tab.Resources[0].Resource, tab.Resources[1].Resource)
	}
	return string(tab.Resource)
}
