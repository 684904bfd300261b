package main

import (
	_ "embed"
	"fmt"
	"io"
	"strings"
)

//go:embed docs/usage_examples.md
var usageExamplesFile string

func basicUsage() string {
	return "Examples:\n" + extractSection("Basic Usage")
}

// printExamples prints the named sections, every section for "all" or
// the section names for "list".
func printExamples(w io.Writer, show string) error {
	switch show {
	case "all":
		fmt.Fprintln(w, usageExamplesFile)
		return nil
	case "list":
		listSections(w)
		return nil
	}
	var unknown []string
	for _, section := range strings.Split(show, ",") {
		content := extractSection(strings.TrimSpace(section))
		if content == "" {
			unknown = append(unknown, strings.TrimSpace(section))
			continue
		}
		fmt.Fprintln(w, content)
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown example section %q (try --examples=list)", strings.Join(unknown, ", "))
	}
	return nil
}

func extractSection(sectionName string) string {
	if sectionName == "" {
		return ""
	}
	inSection := false
	var sectionContent []string
	for _, line := range strings.Split(usageExamplesFile, "\n") {
		if strings.HasPrefix(line, "## ") {
			if inSection {
				break
			}
			inSection = strings.EqualFold(strings.TrimPrefix(line, "## "), sectionName)
			continue
		}
		if inSection {
			sectionContent = append(sectionContent, line)
		}
	}
	return strings.TrimSpace(strings.Join(sectionContent, "\n"))
}

func listSections(w io.Writer) {
	fmt.Fprintln(w, "Available sections:")
	for _, line := range strings.Split(usageExamplesFile, "\n") {
		if strings.HasPrefix(line, "## ") {
			fmt.Fprintln(w, "-", strings.TrimPrefix(line, "## "))
		}
	}
}
