//go:build mage

// Package main contains Mage build targets for mdpress developer tooling.
// Implements: docs/ARCHITECTURE § Developer Tooling.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// projectDirs lists the working directories the pipeline expects.
var projectDirs = []string{
	"docs/raw",
	"docs/markdown",
	"docs/reports",
	".secrets",
	".mdpress",
}

// Init creates the project directory structure for the pipeline.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "mdpress"
	cmdPkg  = "./cmd/mdpress"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	cmd := exec.Command("go", "build", "-o", out, cmdPkg)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Clean removes build outputs.
func Clean() error {
	if err := os.RemoveAll(binDir); err != nil {
		return fmt.Errorf("removing %s: %w", binDir, err)
	}
	fmt.Println("Removed", binDir)
	return nil
}

// Stats prints workspace metrics: raw PDFs, converted documents,
// conversion reports, and the upload cache size.
func Stats() error {
	raw, err := countFiles(filepath.Join("docs", "raw"), ".pdf")
	if err != nil {
		return err
	}
	converted, err := countFiles(filepath.Join("docs", "markdown"), ".md")
	if err != nil {
		return err
	}
	reports, err := countFiles(filepath.Join("docs", "reports"), ".yaml")
	if err != nil {
		return err
	}

	fmt.Printf("Raw PDFs:            %d\n", raw)
	fmt.Printf("Converted documents: %d\n", converted)
	fmt.Printf("Conversion reports:  %d\n", reports)

	if info, err := os.Stat(filepath.Join(".mdpress", "uploads.db")); err == nil {
		fmt.Printf("Upload cache:        %d bytes\n", info.Size())
	}
	return nil
}

// countFiles counts files with the given extension directly under dir.
// A missing directory counts as zero.
func countFiles(dir, ext string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ext {
			count++
		}
	}
	return count, nil
}
