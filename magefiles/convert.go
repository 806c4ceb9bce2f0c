//go:build mage

package main

import (
	"os"
	"os/exec"
	"path/filepath"
)

// Convert builds the CLI and converts every PDF under docs/raw.
// Equivalent to running: mdpress convert docs/raw
func Convert() error {
	if err := Build(); err != nil {
		return err
	}
	cmd := exec.Command(filepath.Join(binDir, binName), "convert", filepath.Join("docs", "raw"))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
