//go:build mage

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binary  = "iqra"
	mainPkg = "./cmd/iqra"
)

// Default target to run when none is specified
var Default = Build

func ldflags() string {
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
		return ""
	}
	return fmt.Sprintf("-X codeberg.org/snonux/iqra/internal.Version=%s", strings.TrimPrefix(version, "v"))
}

// Build compiles the iqra binary into the working directory
func Build() error {
	mg.Deps(Vet)
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-ldflags", ldflags(), "-o", binary, mainPkg)
}

// Install installs iqra into $GOPATH/bin
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", "-ldflags", ldflags(), mainPkg)
}

// Test runs all tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Validate checks the asset directory given by IQRA_ASSETS (default ./public)
func Validate() error {
	assets := os.Getenv("IQRA_ASSETS")
	if assets == "" {
		assets = "public"
	}
	return sh.RunV("go", "run", mainPkg, "validate", "--assets", assets, "--strict")
}

// Missing writes the missing asset paths to missing.txt
func Missing() error {
	out, err := sh.Output("go", "run", mainPkg, "missing")
	if err != nil {
		return err
	}
	return os.WriteFile("missing.txt", []byte(out+"\n"), 0644)
}

// Clean removes the built binary
func Clean() error {
	return sh.Rm(binary)
}
