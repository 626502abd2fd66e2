//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for ents using Mage.
//
// Usage:
//
//	mage build          Compile entctl to bin/
//	mage install        Build and copy entctl to GOPATH/bin
//	mage clean          Remove build artifacts
//	mage test:all       Run every test
//	mage test:short     Run tests with -short
//	mage test:cover     Write a coverage profile to bin/
//	mage test:golden    Regenerate golden files
//	mage lint           Run golangci-lint
//	mage stats          Print Go lines of code per package
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "entctl"
	binaryDir  = "bin"
	cmdDir     = "./cmd/entctl"
)

// Build compiles entctl to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies entctl to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	if err := sh.Copy(dst, src); err != nil {
		return err
	}
	return os.Chmod(dst, 0o755)
}
