// Package shim generates the forwarder scripts vx places on PATH so a
// user can type "node" and transparently run whatever version vx has
// resolved for the current project. Unlike pkg/installer's
// WrapperScript (a package-authored launcher baked in at install
// time), a shim is generic: it always re-invokes "vx exec <name>"
// so the resolved version can change between invocations without
// regenerating anything.
package shim

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Target describes one shim to generate.
type Target struct {
	// Name is both the shim's filename (sans platform extension) and
	// the runtime name passed through to "vx run".
	Name string
	// VxBinary is the path to the vx executable the shim re-invokes.
	// Defaults to "vx" (resolved via PATH) when empty.
	VxBinary string
}

// Builder writes shims into Dir.
type Builder struct {
	Dir string
}

// NewBuilder returns a Builder that writes into dir, creating it if
// necessary.
func NewBuilder(dir string) *Builder {
	return &Builder{Dir: dir}
}

// Build generates every platform-appropriate shim for target: a POSIX
// sh script on unix-like systems, plus a .cmd and .ps1 pair on
// Windows. It writes to a temp file in Dir and renames into place so a
// concurrent exec of the shim never observes a half-written file.
func (b *Builder) Build(target Target) error {
	if err := os.MkdirAll(b.Dir, 0755); err != nil {
		return fmt.Errorf("create shim dir %s: %w", b.Dir, err)
	}

	vxBinary := target.VxBinary
	if vxBinary == "" {
		vxBinary = "vx"
	}

	if runtime.GOOS == "windows" {
		if err := b.writeAtomic(target.Name+".cmd", cmdShim(vxBinary, target.Name), 0644); err != nil {
			return err
		}
		return b.writeAtomic(target.Name+".ps1", ps1Shim(vxBinary, target.Name), 0644)
	}

	return b.writeAtomic(target.Name, posixShim(vxBinary, target.Name), 0755)
}

// BuildAll generates shims for every target, returning the first
// error encountered (after attempting all of them, so one bad target
// doesn't block the others from being written).
func (b *Builder) BuildAll(targets []Target) error {
	var firstErr error
	for _, t := range targets {
		if err := b.Build(t); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (b *Builder) writeAtomic(filename, content string, mode os.FileMode) error {
	path := filepath.Join(b.Dir, filename)
	tmp, err := os.CreateTemp(b.Dir, "."+filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp shim file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write shim %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close shim %s: %w", filename, err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod shim %s: %w", filename, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("install shim %s: %w", filename, err)
	}
	return nil
}

func posixShim(vxBinary, name string) string {
	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	sb.WriteString(fmt.Sprintf("exec %q exec %q \"$@\"\n", vxBinary, name))
	return sb.String()
}

func cmdShim(vxBinary, name string) string {
	return fmt.Sprintf("@echo off\r\n%s exec %s %%*\r\n", vxBinary, name)
}

func ps1Shim(vxBinary, name string) string {
	return fmt.Sprintf("#!/usr/bin/env pwsh\n& %s exec %s @args\nexit $LASTEXITCODE\n", vxBinary, name)
}
