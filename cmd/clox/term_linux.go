// Copyright (C) 2024 clox authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

//go:build linux

// Raw-terminal toggling around `!debugbreak`, gated behind a linux
// build tag the same way cgroup/* and vm/malloc_linux.go gate
// syscall-specific code in the teacher repo (SPEC_FULL.md §11).
package main

import (
	"os"

	"golang.org/x/sys/unix"
)

// withRawMode drops stdin's termios into non-canonical, echo-off mode
// for the duration of fn, then restores it. Any ioctl failure (stdin
// is not a terminal, e.g. piped input) falls back to running fn with
// no terminal changes.
func withRawMode(fn func()) {
	fd := int(os.Stdin.Fd())
	saved, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		fn()
		return
	}

	raw := *saved
	raw.Lflag &^= unix.ECHO | unix.ICANON
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		fn()
		return
	}
	defer unix.IoctlSetTermios(fd, unix.TCSETS, saved)

	fn()
}
