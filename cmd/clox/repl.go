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

package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/cloxlang/clox/compile"
	"github.com/cloxlang/clox/vm"
)

// runREPL implements spec.md §4.6's REPL contract: one source line per
// Interpret call, with globals and the heap persisting across calls on
// the same VM while the stack and ip reset each time. Lines starting
// with `!` are meta-commands intercepted here, never forwarded to the
// compiler or VM.
func runREPL(opt compile.Options) {
	v := vm.New()
	v.Stdout = os.Stdout
	defer v.Finish()

	// SIGINT is caught so it does not end the session; the handler
	// only prints a notice, and the line being read or executed
	// carries on.
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	defer signal.Stop(sigc)
	go func() {
		for range sigc {
			fmt.Fprintln(os.Stderr, "\ninterrupt")
		}
	}()

	fmt.Fprintln(os.Stdout, "clox REPL. !help for meta-commands, !quit to exit.")
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprintf(os.Stdout, "clox[%s]> ", v.SessionID.String()[:8])
		if !sc.Scan() {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "!") {
			if handleMeta(line) {
				return
			}
			continue
		}

		c, res := compile.Compile([]byte(line), v.Heap, opt)
		reportDiagnostics(res)
		if err := res.Err(); err != nil {
			continue
		}

		v.StepDebugging = dashStep
		v.StepIn = os.Stdin
		v.StepOut = os.Stderr
		if _, _, err := v.Interpret(c); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// handleMeta processes one `!`-prefixed line and reports whether the
// REPL should exit.
func handleMeta(line string) bool {
	switch {
	case line == "!help":
		fmt.Println("!help                 show this message")
		fmt.Println("!quit                 exit the REPL")
		fmt.Println("!debugbreak on|off    toggle single-step debugging")
	case line == "!quit":
		return true
	case strings.HasPrefix(line, "!debugbreak"):
		fields := strings.Fields(line)
		if len(fields) != 2 || (fields[1] != "on" && fields[1] != "off") {
			fmt.Fprintln(os.Stderr, "usage: !debugbreak on|off")
			break
		}
		on := fields[1] == "on"
		withRawMode(func() {
			dashStep = on
			fmt.Fprintf(os.Stderr, "step debugging %s\n", fields[1])
		})
	default:
		fmt.Fprintf(os.Stderr, "unknown meta-command: %s (try !help)\n", line)
	}
	return false
}
