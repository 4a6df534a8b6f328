// Package script finds the interpreter that runs a shell task. Shell tasks
// are fed to the interpreter on stdin.
package script

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

//go:generate go run golang.org/x/tools/cmd/stringer -type Interpreter -linecomment
type Interpreter int

const (
	Posix      Interpreter = iota // posix
	Sh                            // sh
	Bash                          // bash
	Zsh                           // zsh
	Fish                          // fish
	Pwsh                          // pwsh
	Powershell                    // powershell
	Python                        // python
)

var interpreters = []Interpreter{Posix, Sh, Bash, Zsh, Fish, Pwsh, Powershell, Python}

// Known lists the names of the supported interpreters.
func Known() []string {
	names := make([]string, len(interpreters))
	for i, in := range interpreters {
		names[i] = in.String()
	}
	return names
}

func ParseInterpreter(s string) (Interpreter, error) {
	for _, in := range interpreters {
		if in.String() == s {
			return in, nil
		}
	}
	return 0, fmt.Errorf("unsupported interpreter %q, expected one of %s", s, strings.Join(Known(), ", "))
}

// Locator finds interpreter executables.
type Locator struct {
	LookPath func(string) (string, error)
	Getenv   func(string) string
	Windows  bool
}

// System locates interpreters on this machine.
func System() Locator {
	return Locator{
		LookPath: exec.LookPath,
		Getenv:   os.Getenv,
		Windows:  runtime.GOOS == "windows",
	}
}

// Command returns the argv of the first of candidates that can be found.
func (l Locator) Command(candidates []Interpreter) ([]string, error) {
	if len(candidates) == 0 {
		candidates = []Interpreter{Posix}
	}
	for _, in := range candidates {
		executable, ok := l.Locate(in)
		if !ok {
			continue
		}
		if in == Pwsh || in == Powershell {
			return []string{executable, "-NoLogo", "-Command", "-"}, nil
		}
		return []string{executable}, nil
	}

	names := make([]string, len(candidates))
	for i, in := range candidates {
		names[i] = in.String()
	}
	msg := fmt.Sprintf("Couldn't locate interpreter executable for %s to run shell task. ", strings.Join(names, ", "))
	if l.Windows && (candidates[0] == Posix || candidates[0] == Bash) {
		msg += "Installing Git Bash or using WSL should fix this."
	} else {
		msg += "Some dependencies may be missing from your system."
	}
	return nil, fmt.Errorf("%s", msg)
}

// Locate finds the executable for one interpreter. $SHELL is preferred when
// it names the requested interpreter.
func (l Locator) Locate(in Interpreter) (string, bool) {
	if shell := l.Getenv("SHELL"); shell != "" && filepath.Base(shell) == in.String() {
		if found, err := l.LookPath(shell); err == nil {
			return found, true
		}
	}

	programFiles := l.Getenv("PROGRAMFILES")
	if programFiles == "" {
		programFiles = `C:\Program Files`
	}

	switch in {
	case Posix:
		for _, sh := range []Interpreter{Sh, Bash, Zsh} {
			if found, ok := l.Locate(sh); ok {
				return found, true
			}
		}
		return "", false
	case Bash:
		if found, ok := l.first("bash", "/bin/bash"); ok {
			return found, true
		}
		if l.Windows {
			return l.first(programFiles + `\Git\bin\bash.exe`)
		}
		return "", false
	case Pwsh, Powershell:
		found, ok := l.first("pwsh", programFiles+`\PowerShell\7\pwsh.exe`, programFiles+`\PowerShell\6\pwsh.exe`)
		if !ok && in == Powershell && l.Windows {
			windir := l.Getenv("WINDIR")
			if windir == "" {
				windir = `C:\Windows`
			}
			return l.first("powershell", windir+`\System32\WindowsPowerShell\v1.0\powershell.EXE`)
		}
		return found, ok
	case Python:
		return l.first("python", "python3")
	default:
		return l.first(in.String(), "/bin/"+in.String())
	}
}

func (l Locator) first(names ...string) (string, bool) {
	for _, name := range names {
		if found, err := l.LookPath(name); err == nil {
			return found, true
		}
	}
	return "", false
}
