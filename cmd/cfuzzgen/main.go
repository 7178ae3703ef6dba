// cmd/cfuzzgen/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"cfuzzgen/cmd/cfuzzgen/commands"
)

const VERSION = "0.1.0"

// Build variables - can be set during build with ldflags, same convention
// the teacher's own CLI entrypoint uses.
var (
	BuildDate = time.Now().Format("2006-01-02")
	GitCommit = "unknown"
)

// Command aliases mapping (SPEC_FULL.md §6's four verbs plus version/help).
var commandAliases = map[string]string{
	"g": "gen",
	"b": "batch",
	"r": "replay",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
		args[0] = alias
	}

	if cmd == "--help" || cmd == "-h" || cmd == "help" {
		if len(args) > 1 {
			showCommandHelp(args[1])
		} else {
			showUsage()
		}
		return
	}

	if cmd == "--version" || cmd == "-v" || cmd == "version" {
		showVersion()
		return
	}

	var err error
	switch cmd {
	case "gen":
		err = runGuarded("gen", commands.GenCommand, args[1:])
	case "batch":
		err = runGuarded("batch", commands.BatchCommand, args[1:])
	case "replay":
		err = runGuarded("replay", commands.ReplayCommand, args[1:])
	default:
		suggestCommand(cmd)
		return
	}

	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// runGuarded recovers a generator-invariant panic (internal/xerrors'
// *GenError, §7.B: a fatal contradiction) into a plain error so main's one
// log.Fatalf stays the single exit path, matching the teacher's own
// recover()-wrapped command dispatch.
func runGuarded(name string, fn func([]string) error, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", name, r)
		}
	}()
	return fn(args)
}

func showUsage() {
	fmt.Println("cfuzzgen - randomized C/C++ integer-arithmetic test-case generator")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  cfuzzgen gen --seed N --policy default|deep-arith|control-flow --out DIR [--ledger DSN]")
	fmt.Println("                             Generate one test case             (alias: g)")
	fmt.Println("  cfuzzgen batch --count N --seed-base N --out DIR [--policy NAME] [--ledger DSN]")
	fmt.Println("                             Generate a batch, one seed per subdirectory (alias: b)")
	fmt.Println("  cfuzzgen replay --ledger DSN --run-id ID [--out DIR]")
	fmt.Println("                             Re-emit a past run from the ledger  (alias: r)")
	fmt.Println()
	fmt.Println("Help:")
	fmt.Println("  cfuzzgen help <command>    Show detailed help for a command")
	fmt.Println("  cfuzzgen version           Show version and build info")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  cfuzzgen gen --seed 12345 --out ./out")
	fmt.Println("  cfuzzgen batch --count 100 --seed-base 1 --out ./corpus")
	fmt.Println("  cfuzzgen replay --ledger ./runs.db --run-id 7c2b1e3e-...")
}

func showVersion() {
	fmt.Printf("cfuzzgen v%s\n", VERSION)
	fmt.Printf("Build Date: %s\n", BuildDate)
	if GitCommit != "unknown" {
		fmt.Printf("Git Commit: %s\n", GitCommit)
	}
}

var helpText = map[string]string{
	"gen": `cfuzzgen gen --seed N --policy NAME --out DIR [--ledger DSN]

Generates a single test case: a seed of 0 draws a fresh seed from OS
entropy (and is logged so the run can be reproduced later); any other
value is used verbatim. --policy selects one of the named presets
(default, deep-arith, control-flow); omitted means default. --out is the
directory the six output files (init.h, init.cpp, func.cpp, check.cpp,
driver.cpp, hash.cpp) are written to; it is created if missing and
removed again if generation fails partway through. --ledger, if given,
records the run's seed/policy/checksum to a local database for later
replay.`,
	"batch": `cfuzzgen batch --count N --seed-base N --out DIR [--policy NAME] [--ledger DSN]

Generates N test cases into DIR/0001, DIR/0002, ... using seeds
seed-base, seed-base+1, ..., seed-base+N-1. Sugar over 'gen': every other
flag has the same meaning.`,
	"replay": `cfuzzgen replay --ledger DSN --run-id ID [--out DIR]

Looks up a past run's seed and policy from the ledger and re-emits it,
verifying the recomputed checksum still matches what was recorded. --out
defaults to the original output directory with a "-replay" suffix.`,
}

func showCommandHelp(command string) {
	if alias, ok := commandAliases[command]; ok {
		command = alias
	}
	if text, ok := helpText[command]; ok {
		fmt.Println(text)
		return
	}
	fmt.Printf("No detailed help available for %q\n\n", command)
	showUsage()
}

func suggestCommand(cmd string) {
	allCommands := []string{"gen", "batch", "replay", "help", "version"}

	fmt.Fprintf(os.Stderr, "Error: Unknown command '%s'\n", cmd)

	suggestions := findSimilarCommands(cmd, allCommands, 3)
	if len(suggestions) > 0 {
		fmt.Fprintf(os.Stderr, "\nDid you mean one of these?\n")
		for _, suggestion := range suggestions {
			alias := ""
			for a, fullCmd := range commandAliases {
				if fullCmd == suggestion {
					alias = fmt.Sprintf(" (alias: %s)", a)
					break
				}
			}
			fmt.Fprintf(os.Stderr, "  cfuzzgen %s%s\n", suggestion, alias)
		}
	}

	fmt.Fprintf(os.Stderr, "\nRun 'cfuzzgen help' to see all available commands\n")
	os.Exit(1)
}

func findSimilarCommands(input string, candidates []string, maxDistance int) []string {
	var similar []string
	for _, c := range candidates {
		if levenshteinDistance(input, c) <= maxDistance {
			similar = append(similar, c)
		}
	}
	return similar
}

func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			matrix[i][j] = min3(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}
	return matrix[len(s1)][len(s2)]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
