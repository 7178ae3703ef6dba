// Package commands implements cmd/cfuzzgen's verbs (SPEC_FULL.md §6),
// grounded on cmd/sentra/commands' one-function-per-verb shape: each verb
// takes the remaining os.Args slice and returns an error for main to
// log.Fatalf on.
package commands

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"cfuzzgen/internal/emit"
	"cfuzzgen/internal/expr"
	"cfuzzgen/internal/ledger"
	"cfuzzgen/internal/policy"
	"cfuzzgen/internal/rewrite"
	"cfuzzgen/internal/stmt"
	"cfuzzgen/internal/symtab"
)

// progress prints one generation-phase line, carriage-return-overwritten
// on an interactive terminal, plain newline-per-phase otherwise
// (SPEC_FULL.md §4.3, grounded on the driver's own transitive reliance on
// go-isatty via its sqlite3 dependency, promoted here to a direct one).
func progress(phase string) {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Printf("\r\033[K[cfuzzgen] %s", phase)
		return
	}
	fmt.Printf("[cfuzzgen] %s\n", phase)
}

func progressDone() {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Println()
	}
}

// runOnce performs a single generation (spec.md §2 flow): build the
// policy/RNG/context, generate the program, render and write the output
// tree, compute its checksum, and optionally record it to the ledger.
func runOnce(pol *policy.Policy, seed uint64, outDir string, led *ledger.Ledger) (uint64, error) {
	runID := uuid.New().String()

	seed = policy.ResolveSeed(seed)
	rng := policy.NewRNG(seed)
	ctx := symtab.NewTopLevel(pol, rng)
	rewriter := rewrite.NewRewriter(ctx.Pool, rng)
	builder := expr.NewBuilder(ctx.Pool, rewriter, pol.LongEqLLong)

	progress(fmt.Sprintf("run=%s seed=%d policy=%s: generating", runID, seed, pol.Name))
	program := stmt.GenProgram(builder, ctx)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		progressDone()
		return 0, fmt.Errorf("creating output directory %s: %w", outDir, err)
	}

	progress(fmt.Sprintf("run=%s seed=%d policy=%s: emitting to %s", runID, seed, pol.Name, outDir))
	if err := emit.Write(outDir, ctx, program); err != nil {
		progressDone()
		os.RemoveAll(outDir) // spec.md §7.B: discard a partial output tree rather than leave it half-written.
		return 0, err
	}
	progressDone()

	checksum := Checksum(ctx)
	log.Printf("run=%s seed=%d policy=%s out=%s checksum=%d rewrites=%d",
		runID, seed, pol.Name, outDir, checksum, rewriter.Stats.Total())

	if led != nil {
		err := led.Record(ledger.Run{
			RunID:     runID,
			Seed:      seed,
			Policy:    pol.Name,
			OutDir:    outDir,
			Checksum:  checksum,
			Files:     []string{"init.h", "init.cpp", "func.cpp", "check.cpp", "driver.cpp", "hash.cpp"},
			CreatedAt: time.Now(),
		})
		if err != nil {
			return checksum, fmt.Errorf("recording run to ledger: %w", err)
		}
	}
	return checksum, nil
}

// GenCommand implements `cfuzzgen gen` (SPEC_FULL.md §6).
func GenCommand(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	seed, err := parseUint64(flags, "seed", 0)
	if err != nil {
		return err
	}
	pol, err := policy.ByName(flags["policy"])
	if err != nil {
		return err
	}
	if err := pol.Validate(); err != nil {
		return err
	}
	outDir := flags["out"]
	if outDir == "" {
		outDir = "."
	}

	led, err := ledger.Open(flags["ledger"])
	if err != nil {
		return err
	}
	defer led.Close()

	_, err = runOnce(pol, seed, outDir, led)
	return err
}

// BatchCommand implements `cfuzzgen batch` (SPEC_FULL.md §6): sugar over
// GenCommand's single-run path, one subdirectory per seed.
func BatchCommand(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	count, err := parseInt(flags, "count", 1)
	if err != nil {
		return err
	}
	if count < 1 {
		return fmt.Errorf("--count must be >= 1")
	}
	seedBase, err := parseUint64(flags, "seed-base", 1)
	if err != nil {
		return err
	}
	pol, err := policy.ByName(flags["policy"])
	if err != nil {
		return err
	}
	if err := pol.Validate(); err != nil {
		return err
	}
	outRoot := flags["out"]
	if outRoot == "" {
		outRoot = "."
	}

	led, err := ledger.Open(flags["ledger"])
	if err != nil {
		return err
	}
	defer led.Close()

	for i := 0; i < count; i++ {
		seed := seedBase + uint64(i)
		outDir := filepath.Join(outRoot, fmt.Sprintf("%04d", i+1))
		if _, err := runOnce(pol, seed, outDir, led); err != nil {
			return fmt.Errorf("batch item %d (seed=%d): %w", i+1, seed, err)
		}
	}
	return nil
}

// ReplayCommand implements `cfuzzgen replay` (SPEC_FULL.md §6): looks up
// a past run's seed/policy in the ledger and re-emits it, a CLI-level
// smoke check of spec.md §8.1.1's determinism property (same seed, same
// policy -> byte-identical output).
func ReplayCommand(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	dsn := flags["ledger"]
	if dsn == "" {
		return fmt.Errorf("replay requires --ledger DSN")
	}
	runID := flags["run-id"]
	if runID == "" {
		return fmt.Errorf("replay requires --run-id ID")
	}

	led, err := ledger.Open(dsn)
	if err != nil {
		return err
	}
	defer led.Close()

	past, err := led.ByRunID(runID)
	if err != nil {
		return err
	}

	pol, err := policy.ByName(past.Policy)
	if err != nil {
		return err
	}

	outDir := flags["out"]
	if outDir == "" {
		outDir = past.OutDir + "-replay"
	}

	checksum, err := runOnce(pol, past.Seed, outDir, led)
	if err != nil {
		return err
	}
	if checksum != past.Checksum {
		return fmt.Errorf("replay mismatch for run %s: recorded checksum %d, recomputed %d", runID, past.Checksum, checksum)
	}
	log.Printf("replay of run %s matched recorded checksum %d", runID, checksum)
	return nil
}
