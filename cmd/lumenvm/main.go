// Copyright 2014 by the Authors
// This file is part of go-core.
//
// go-core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-core. If not, see <http://www.gnu.org/licenses/>.

// lumenvm is a minimal embeddable driver: point it at a compiled LIR
// module and an entry cell, and it runs the module to its first
// suspend or termination, snapshotting on every suspend the way an
// embedder's own event loop would. It does not parse or compile
// source (spec.md §1 "compiling source to LIR is out of scope") — it
// only loads an already-built *vm.Module and drives the Executor.
package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/urfave/cli.v1"

	"github.com/lumen-run/lumen/core/durability"
	"github.com/lumen-run/lumen/core/vm"
	"github.com/lumen-run/lumen/internal/config"
	"github.com/lumen-run/lumen/internal/lirfmt"
	"github.com/lumen-run/lumen/log"
)

var gitCommit = "" // set via linker flags at release build time

var (
	ConfigFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file (fuel/heap/durability tuning)",
	}
	SnapshotDirFlag = cli.StringFlag{
		Name:  "snapshot-dir",
		Usage: "overrides the config file's durability.SnapshotDir",
	}
	ModuleFlag = cli.StringFlag{
		Name:  "module",
		Usage: "path to a compiled LIR module (written by internal/lirfmt)",
	}
	CellFlag = cli.StringFlag{
		Name:  "cell",
		Usage: "entry cell to call",
		Value: "main",
	}
	ResumeFlag = cli.StringFlag{
		Name:  "resume",
		Usage: "SnapshotId to restore before continuing, instead of a fresh Call",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "lumenvm"
	app.Usage = "runs a compiled Lumen bytecode module"
	app.Version = gitCommit
	app.Flags = []cli.Flag{ConfigFlag, SnapshotDirFlag, ModuleFlag, CellFlag, ResumeFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	l := log.New("lumenvm")

	cfg, err := config.LoadOrDefault(ctx.String(ConfigFlag.Name), l)
	if err != nil {
		return fmt.Errorf("lumenvm: loading config: %w", err)
	}
	if dir := ctx.String(SnapshotDirFlag.Name); dir != "" {
		cfg.Durability.SnapshotDir = dir
	}

	modulePath := ctx.String(ModuleFlag.Name)
	if modulePath == "" {
		return cli.NewExitError("lumenvm: --module is required", 1)
	}
	module, err := lirfmt.ReadFile(modulePath)
	if err != nil {
		return fmt.Errorf("lumenvm: reading module: %w", err)
	}

	store, err := newCheckpointStore(cfg.Durability)
	if err != nil {
		return fmt.Errorf("lumenvm: opening snapshot store: %w", err)
	}

	ex := vm.NewExecutor(module, vm.Config{
		MaxCallDepth: cfg.VM.MaxCallDepth,
		Logger:       l,
	})

	name := ctx.String(CellFlag.Name)
	var res *vm.Result
	if raw := ctx.String(ResumeFlag.Name); raw != "" {
		id, perr := strconv.ParseUint(raw, 10, 64)
		if perr != nil {
			return cli.NewExitError(fmt.Sprintf("lumenvm: --resume: %v", perr), 1)
		}
		res, err = resumeFrom(ex, store, name, durability.SnapshotId(id), cfg.VM.DefaultFuel)
	} else {
		res = ex.Call(name, nil, cfg.VM.DefaultFuel)
	}
	if err != nil {
		return fmt.Errorf("lumenvm: resuming: %w", err)
	}

	return reportResult(ex, store, name, res, l)
}

func newCheckpointStore(cfg config.DurabilityConfig) (durability.CheckpointStore, error) {
	if cfg.SnapshotDir == "" {
		return durability.NewMemoryCheckpointStore(), nil
	}
	if cfg.Compress {
		return durability.NewCompressedFileCheckpointStore(cfg.SnapshotDir)
	}
	return durability.NewFileCheckpointStore(cfg.SnapshotDir)
}

func resumeFrom(ex *vm.Executor, store durability.CheckpointStore, name string, id durability.SnapshotId, fuel uint64) (*vm.Result, error) {
	data, err := store.Load(name, id)
	if err != nil {
		return nil, err
	}
	snap, err := durability.DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	if err := ex.Restore(snap); err != nil {
		return nil, err
	}
	return ex.Resume(fuel), nil
}

// reportResult prints the terminal/suspend outcome and, on any
// suspend (whatever its reason), checkpoints the Executor so a
// later `--resume` picks the run back up (spec.md §4.4 "the host is
// responsible for calling Snapshot on suspend and persisting it").
func reportResult(ex *vm.Executor, store durability.CheckpointStore, name string, res *vm.Result, l log.Logger) error {
	switch res.State {
	case vm.StateTerminated:
		if res.Err != nil {
			return fmt.Errorf("lumenvm: terminated with error: %w", res.Err)
		}
		l.Info("terminated", "results", res.Returned)
		return nil
	case vm.StateSuspended:
		snap, err := ex.Snapshot()
		if err != nil {
			return fmt.Errorf("lumenvm: snapshotting suspended executor: %w", err)
		}
		data, err := snap.Encode()
		if err != nil {
			return fmt.Errorf("lumenvm: encoding snapshot: %w", err)
		}
		id := durability.NextSnapshotId()
		if err := store.Save(name, id, data); err != nil {
			return fmt.Errorf("lumenvm: saving snapshot: %w", err)
		}
		l.Info("suspended", "reason", res.Reason, "snapshot", id)
		return nil
	default:
		return fmt.Errorf("lumenvm: unexpected result state %v", res.State)
	}
}
