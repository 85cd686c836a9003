package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/embtrace/stackgauge/guest"
	"github.com/embtrace/stackgauge/monitor"
)

func main() {
	var (
		wasmFile  = flag.String("wasm", "", "Path to guest wasm file")
		funcName  = flag.String("func", "_start", "Exported function to call")
		stackSize = flag.Uint("stack-size", 0, "Guest shadow stack size in bytes (-z stack-size)")
		low       = flag.Uint("low", 0, "Explicit deep bound of the shadow stack")
		high      = flag.Uint("high", 0, "Explicit shallow bound (just past the initial stack pointer)")
		global    = flag.String("global", guest.DefaultStackPointerGlobal, "Stack pointer global name")
		pattern   = flag.Uint("pattern", 0, "Sentinel byte override (default 0x5A)")
		watch     = flag.Duration("watch", 0, "Sample the estimate on this interval while the guest runs")
		verbose   = flag.Bool("v", false, "Verbose logging")
		inter     = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: stackgauge -wasm <file.wasm> [-func name] [-stack-size N]")
		fmt.Fprintln(os.Stderr, "       stackgauge -wasm <file.wasm> -low <addr> -high <addr>")
		fmt.Fprintln(os.Stderr, "       stackgauge -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	opts := probeOptions(*stackSize, *low, *high, *global, *pattern)

	if *inter {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*wasmFile, *funcName, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*wasmFile, *funcName, opts, *watch, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func probeOptions(stackSize, low, high uint, global string, pattern uint) []guest.Option {
	var opts []guest.Option
	if high > 0 || low > 0 {
		opts = append(opts, guest.WithBounds(uint32(low), uint32(high)))
	}
	if stackSize > 0 {
		opts = append(opts, guest.WithStackSize(uint32(stackSize)))
	}
	if global != guest.DefaultStackPointerGlobal {
		opts = append(opts, guest.WithStackPointerGlobal(global))
	}
	if pattern > 0 {
		opts = append(opts, guest.WithPattern(byte(pattern)))
	}
	return opts
}

func run(wasmFile, funcName string, opts []guest.Option, watch time.Duration, verbose bool) error {
	ctx := context.Background()

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	// Defer start functions so the shadow stack is painted before the
	// guest entry point touches it.
	cfg := wazero.NewModuleConfig().
		WithStartFunctions().
		WithStdout(os.Stdout).
		WithStderr(os.Stderr)

	mod, err := r.InstantiateWithConfig(ctx, data, cfg)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}

	probe, err := guest.Attach(mod, opts...)
	if err != nil {
		return err
	}
	if err := probe.Paint(); err != nil {
		return err
	}

	lo, hi := probe.Bounds()
	fmt.Printf("Guest: %s\n", wasmFile)
	fmt.Printf("Shadow stack: [%#x, %#x) = %d bytes\n", lo, hi, probe.Size())

	fn := mod.ExportedFunction(funcName)
	if fn == nil {
		return fmt.Errorf("exported function %q not found", funcName)
	}

	var mon *monitor.Monitor
	var monDone chan struct{}
	var cancelWatch context.CancelFunc
	if watch > 0 {
		logger := zap.NewNop()
		if verbose {
			logger, _ = zap.NewDevelopment()
		}
		mon = monitor.New(probe,
			monitor.WithInterval(watch),
			monitor.WithLogger(logger),
		)

		var watchCtx context.Context
		watchCtx, cancelWatch = context.WithCancel(ctx)
		monDone = make(chan struct{})
		go func() {
			defer close(monDone)
			mon.Run(watchCtx)
		}()
	}

	_, callErr := fn.Call(ctx)
	if cancelWatch != nil {
		cancelWatch()
		<-monDone
	}

	var exitErr *sys.ExitError
	if errors.As(callErr, &exitErr) {
		if exitErr.ExitCode() != 0 {
			return fmt.Errorf("guest exited with code %d", exitErr.ExitCode())
		}
	} else if callErr != nil {
		return fmt.Errorf("call %s: %w", funcName, callErr)
	}

	unused, err := probe.Unused()
	if err != nil {
		return err
	}
	report(probe.Size(), unused, mon)
	return nil
}

func report(size, unused uint32, mon *monitor.Monitor) {
	used := size - unused
	fmt.Printf("\nUnused stack: %d bytes\n", unused)
	fmt.Printf("High-water mark: %d bytes (%.1f%% of region)\n",
		used, 100*float64(used)/float64(max(size, 1)))
	if mon != nil {
		if min, ok := mon.Min(); ok {
			fmt.Printf("Lowest estimate while running: %d bytes\n", min)
		}
	}
}
