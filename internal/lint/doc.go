// Package lint reports structural problems in datacards.
//
// Built-in checks cover a missing or displaced header, missing Processes or
// Systematics blocks, and columns that the aligner would move. User rules
// are Lua scripts run in a sandbox: io, os, debug and package are not
// available, load/dofile are removed and every call is bounded by a timeout.
//
//	eng := lint.NewEngine(lint.WithLogger(logger))
//	defer eng.Close()
//
//	if err := eng.LoadFiles(ctx, "rules/naming.lua"); err != nil {
//	    return err
//	}
//	diags, err := eng.Check(ctx, datacard.SplitLines(text))
package lint
