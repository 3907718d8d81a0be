// Package lsp implements a Language Server Protocol server for datacards.
//
// The server speaks JSON-RPC 2.0 over a single stream pair using the LSP base
// protocol framing (Content-Length headers) and handles one message at a time.
// Open documents are kept in revisioned buffers, and each revision is analyzed
// at most once.
//
// # Features
//
//   - Diagnostics: built-in checks plus any loaded Lua rules, published on
//     didOpen and didChange
//   - Completion: datacard keywords ranked by the section at the cursor
//   - Hover: keyword description and the section of the hovered line
//   - Folding ranges between consecutive dividers
//   - Document symbols, one per non-blank block
//   - Formatting: column alignment of the Processes and Systematics blocks
//
// After every diagnostics publication the server also sends a
// datacard/detected notification reporting whether the document was
// recognized as a datacard.
//
// # Usage
//
//	srv := lsp.NewServer(os.Stdin, os.Stdout,
//	    lsp.WithLogger(logger),
//	    lsp.WithLinter(engine),
//	)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package lsp
