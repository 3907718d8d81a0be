// Package highlight provides a chroma lexer for datacards and a small
// renderer around chroma's styles and formatters.
package highlight
