// Package grammar owns the line and section grammar of simulator
// telemetry logs.
//
// Every physical line is classified by Lex as a record
// ("<ts> - DEBUG - Field: value"), a delimiter ("<ts> - DEBUG - ****...")
// or other. Delimiters are named tokens (MapBoundary, FrameBoundary, ...)
// identified by character and width; Split cuts a line sequence at one
// token. Fold and Tokenize turn a bounded run of lines into Fields.
//
// Dependency rule: grammar depends on nothing else in simlog.
package grammar
