// Package cli implements the interactive terminal client for gophauth.
//
// The REPL reads one command per line (type "help" for the list) and
// prompts for the fields each command needs. Passwords are read without
// echo through golang.org/x/term.
package cli
