// Package cli implements the wsgate command line.
package cli
