package config

import (
	"fmt"
	"io"
	"os"
)

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	os.Exit(writeExit(os.Stderr, 1, format, args...))
}

// ExitCodef is Exitf with a caller-chosen exit code. Codes below 1 become 1.
func ExitCodef(code int, format string, args ...any) {
	os.Exit(writeExit(os.Stderr, code, format, args...))
}

func writeExit(w io.Writer, code int, format string, args ...any) int {
	fmt.Fprintf(w, format+"\n", args...)
	if code < 1 {
		return 1
	}
	return code
}
