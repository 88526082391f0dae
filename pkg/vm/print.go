package vm

import "os"

func osStdoutWrite(s string) (int, error) {
	return os.Stdout.WriteString(s)
}
