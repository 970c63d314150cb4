// Command caskydump prints the contents of a casky log file, one line per
// record, flagging any CRC mismatch. See spec §6.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/casky-db/casky/internal/format"
)

func main() {
	flag.Parse()
	args := flag.Args()

	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: caskydump <log-path>")
		os.Exit(1)
	}

	if err := dump(args[0], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "caskydump: %v\n", err)
		os.Exit(1)
	}
}

func dump(path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		rec, ok, err := format.DecodeUnchecked(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode record: %w", err)
		}

		marker := ""
		if !ok {
			marker = " MISMATCH"
		}
		fmt.Fprintf(out, "crc=%08x%s ts=%d key=%q value=%q\n",
			rec.CRC, marker, rec.Timestamp, rec.Key, rec.Value)
	}
}
