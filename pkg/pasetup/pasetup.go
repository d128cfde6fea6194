// pkg/pasetup/pasetup.go - reads the NonCVMInstall total from the tail of PASetup.log.

package pasetup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// TailLines is how many trailing lines of the log are inspected.
const TailLines = 10

const marker = "NonCVMInstall_total took"

var tookPattern = regexp.MustCompile(`took\s+([\d.]+)\s+ms`)

// Scan returns the NonCVMInstall_total duration in milliseconds from the log
// at path. It returns (nil, nil) when no line in the tail matches, and an error
// when the file cannot be read or the matching line holds a malformed number.
func Scan(path string) (*float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ScanReader(f)
}

// ScanReader is Scan over an io.Reader. The last TailLines lines are checked
// from the most recent backwards and the first match wins. If that match holds
// a malformed number the scan stops with an error instead of trying older lines.
func ScanReader(r io.Reader) (*float64, error) {
	tail := make([]string, 0, TailLines)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if len(tail) == TailLines {
			tail = tail[1:]
		}
		tail = append(tail, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading companion log: %w", err)
	}

	for i := len(tail) - 1; i >= 0; i-- {
		v, matched, err := parseLine(tail[i])
		if err != nil {
			return nil, err
		}
		if matched {
			return &v, nil
		}
	}
	return nil, nil
}

// parseLine reports whether line carries the marker and a "took <n> ms" value.
// A matched value that is not a valid number is an error, which ends the scan.
func parseLine(line string) (float64, bool, error) {
	if !strings.Contains(line, marker) || !strings.Contains(line, "ms") {
		return 0, false, nil
	}
	m := tookPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false, fmt.Errorf("malformed NonCVMInstall_total value %q: %w", m[1], err)
	}
	return v, true, nil
}
