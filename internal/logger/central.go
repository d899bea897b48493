// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package logger

import (
	"fmt"
	"io"
)

// maxCentral is the number of entries retained by the central logger
// before the oldest are discarded.
const maxCentral = 512

var central = newRingLog(maxCentral)

// Level is the severity of a log entry. The spec's error table (§7)
// distinguishes "log at debug level" diagnostics (invalid bus access,
// ROM writes) from routine informational messages; Level lets callers
// preserve that distinction without needing a third-party leveled
// logger.
type Level int

const (
	// Debug is used for per-access diagnostics: invalid bus accesses,
	// ignored ROM writes, unknown MMIO register touches.
	Debug Level = iota
	// Info is used for coarser events: unimplemented instructions,
	// halts, resets.
	Info
)

func (l Level) String() string {
	if l == Debug {
		return "debug"
	}
	return "info"
}

// Log adds an entry to the central logger.
func Log(level Level, tag, detail string) {
	central.log(tag, level.String()+": "+detail)
}

// Logf adds a formatted entry to the central logger.
func Logf(level Level, tag, detail string, args ...interface{}) {
	central.log(tag, level.String()+": "+fmt.Sprintf(detail, args...))
}

// Clear removes all entries from the central logger.
func Clear() {
	central.clear()
}

// Write copies the full contents of the central logger to output.
func Write(output io.Writer) {
	central.write(output)
}

// Tail writes the last number entries to output.
func Tail(output io.Writer, number int) {
	central.tail(output, number)
}

// SetEcho causes every future log entry to also be written to output as
// it is logged. Pass nil to disable echoing.
func SetEcho(output io.Writer) {
	central.echo = output
}
