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

// Package video defines the contract between the core and the host
// frontend: the frame callback, logging/messages, and input queries
// (spec.md §6). It is grounded on the teacher's Television/
// PixelRenderer split, collapsed here into one small interface since
// the core only ever drives one display sink at a time, unlike the
// teacher's multi-renderer fan-out.
package video

// Level distinguishes a log message's severity for the host, the same
// two tiers internal/logger uses.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
)

func (l Level) String() string {
	if l == LevelInfo {
		return "info"
	}
	return "debug"
}

// Host is implemented by the frontend embedding the core. Machine
// calls InputState during each frame's input drain, VideoRefresh once
// at the end of each frame, and Message when the CPU halts; none of
// them may block (spec.md §5 "no blocking I/O inside the core").
type Host interface {
	// VideoRefresh delivers one finished frame: a 16bpp little-endian
	// 5-6-5 pixel buffer, its dimensions, and its row pitch in bytes.
	// The buffer's lifetime ends when VideoRefresh returns.
	VideoRefresh(buf []byte, width, height, pitchBytes int)

	// Log reports a diagnostic to the host. The core's own diagnostics
	// go to internal/logger; Machine does not forward them to Log.
	Log(level Level, message string)

	// Message surfaces a short, user-facing string the host should
	// display for roughly the given number of frames.
	Message(str string, frames int)

	// InputState answers one input_state query (spec.md §6); see
	// package input for how the core drives this once per frame.
	InputState(port, device, index, id int) int16
}
