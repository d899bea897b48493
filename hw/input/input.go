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

// Package input drains the host's input_state callback once per
// frame, grounded on the teacher's pull-model Controller interface
// (CheckInput fetches an event on request rather than the host
// pushing state into the core asynchronously).
package input

// Source is the host side of the input_state callback (spec.md §6):
// the core asks, for a given port/device/index/id, what the current
// value is.
type Source interface {
	InputState(port, device, index, id int) int16
}

// Slot identifies one input_state query the core is configured to
// poll every frame. What a given port/device/index/id combination
// means is entirely a host convention; the core only threads it
// through.
type Slot struct {
	Port, Device, Index, ID int
}

// Poller drains a fixed set of slots from the host at the start of
// every frame (spec.md §5's "input drain" phase) and caches the
// results for the rest of the frame to read.
type Poller struct {
	source Source
	slots  []Slot
	values map[Slot]int16
}

// NewPoller returns a Poller that will query source for each of slots
// on every Drain call.
func NewPoller(source Source, slots ...Slot) *Poller {
	return &Poller{
		source: source,
		slots:  slots,
		values: make(map[Slot]int16, len(slots)),
	}
}

// Drain polls every configured slot. A nil source leaves the cached
// values untouched, so a core running headless (no host attached)
// degrades to reporting whatever was last cached (zero, initially).
func (p *Poller) Drain() {
	if p.source == nil {
		return
	}
	for _, s := range p.slots {
		p.values[s] = p.source.InputState(s.Port, s.Device, s.Index, s.ID)
	}
}

// Value returns the last-drained value for slot s.
func (p *Poller) Value(s Slot) int16 {
	return p.values[s]
}
