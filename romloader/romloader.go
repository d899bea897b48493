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

// Package romloader implements load_rom (spec.md §6): read a firmware
// image off disk for the Bus to copy into its ROM buffer. Unlike the
// teacher's cartridgeloader, there is no fingerprinting or mapper
// detection to do — the firmware image is always raw bytes loaded
// verbatim at offset 0 (spec.md §6 "Persisted state").
package romloader

import (
	"io"
	"os"

	"github.com/ZacGeurts/acornarc-AI/hw/bus/addresses"
	"github.com/ZacGeurts/acornarc-AI/internal/logger"
)

// Load reads up to addresses.ROMSizeMax bytes from path. Any failure
// to open or read the file is logged and reported as a nil result;
// per spec.md §7 ("ROM load error ... leave ROM zero-filled;
// continue") this is not a fatal error — the caller hands whatever
// Load returns straight to Bus.LoadROM, which zero-fills the rest.
func Load(path string) []byte {
	f, err := os.Open(path)
	if err != nil {
		logger.Logf(logger.Info, "romloader", "load %s: %v", path, err)
		return nil
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, addresses.ROMSizeMax))
	if err != nil {
		logger.Logf(logger.Info, "romloader", "load %s: %v", path, err)
		return nil
	}
	return data
}
