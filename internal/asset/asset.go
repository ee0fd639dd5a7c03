// Package asset implements the archive/CG/data-file loader Asset and
// AssetLoader collaborators, grounded on vm_read_file/vm_load_image's
// call shape (both resolve a name to a byte blob from an on-disk
// archive) and spec.md §6's "Out of scope: decoding title-specific
// asset/archive formats is an external collaborator's job" -- this
// package is the simplest correct implementation of that boundary, a
// plain filesystem directory, with CG decoding left as a documented
// stub since no CG pixel format was part of the retrieved source.
package asset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-ai5/ai5vm/internal/dispatch"
)

// Dir resolves asset names to files under a root directory, one file
// per name with the given extension, mirroring the archive lookup
// vm_read_file/vm_load_image perform by name.
type Dir struct {
	root string
	ext  string
}

// New returns a Dir collaborator rooted at root, resolving bare names
// with ext appended (e.g. ".dat" for data files, "" for MES files
// whose names already carry their extension).
func New(root, ext string) *Dir {
	return &Dir{root: root, ext: ext}
}

// LoadData implements Asset.LoadData, and through dispatch's
// assetLoader adapter also backs mes.AssetLoader.LoadMES -- both
// resolve a bare name to file bytes, per vm_read_file's
// asset_mes_load/asset_data_load split, which at this boundary
// collapse to the same filesystem lookup.
func (d *Dir) LoadData(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.root, name+d.ext))
	if err != nil {
		return nil, fmt.Errorf("asset: load %q: %w", name, err)
	}
	return data, nil
}

// LoadCG resolves a CG archive entry. Actual pixel-format decoding
// (original_source's per-title CG codecs) isn't part of the retrieved
// source, so this reads the raw bytes through as already-decoded RGB24
// with metrics left zeroed; a title-specific codec would replace this
// method, not this package's directory-resolution role.
func (d *Dir) LoadCG(name string) (dispatch.CGData, error) {
	data, err := d.LoadData(name)
	if err != nil {
		return dispatch.CGData{}, err
	}
	return dispatch.CGData{Pixels: data}, nil
}

// SnapshotName implements UTIL[12]/savedata_f11's black-box slot
// (SPEC_FULL.md Open Question decision (b)): a documented no-op until a
// title is known to need it for real.
func (d *Dir) SnapshotName(name string) error { return nil }
