package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-ai5/ai5vm/internal/anim"
	"github.com/go-ai5/ai5vm/internal/asset"
	"github.com/go-ai5/ai5vm/internal/audio"
	"github.com/go-ai5/ai5vm/internal/cursor"
	"github.com/go-ai5/ai5vm/internal/dispatch"
	"github.com/go-ai5/ai5vm/internal/gfx"
	"github.com/go-ai5/ai5vm/internal/input"
	"github.com/go-ai5/ai5vm/internal/mes"
	"github.com/go-ai5/ai5vm/internal/save"
)

// runCmd runs a title's MES bytecode to completion or until the window
// is closed, per spec.md §1's "a title, selected by name" entry point.
var runCmd = &cobra.Command{
	Use:   "run <title> <path/to/assets>",
	Short: "run a title's MES bytecode",
	Args:  cobra.ExactArgs(2),
	Run:   runTitle,
}

// cursorAssets adapts an asset.Dir to cursor.Loader, resolving a
// numbered cursor sprite to the archive entry "cursorNN", per
// ai_shimai_sys_cursor case 4's `cursor_load(no)`.
type cursorAssets struct{ dir *asset.Dir }

func (c cursorAssets) LoadCursor(index uint32) (cursor.Sprite, error) {
	data, err := c.dir.LoadData(fmt.Sprintf("cursor%02d", index))
	if err != nil {
		return cursor.Sprite{}, err
	}
	return cursor.Sprite{Pixels: data}, nil
}

func runTitle(cmd *cobra.Command, args []string) {
	title, assetDir := args[0], args[1]

	game, ok := dispatch.Lookup(title)
	if !ok {
		fmt.Printf("unknown title %q (known: %v)\n", title, dispatch.Names())
		os.Exit(1)
	}

	var sizes [11]gfx.Size
	for i, sz := range game.SurfaceSizes {
		sizes[i] = gfx.Size{W: int(sz.W), H: int(sz.H)}
	}
	surfaces, err := gfx.New(title, sizes)
	if err != nil {
		fmt.Printf("error creating window: %v\n", err)
		os.Exit(1)
	}

	dataAssets := asset.New(assetDir, "")
	keys := input.New(surfaces.Window())
	boot, err := dispatch.NewBoot(
		title,
		mes.DefaultDialect(),
		surfaces,
		audio.New(assetDir),
		cursor.New(cursorAssets{dataAssets}),
		anim.New(),
		save.New(assetDir),
		dataAssets,
		keys,
	)
	if err != nil {
		fmt.Printf("error booting title %q: %v\n", title, err)
		os.Exit(1)
	}

	boot.VM.Text = dispatch.DefaultText{D: boot.Dispatcher}
	boot.VM.Peeker = &peeker{surfaces: surfaces, input: keys}

	if err := boot.VM.LoadMES(title + ".mes"); err != nil {
		fmt.Printf("error loading %q: %v\n", title+".mes", err)
		os.Exit(1)
	}

	if err := boot.VM.Exec(); err != nil {
		fmt.Printf("\nvm error: %v\n", err)
		os.Exit(1)
	}
}

// peeker implements mes.Peeker, grounded on original_source's vm_peek:
// pump the window's event queue, refresh input state, and present the
// active screen surface once per statement.
type peeker struct {
	surfaces *gfx.Surfaces
	input    *input.State
}

func (p *peeker) Peek(vm *mes.VM) error {
	if p.surfaces.Closed() {
		return fmt.Errorf("window closed")
	}
	p.surfaces.Present()
	p.input.Poll()
	return nil
}
