// Package text implements the bitmap glyph compositor described in
// spec.md §4.5, ported directly from original_source/src/aishimai.c's
// render_char_merged/render_char_redscale/render_char_separate and
// render_text. It operates on raw RGB24 surface buffers rather than any
// particular graphics library's surface type, so internal/gfx and
// internal/dispatch can each adapt their own surface representation to
// it without a package dependency cycle.
package text

// Mode selects how a glyph's color and mask planes are combined onto
// the destination surface, per aishimai.c's three render_char_*
// variants.
type Mode int

const (
	// ModeSeparate writes color data at the cursor and mask data 256
	// rows below it, leaving the merge to a later pass (MergeOverlay),
	// per render_char_separate.
	ModeSeparate Mode = iota
	// ModeMerged alpha-blends color and mask directly onto the
	// destination, per render_char_merged.
	ModeMerged
	// ModeRedscale is like ModeMerged but zeroes the green/blue
	// channels wherever the mask is nonzero, per render_char_redscale.
	ModeRedscale
)

// Font describes one glyph set: a char-code lookup table followed by
// CharW*CharH-byte mask and color planes per glyph, per aishimai.c's
// struct render_text_params. Palette is optional (nil when the font has
// no embedded palette, per ai_shimai_TXT's font_pal = NULL for the
// default font).
type Font struct {
	CharW, CharH int
	Table        []byte // le16 char-code table: [count][2]byte entries after a 2-byte count
	Mask         []byte
	Data         []byte
	Palette      []byte // 256*3 bytes of BGR triples, or nil
}

// Layout is the mutable text-cursor state threaded through Render,
// mirroring the sys_var16 text registers (text_start_x/end_x, char_space,
// line_space, text_cursor_x/y) that render_text reads and updates.
type Layout struct {
	StartX, EndX         uint16
	CharSpace, LineSpace uint16
	CursorX, CursorY     uint16
}

// charIndex finds ch in the font's lookup table, per aishimai.c's
// get_char_index. The table's first 2 bytes (little-endian) are the
// entry count, followed by that many little-endian uint16 char codes.
func charIndex(ch uint16, table []byte) int {
	if len(table) < 2 {
		return -1
	}
	count := int(table[0]) | int(table[1])<<8
	for i := 0; i < count; i++ {
		off := (i + 1) * 2
		if off+1 >= len(table) {
			break
		}
		code := uint16(table[off]) | uint16(table[off+1])<<8
		if code == ch {
			return i
		}
	}
	return -1
}

func minByte(a, b uint8) uint8 {
	if a < b {
		return a
	}
	return b
}

// alphaBlendMono blends a monochrome glyph value fg into an RGB24 pixel
// at bg, per aishimai.c's alpha_blend_rgb_mono.
func alphaBlendMono(bg []byte, fg, alpha uint8) {
	a := uint32(alpha) + 1
	invA := 256 - uint32(alpha)
	bg[0] = uint8((a*uint32(fg) + invA*uint32(bg[0])) >> 8)
	bg[1] = uint8((a*uint32(fg) + invA*uint32(bg[1])) >> 8)
	bg[2] = uint8((a*uint32(fg) + invA*uint32(bg[2])) >> 8)
}

// alphaBlendBGR blends a BGR24 palette color fg into an RGB24 pixel at
// bg, per aishimai.c's alpha_blend_rgb_bgr.
func alphaBlendBGR(bg, fg []byte, alpha uint8) {
	a := uint32(alpha) + 1
	invA := 256 - uint32(alpha)
	bg[0] = uint8((a*uint32(fg[2]) + invA*uint32(bg[0])) >> 8)
	bg[1] = uint8((a*uint32(fg[1]) + invA*uint32(bg[1])) >> 8)
	bg[2] = uint8((a*uint32(fg[0]) + invA*uint32(bg[2])) >> 8)
}

// renderCharMerged composites one glyph's mask+color planes directly
// onto dst, per aishimai.c's render_char_merged.
func renderCharMerged(dst []byte, fnt, msk, pal []byte, charW, charH, stride int) {
	for row := 0; row < charH; row++ {
		fntRow := fnt[charW*row:]
		mskRow := msk[charW*row:]
		dstRow := dst[row*stride:]
		for col := 0; col < charW; col++ {
			m := mskRow[col]
			if m == 0 {
				continue
			}
			px := dstRow[col*3 : col*3+3]
			if pal != nil {
				alpha := minByte(m, 15)*16 - 8
				c := pal[int(fntRow[col])*3 : int(fntRow[col])*3+3]
				alphaBlendBGR(px, c, alpha)
			} else if m > 15 {
				px[0], px[1], px[2] = fntRow[col], fntRow[col], fntRow[col]
			} else {
				alpha := minByte(m, 15)*16 - 8
				alphaBlendMono(px, fntRow[col], alpha)
			}
		}
	}
}

// renderCharRedscale is renderCharMerged but zeroes green/blue, per
// aishimai.c's render_char_redscale.
func renderCharRedscale(dst []byte, fnt, msk, _ []byte, charW, charH, stride int) {
	for row := 0; row < charH; row++ {
		fntRow := fnt[charW*row:]
		mskRow := msk[charW*row:]
		dstRow := dst[row*stride:]
		for col := 0; col < charW; col++ {
			m := mskRow[col]
			if m == 0 {
				continue
			}
			px := dstRow[col*3 : col*3+3]
			if m > 15 {
				px[0] = fntRow[col]
			} else {
				alpha := minByte(m, 15)*16 - 8
				alphaBlendMono(px, fntRow[col], alpha)
			}
			px[1], px[2] = 0, 0
		}
	}
}

// renderCharSeparate writes color data at dst and mask data 256 rows
// below it instead of blending, per aishimai.c's render_char_separate.
func renderCharSeparate(dst []byte, fnt, msk, _ []byte, charW, charH, stride int) {
	for row := 0; row < charH; row++ {
		fntRow := fnt[charW*row:]
		mskRow := msk[charW*row:]
		fntDst := dst[row*stride:]
		mskDst := dst[(row+256)*stride:]
		for col := 0; col < charW; col++ {
			if fntRow[col] != 0 {
				v := fntRow[col]
				fntDst[col*3], fntDst[col*3+1], fntDst[col*3+2] = v, v, v
			}
			if mskRow[col] != 0 {
				v := mskRow[col]
				mskDst[col*3], mskDst[col*3+1], mskDst[col*3+2] = v, v, v
			}
		}
	}
}

// Render draws txt (a sequence of little-endian uint16 char codes, NOT
// NUL-terminated C bytes -- callers slice off any trailing NUL pair) onto
// dst (an RGB24 buffer with the given pitch), advancing and wrapping
// layout exactly as aishimai.c's render_text does.
func Render(dst []byte, pitch int, txt []uint16, f Font, mode Mode, layout *Layout) {
	renderChar := renderCharSeparate
	switch mode {
	case ModeMerged:
		renderChar = renderCharMerged
	case ModeRedscale:
		renderChar = renderCharRedscale
	}

	x, y := layout.CursorX, layout.CursorY
	for _, code := range txt {
		i := charIndex(code, f.Table)
		if i < 0 {
			continue
		}
		glyphSize := f.CharW * f.CharH
		charMsk := f.Mask[i*glyphSize:]
		charFnt := f.Data[i*glyphSize:]
		off := int(y)*pitch + int(x)*3
		renderChar(dst[off:], charFnt, charMsk, f.Palette, f.CharW, f.CharH, pitch)

		x += layout.CharSpace
		if x+layout.CharSpace > layout.EndX {
			y += layout.LineSpace
			x = layout.StartX
		}
	}
	layout.CursorX, layout.CursorY = x, y
}

// DecodeUTF16LE splits a little-endian uint16 char-code run, per
// spec.md §4.5's "text is a run of 16-bit zenkaku/hankaku codes."
func DecodeUTF16LE(b []byte) []uint16 {
	out := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		out = append(out, uint16(b[i])|uint16(b[i+1])<<8)
	}
	return out
}

// MergeOverlay composites the color+mask planes written by ModeSeparate
// rendering (at rows [0,128) and [256,384) of src) onto a 640x128 region
// of dst starting at row 336, using the mask's blue channel as the alpha
// source, per aishimai.c's update_text. dst is assumed RGBA32; src is
// RGB24.
func MergeOverlay(src []byte, srcPitch int, dst []byte, dstPitch int) {
	const (
		width     = 640
		rows      = 128
		dstRowOff = 336
	)
	for row := 0; row < rows; row++ {
		for col := 0; col < width; col++ {
			dstOff := (row+dstRowOff)*dstPitch + col*4
			px := dst[dstOff : dstOff+4]
			px[0], px[1], px[2], px[3] = 0, 0, 0, 0
		}
	}
	for row := 0; row < rows; row++ {
		fnt := src[row*srcPitch:]
		msk := src[(row+256)*srcPitch:]
		dstRow := dst[(row+dstRowOff)*dstPitch:]
		for col := 0; col < width; col++ {
			m := msk[col*3+2]
			if m == 0 {
				continue
			}
			p := dstRow[col*4 : col*4+4]
			p[0], p[1], p[2] = fnt[col*3], fnt[col*3+1], fnt[col*3+2]
			if m > 15 {
				p[3] = 255
			} else {
				p[3] = m*16 - 8
			}
		}
	}
}
