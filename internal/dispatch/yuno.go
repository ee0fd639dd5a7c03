package dispatch

// YU-NO, like isaku.go/shangrlia.go, is generalized from the shared
// defaults plus spec.md §4.3's group catalogue -- no per-title C source
// for YU-NO was retrieved, only AI Shimai's.
//
// Open Question (a) from spec.md §9 / SPEC_FULL.md: YU-NO's text
// word-wrap check is implemented here the same way AI Shimai's is
// (internal/text.Render advances the cursor and tests `x+charSpace >
// endX` *before* the next glyph is drawn, matching original_source's
// render_text exactly), rather than the documented-but-unimplemented
// "wrap after drawing" behavior -- the buggy-but-shipped behavior is
// what original_source actually runs, so that's what's ported.
func init() {
	register(&Game{
		Name: "yuno",
		SurfaceSizes: [11]SurfaceSize{
			{640, 480}, {640, 1280}, {640, 480}, {640, 480}, {640, 480},
			{640, 480}, {640, 480}, {640, 512}, {864, 468}, {720, 680},
			{640, 480},
		},
		Bpp:                 24,
		XMult:               1,
		UseEffectArc:        false,
		PersistentVolume:    false,
		CallSavesProcedures: false,
		Var4Size:            aiShimaiVar4Size,
		Mem16Size:           aiShimaiMem16Size,
		Sys:                 yunoSys(),
		Util: map[uint32]UtilFunc{
			7:  aiShimaiUtil7,
			11: aiShimaiUtil11,
			16: aiShimaiUtil16,
		},
		Flags: map[GameFlag]uint16{
			FlagMenuReturn: 0x0008,
			FlagReturn:     0x0010,
		},
	})
}

func yunoSys() map[uint32]SysFunc {
	sys := defaultSys()
	sys[2] = aiShimaiSysCursor
	sys[3] = aiShimaiSysAnim
	sys[4] = aiShimaiSysSavedata
	sys[5] = aiShimaiSysAudio
	sys[8] = aiShimaiSysLoadImage
	sys[9] = aiShimaiSysDisplay
	sys[10] = aiShimaiSysGraphics
	return sys
}
