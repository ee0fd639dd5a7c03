package dispatch

// Shangrlia, like isaku.go, is generalized from the shared defaults plus
// spec.md §4.3's group catalogue -- no per-title C source for Shangrlia
// was retrieved, only AI Shimai's. Documented per-slot: Shangrlia keeps
// the savedata/audio/graphics shapes AI Shimai uses but is not wired to
// FLAG_VOICE_ENABLE or the "SELECT font" custom_TXT override, since
// spec.md §4.3 doesn't name either as a cross-title feature.
func init() {
	register(&Game{
		Name: "shangrlia",
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
		Sys:                 shangrliaSys(),
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

func shangrliaSys() map[uint32]SysFunc {
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
