package dispatch

// Isaku is generalized from the shared defaults (common.go) plus
// spec.md §4.3's group catalogue, since no per-title C source for Isaku
// was retrieved for this spec -- only AI Shimai's (aishimai.go). Titles
// that share an engine generation share most of their group numbers;
// spec.md §4.3 documents SYS[2]/[3]/[4]/[5]/[8]/[10] generically
// enough to wire the same shapes AI Shimai uses, so Isaku's table reuses
// AI Shimai's handlers for those slots; SYS[6] and SYS[9] stay unset
// for Isaku -- cases
// where a title is known to diverge would need its own C source to
// ground a different body, which this retrieval didn't include.
func init() {
	register(&Game{
		Name: "isaku",
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
		Sys:                 isakuSys(),
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

func isakuSys() map[uint32]SysFunc {
	sys := defaultSys()
	sys[2] = aiShimaiSysCursor
	sys[3] = aiShimaiSysAnim
	sys[4] = aiShimaiSysSavedata
	sys[5] = aiShimaiSysAudio
	sys[8] = aiShimaiSysLoadImage
	sys[10] = aiShimaiSysGraphics
	return sys
}
