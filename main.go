package main

import (
	"github.com/faiface/pixel/pixelgl"

	"github.com/go-ai5/ai5vm/cmd"
)

func main() {
	// pixelgl needs access to the main thread, so cobra's command tree
	// runs inside pixelgl.Run.
	pixelgl.Run(func() { cmd.Execute() })
}
