package main

import (
	"fmt"

	"github.com/coder/pdist"
)

func main() {
	caps, err := pdist.NewResolver().Resolve()
	if err != nil {
		panic(err)
	}

	circle := pdist.MakeDiagram([2]float64{0, 1}, [2]float64{0.2, 1.4})
	noisyCircle := pdist.MakeDiagram([2]float64{0, 1.1}, [2]float64{0.25, 1.3}, [2]float64{0.5, 0.55})

	fmt.Printf("bottleneck: %.3f\n", caps.Bottleneck(circle, noisyCircle))
	if d, ok := caps.Wasserstein(circle, noisyCircle, 2, 0); ok {
		fmt.Printf("wasserstein: %.3f\n", d)
	} else {
		fmt.Println("wasserstein: unavailable")
	}

	for _, src := range caps.Sources() {
		fmt.Printf("%s via %s (degraded=%v)\n", src.Capability, src.Backend, src.Degraded)
	}
}
