package main

import (
	"errors"
	"fmt"

	"github.com/coder/pdist"
)

// Resolves with the accelerated backend disabled, printing the notices
// emitted for each degraded capability.
func main() {
	r := pdist.NewResolver()
	missing := pdist.Unavailable("vek", errors.New("disabled for this run"))
	r.Bottleneck = missing
	r.Wasserstein = missing

	caps, err := r.Resolve()
	if err != nil {
		panic(err)
	}

	a := pdist.MakeDiagram([2]float64{0, 1})
	fmt.Printf("bottleneck: %.3f\n", caps.Bottleneck(a, a))
	_, ok := caps.Wasserstein(a, a, 0, 0)
	fmt.Printf("wasserstein computed: %v\n", ok)
}
