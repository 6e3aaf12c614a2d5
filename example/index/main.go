package main

import (
	"fmt"
	"math/rand"

	"github.com/coder/pdist"
)

func main() {
	g := pdist.NewGraph[string](pdist.Default())

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		d := make(pdist.Diagram, 0, 8)
		for j := 0; j < 8; j++ {
			b := rng.Float64()
			d = append(d, pdist.Point{Birth: b, Death: b + rng.Float64()})
		}
		if err := g.Add(pdist.MakeNode(fmt.Sprintf("sample-%03d", i), d)); err != nil {
			panic(err)
		}
	}

	query, _ := g.Lookup("sample-042")
	nearest, err := g.Search(query, 5)
	if err != nil {
		panic(err)
	}
	for _, n := range nearest {
		fmt.Printf("%s %.4f\n", n.Key, g.Distance(query, n.Value))
	}
}
