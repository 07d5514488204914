// plotpatterns plots a histogram of site pattern frequencies of an
// alignment.
package main

import (
	"flag"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"bitbucket.org/Davydov/alnpat/alignment"
	"bitbucket.org/Davydov/alnpat/bio"
)

func main() {
	seqType := flag.String("type", "", "sequence type")
	bins := flag.Int("bins", 20, "number of bins")
	logScale := flag.Bool("log", false, "plot log10 of frequencies")
	out := flag.String("out", "patterns.png", "output file")
	flag.Parse()

	if flag.NArg() != 1 {
		panic("usage: plotpatterns [options] alignment")
	}

	seqs, err := bio.ReadFile(flag.Arg(0))
	if err != nil {
		panic(err)
	}
	a, err := alignment.New(seqs.Names(), seqs.Strings(), *seqType, nil)
	if err != nil {
		panic(err)
	}
	fmt.Println(a)

	freq := a.PatternFreq()
	v := make(plotter.Values, len(freq))
	for i, f := range freq {
		v[i] = float64(f)
		if *logScale {
			v[i] = math.Log10(v[i])
		}
	}

	p := plot.New()
	p.Title.Text = flag.Arg(0)
	p.X.Label.Text = "sites per pattern"
	if *logScale {
		p.X.Label.Text = "log10 sites per pattern"
	}
	p.Y.Label.Text = "patterns"

	h, err := plotter.NewHist(v, *bins)
	if err != nil {
		panic(err)
	}
	p.Add(h)

	if err := p.Save(4*vg.Inch, 4*vg.Inch, *out); err != nil {
		panic(err)
	}
}
