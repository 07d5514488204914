package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/alnpat/alignment"
	"bitbucket.org/Davydov/alnpat/bio"
	"bitbucket.org/Davydov/alnpat/checkpoint"
	"bitbucket.org/Davydov/alnpat/model"
)

// cacheKey identifies an alignment file by path, size, modification
// time and the requested sequence type.
func cacheKey(fn string) ([]byte, error) {
	abs, err := filepath.Abs(fn)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	return checkpoint.Key([]byte(abs),
		[]byte(strconv.FormatInt(st.Size(), 10)),
		[]byte(st.ModTime().UTC().String()),
		[]byte(*seqType)), nil
}

// loadAlignment reads an alignment, using the cache if requested.
func loadAlignment(fn string, summary *RunSummary) (*alignment.Alignment, error) {
	conf := config()
	var cache *checkpoint.Cache
	var key []byte
	if *cacheF != "" {
		var err error
		if cache, err = checkpoint.Open(*cacheF); err != nil {
			return nil, fmt.Errorf("Error opening cache: %v", err)
		}
		defer cache.Close()
		if key, err = cacheKey(fn); err != nil {
			return nil, err
		}
		var s alignment.Snapshot
		found, err := cache.Load(key, &s)
		if err != nil {
			log.Warning("Error reading cache:", err)
		}
		if found {
			a, err := alignment.FromSnapshot(&s, conf)
			if err == nil {
				log.Infof("Alignment %s read from cache", fn)
				summary.Cached = true
				return a, nil
			}
			log.Warning("Ignoring broken cache entry:", err)
		}
	}

	seqs, err := bio.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	a, err := alignment.New(seqs.Names(), seqs.Strings(), *seqType, conf)
	if err != nil {
		return nil, err
	}
	a.Name = fn
	log.Infof("Read alignment %s", a)
	if err := cache.Save(key, a.Snapshot()); err != nil {
		log.Warning("Error saving alignment to cache:", err)
	}
	return a, nil
}

// create opens the output file, stdout if fn is empty.
func create(fn string) (io.WriteCloser, error) {
	if fn == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(fn)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

func writeAlignment(w io.Writer, a *alignment.Alignment, format string) error {
	switch format {
	case "fasta":
		return a.WriteFasta(w)
	case "nexus":
		return a.WriteNexus(w)
	}
	return a.WritePhylip(w)
}

func summarize(a *alignment.Alignment) *AlignmentSummary {
	return &AlignmentSummary{
		Name:            a.Name,
		SequenceType:    a.Type.String(),
		NumStates:       a.NumStates,
		NSeq:            a.NSeq(),
		NSite:           a.NSite(),
		NPattern:        a.NPattern(),
		ConstSites:      a.NumConstSites,
		InformativeSite: a.NumInformativeSites,
		InvariantSites:  a.NumInvariantSites,
		GapOnlySites:    a.NumGapsOnly,
	}
}

func runInfo(summary *RunSummary) error {
	a, err := loadAlignment(*infoAlignment, summary)
	if err != nil {
		return err
	}
	s := summarize(a)
	summary.Alignment = s

	fmt.Printf("Alignment has %d sequences with %d columns, %d distinct patterns\n", s.NSeq, s.NSite, s.NPattern)
	fmt.Printf("%d parsimony-informative, %d singleton sites, %d constant sites\n",
		a.NumInformativeSites, a.NumVariantSites-a.NumInformativeSites, a.NumConstSites)
	if a.NumGapsOnly > 0 {
		fmt.Printf("%d sites contain only gaps or ambiguous characters.\n", a.NumGapsOnly)
	}

	res, err := a.CheckComposition(os.Stdout)
	if err != nil {
		return err
	}
	s.FailedComp = res.NumFailed
	s.Identical = a.CheckIdenticalSeq()
	s.Gappy = a.CheckGappySeq()
	if _, err := a.CheckAbsentStates("alignment"); err != nil {
		return err
	}
	s.StateFreq = a.StateFreq()
	fmt.Println("State frequencies:")
	for i, f := range s.StateFreq {
		fmt.Printf("  %s: %.4f\n", a.StateString(bio.State(i)), f)
	}

	if *infoSites != "" {
		if err := writeFile(*infoSites, a.WriteSiteInfo); err != nil {
			return err
		}
	}
	if *infoGaps != "" {
		if err := writeFile(*infoGaps, a.WriteSiteGaps); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(fn string, write func(io.Writer) error) error {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runConvert(summary *RunSummary) error {
	a, err := loadAlignment(*convAlignment, summary)
	if err != nil {
		return err
	}
	if *convToAA && *convToDNA {
		return errors.New("codon-to-aa and codon-to-dna are mutually exclusive")
	}
	switch {
	case *convToAA:
		a, err = a.ConvertCodonToAA()
	case *convToDNA:
		a, err = a.ConvertCodonToDNA()
	case *convToCodon != "":
		a, err = a.ConvertToCodonOrAA(*convToCodon, false)
	case *convNT2AA != "":
		a, err = a.ConvertToCodonOrAA(*convNT2AA, true)
	}
	if err != nil {
		return err
	}
	if *convSites != "" {
		if a, err = a.ExtractSitesSpec(*convSites); err != nil {
			return err
		}
	}
	if *convGappy {
		a = a.RemoveGappySeq()
	}
	if *convIdentical {
		var removed, targets []string
		a, removed, targets = a.RemoveIdenticalSeq(*convKeep, *convKeepTwo)
		for i := range removed {
			log.Noticef("%s is ignored but added at the end", removed[i])
			log.Debugf("%s is identical to %s", removed[i], targets[i])
		}
	}
	if *convMinChar > 0 {
		ids := make([]int, a.NSeq())
		for i := range ids {
			ids[i] = i
		}
		a = a.ExtractSubAlignment(ids, *convMinChar)
	}
	summary.Alignment = summarize(a)

	f, err := create(*convOut)
	if err != nil {
		return err
	}
	if err := writeAlignment(f, a, *convFormat); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runBootstrap(summary *RunSummary, rng *rand.Rand) error {
	a, err := loadAlignment(*bsAlignment, summary)
	if err != nil {
		return err
	}
	summary.Alignment = summarize(a)
	f, err := create(*bsOut)
	if err != nil {
		return err
	}
	defer f.Close()
	for i := 0; i < *bsN; i++ {
		b, _, err := a.Bootstrap(rng, *bsSpec)
		if err != nil {
			return err
		}
		log.Debugf("Replicate %d: %d patterns", i+1, b.NPattern())
		if err := writeAlignment(f, b, *bsFormat); err != nil {
			return err
		}
	}
	log.Infof("Wrote %d bootstrap replicates", *bsN)
	return nil
}

func runCounts(summary *RunSummary, rng *rand.Rand) error {
	f, err := os.Open(*cntFile)
	if err != nil {
		return err
	}
	defer f.Close()
	a, err := alignment.ReadCounts(f, *cntModel, rng, config())
	if err != nil {
		return err
	}
	a.Name = *cntFile
	summary.Alignment = summarize(a)
	fmt.Printf("%d populations, %d sites, %d patterns, %d states (%s sampling, N=%d)\n",
		a.NSeq(), a.NSite(), a.NPattern(), a.NumStates, a.Pomo.Sampling, a.Pomo.N)
	if _, err := a.CheckComposition(os.Stdout); err != nil {
		return err
	}
	if *cntOut != "" {
		return writeFile(*cntOut, a.WritePhylip)
	}
	return nil
}

func printMatrix(w io.Writer, m *mat64.Dense) {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			fmt.Fprintf(w, " %10.6f", m.At(i, j))
		}
		fmt.Fprintln(w)
	}
}

func runModel(summary *RunSummary) error {
	l, err := model.LoadFile(*modelFile)
	if err != nil {
		return err
	}
	summary.Models = l.Names()
	if *modelName == "" {
		for _, name := range l.Names() {
			m, _ := l.Get(name)
			fmt.Printf("%s\t%d states\t%s\n", name, m.NumStates, m.Citation)
		}
		return nil
	}
	m, ok := l.Get(*modelName)
	if !ok {
		return fmt.Errorf("model %s not found in %s", *modelName, *modelFile)
	}
	if err := m.DumpRateMatrix(os.Stdout); err != nil {
		return err
	}
	q, err := m.RateMatrix()
	if err != nil {
		return err
	}
	fmt.Println("Q:")
	printMatrix(os.Stdout, q)

	var empirical []float64
	if *modelData != "" {
		a, err := loadAlignment(*modelData, summary)
		if err != nil {
			return err
		}
		empirical = a.StateFreq()
	}
	freqs, err := m.Frequencies(empirical)
	if err != nil {
		return err
	}
	fmt.Printf("Frequencies (%v): %v\n", m.FreqType, freqs)

	if *modelT > 0 {
		p, err := model.NewEMatrix(q, 1).Exp(*modelT)
		if err != nil {
			return err
		}
		fmt.Printf("P(%v):\n", *modelT)
		printMatrix(os.Stdout, p)
	}
	return nil
}
