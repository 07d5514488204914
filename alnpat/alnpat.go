/*

Alnpat reads multiple sequence alignments, compresses them into tables
of unique site patterns and runs checks and conversions on them. It
also loads substitution models described in YAML files.

Print an alignment summary with the composition test:

	alnpat info alignment.fst

Convert an alignment to FASTA, removing identical sequences:

	alnpat convert -format fasta -remove-identical alignment.phy

Make bootstrap replicates:

	alnpat bootstrap -n 100 -seed 1 alignment.fst

Print the rate matrix and transition probabilities of a model:

	alnpat model -t 0.1 models.yaml JC

To see all the options run:

	alnpat -h

*/
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/op/go-logging"
	"gopkg.in/alecthomas/kingpin.v2"

	"bitbucket.org/Davydov/alnpat/alignment"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("alnpat")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("alnpat", "alignment site pattern tool").Version(version)

	// global
	seqType  = app.Flag("type", "sequence type (DNA, AA, BIN, MORPH, CODON<code>, NT2AA<code>), detected by default").Default("").String()
	nThreads = app.Flag("nt", "number of threads to use").Int()
	seed     = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()
	cacheF   = app.Flag("cache", "cache compressed alignments in a database file").String()
	outLogF  = app.Flag("log", "write log to a file").String()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()

	// checks
	gapThreshold = app.Flag("gapthreshold", "report sequences with more gaps/ambiguity than this fraction").Default("0.5").Float64()
	compAlpha    = app.Flag("alpha", "p-value cutoff of the composition test").Default("0.05").Float64()
	keepZero     = app.Flag("keepzero", "keep zero state frequencies").Bool()

	// info
	infoCmd       = app.Command("info", "print alignment summary and run composition, identity and gap checks")
	infoAlignment = infoCmd.Arg("alignment", "sequence alignment (FASTA or PHYLIP)").Required().ExistingFile()
	infoSites     = infoCmd.Flag("siteinfo", "write site information to a file").String()
	infoGaps      = infoCmd.Flag("sitegaps", "write number of gaps per site to a file").String()

	// convert
	convCmd       = app.Command("convert", "convert alignment format and type")
	convAlignment = convCmd.Arg("alignment", "sequence alignment (FASTA or PHYLIP)").Required().ExistingFile()
	convFormat    = convCmd.Flag("format", "output format").Default("phylip").Enum("phylip", "fasta", "nexus")
	convOut       = convCmd.Flag("out", "write alignment to a file").String()
	convIdentical = convCmd.Flag("remove-identical", "remove identical sequences").Bool()
	convKeepTwo   = convCmd.Flag("keep-two", "keep one duplicate of each sequence").Bool()
	convKeep      = convCmd.Flag("keep", "never remove this sequence").String()
	convToAA      = convCmd.Flag("codon-to-aa", "translate codons into amino acids").Bool()
	convToDNA     = convCmd.Flag("codon-to-dna", "expand codons into nucleotides").Bool()
	convToCodon   = convCmd.Flag("to-codon", "convert DNA into codons of the genetic code").String()
	convNT2AA     = convCmd.Flag("nt2aa", "translate DNA using the genetic code").String()
	convSites     = convCmd.Flag("sites", "extract sites, e.g. 1-100,200-300\\3").String()
	convMinChar   = convCmd.Flag("min-true-char", "drop sites with fewer non-gap characters").Default("0").Int()
	convGappy     = convCmd.Flag("remove-gappy", "remove sequences consisting only of gaps").Bool()

	// bootstrap
	bsCmd       = app.Command("bootstrap", "write bootstrap replicates")
	bsAlignment = bsCmd.Arg("alignment", "sequence alignment (FASTA or PHYLIP)").Required().ExistingFile()
	bsN         = bsCmd.Flag("n", "number of replicates").Default("100").Int()
	bsSpec      = bsCmd.Flag("spec", "resampling: GENE,l1,l2,... or GENESITE,l1,l2,... or l1,n1,l2,n2,...").Default("").String()
	bsOut       = bsCmd.Flag("out", "write replicates to a file").String()
	bsFormat    = bsCmd.Flag("format", "output format").Default("phylip").Enum("phylip", "fasta", "nexus")

	// counts
	cntCmd   = app.Command("counts", "read a counts file (polymorphism-aware models)")
	cntFile  = cntCmd.Arg("counts", "counts file").Required().ExistingFile()
	cntModel = cntCmd.Flag("model", "model name with PoMo options, e.g. HKY+P+N9+WB").Default("HKY+P").String()
	cntOut   = cntCmd.Flag("out", "write the PoMo alignment in PHYLIP format to a file").String()

	// model
	modelCmd  = app.Command("model", "load substitution models from a YAML file")
	modelFile = modelCmd.Arg("file", "model file").Required().ExistingFile()
	modelName = modelCmd.Arg("name", "model to print, all models are listed by default").String()
	modelT    = modelCmd.Flag("t", "print transition probabilities for the branch length").Float64()
	modelData = modelCmd.Flag("data", "alignment for the empirical state frequencies").ExistingFile()
)

// config returns the alignment configuration from the flags.
func config() *alignment.Config {
	conf := alignment.DefaultConfig()
	conf.Threads = *nThreads
	conf.GapThreshold = *gapThreshold
	conf.CompositionAlpha = *compAlpha
	conf.KeepZeroFreq = *keepZero
	conf.Verbose = *logLevel == "debug"
	return conf
}

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	for _, module := range []string{"alnpat", "alignment", "model", "checkpoint"} {
		logging.SetLevel(level, module)
	}

	startTime := time.Now()
	summary := &RunSummary{
		RunID:       uuid.New().String(),
		Version:     version,
		CommandLine: os.Args,
		Command:     cmd,
	}

	// print revision
	log.Info(version)
	log.Infof("Run id: %s", summary.RunID)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)
	summary.Seed = *seed
	rng := rand.New(rand.NewSource(*seed))

	if *nThreads > 0 {
		runtime.GOMAXPROCS(*nThreads)
	}
	summary.NThreads = runtime.GOMAXPROCS(0)
	log.Infof("Using threads: %d.", summary.NThreads)

	switch cmd {
	case infoCmd.FullCommand():
		err = runInfo(summary)
	case convCmd.FullCommand():
		err = runConvert(summary)
	case bsCmd.FullCommand():
		err = runBootstrap(summary, rng)
	case cntCmd.FullCommand():
		err = runCounts(summary, rng)
	case modelCmd.FullCommand():
		err = runModel(summary)
	}
	if err != nil {
		log.Fatal(err)
	}

	deltaT := time.Since(startTime)
	log.Noticef("Running time: %v", deltaT)
	summary.Time = deltaT.Seconds()

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}
