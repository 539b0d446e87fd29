// cmd/mendr/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"mendr/internal/config"
	"mendr/internal/localize"
	"mendr/internal/mutate"
	"mendr/internal/oracle"
	"mendr/internal/progress"
	"mendr/internal/search/adaptive"
	"mendr/internal/session"
	"mendr/internal/store"
)

const VERSION = "0.1.0"

// Build variables - can be set during build with ldflags
var (
	BuildDate = time.Now().Format("2006-01-02")
	GitCommit = "unknown"
)

// Command aliases mapping, mirroring the teacher's cmd/sentra dispatch.
var commandAliases = map[string]string{
	"r": "repair",
	"d": "demo",
	"v": "version",
	"h": "help",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
		args[0] = alias
	}

	if cmd == "--help" || cmd == "-h" || cmd == "help" {
		showUsage()
		return
	}
	if cmd == "--version" || cmd == "-v" || cmd == "version" {
		showVersion()
		return
	}

	switch cmd {
	case "repair":
		if err := repairCommand(args[1:]); err != nil {
			log.Fatalf("error: %v", err)
		}
	case "session":
		if err := sessionCommand(args[1:]); err != nil {
			log.Fatalf("error: %v", err)
		}
	case "demo":
		if err := demoCommand(args[1:]); err != nil {
			log.Fatalf("error: %v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "unrecognised command %q\n\n", cmd)
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`mendr - generate-and-validate program repair engine

Usage:
  mendr repair  <run-spec.json> [mode]   run one search and print the result
  mendr session <run-spec.json>          open an interactive run-and-report loop
  mendr demo    [mode]                   run the bundled median() fixture (spec S1)
  mendr version                          print build information
  mendr help                             show this message

mode is one of: evolutionary (default), exhaustive, adaptive`)
}

func showVersion() {
	fmt.Printf("mendr %s (built %s, commit %s)\n", VERSION, BuildDate, GitCommit)
}

// runSpec is the on-disk JSON shape a caller hands to "repair"/"session":
// the source under repair, its test oracle's cases, which of those cases
// are expected to already be failing against the buggy source (the rest
// are expected-passing), the fault-localisation suggestions driving
// mutation, and the universe of names Rename may draw from. It is deliberately a thin, explicit document rather than a
// generic config blob, matching spec.md §6's "Localisation input"/"Test
// oracle" external-interface split: the engine's own Configuration still
// comes from an optional separate file.
type runSpec struct {
	SourceRoot      string                `json:"source_root"`
	SourceFile      string                `json:"source_file"`
	SourceText      string                `json:"source_text"`
	Names           []string              `json:"names,omitempty"`
	Cases           []oracle.Case         `json:"cases"`
	ExpectedFailing []string              `json:"expected_failing,omitempty"`
	Suggestions     []localize.Suggestion `json:"suggestions"`

	ConfigFile string `json:"config_file,omitempty"`

	StoreDriver string `json:"store_driver,omitempty"`
	StoreDSN    string `json:"store_dsn,omitempty"`

	Progress bool `json:"progress,omitempty"`
}

func loadRunSpec(path string) (runSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return runSpec{}, err
	}
	defer f.Close()

	var rs runSpec
	dec := json.NewDecoder(f)
	dec.UseNumber()
	if err := dec.Decode(&rs); err != nil {
		return runSpec{}, fmt.Errorf("decoding run spec %s: %w", path, err)
	}
	for i := range rs.Cases {
		rs.Cases[i].Args = normalizeValues(rs.Cases[i].Args)
		rs.Cases[i].Want = normalizeValue(rs.Cases[i].Want)
	}
	return rs, nil
}

// normalizeValue converts a json.Number produced by decoding a run spec
// with UseNumber into the int64 oracle.Interpreter expects (spec.md's
// toy language has no float type; every number literal is an integer).
func normalizeValue(v oracle.Value) oracle.Value {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return int64(f)
	case []any:
		out := make([]oracle.Value, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}

func normalizeValues(vs []oracle.Value) []oracle.Value {
	out := make([]oracle.Value, len(vs))
	for i, v := range vs {
		out[i] = normalizeValue(v)
	}
	return out
}

func buildSession(rs runSpec) (*session.Session, error) {
	cfg := config.Default()
	if rs.ConfigFile != "" {
		loaded, err := config.LoadFile(rs.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	s, err := session.Open(rs.SourceRoot, rs.SourceFile, rs.SourceText, rs.Cases, rs.ExpectedFailing, rs.Names, cfg, os.Stdout)
	if err != nil {
		return nil, err
	}

	if rs.StoreDriver != "" {
		st, err := store.Open(store.Driver(rs.StoreDriver), rs.StoreDSN)
		if err != nil {
			return nil, err
		}
		s.Store = st
	}
	if rs.Progress {
		s.Progress = progress.NewBroadcaster()
	}
	return s, nil
}

func parseMode(raw string) session.Mode {
	switch raw {
	case "exhaustive":
		return session.ModeExhaustive
	case "adaptive":
		return session.ModeAdaptive
	default:
		return session.ModeEvolutionary
	}
}

func repairCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: mendr repair <run-spec.json> [mode]")
	}
	rs, err := loadRunSpec(args[0])
	if err != nil {
		return err
	}
	mode := session.ModeEvolutionary
	if len(args) > 1 {
		mode = parseMode(args[1])
	}

	s, err := buildSession(rs)
	if err != nil {
		return err
	}
	if s.Store != nil {
		defer s.Store.Close()
	}

	weighted := localize.Localize(s.Index, rs.Suggestions)
	sids := make([]mutate.SID, 0, len(weighted))
	for _, w := range weighted {
		sids = append(sids, w.SID)
	}
	edits := adaptive.BuildEdits(sids, adaptive.ReverseUniverse(sids, s.Index.AllSIDs()))

	ctx := context.Background()
	res, err := s.Run(ctx, mode, rs.Suggestions, edits)
	if err != nil {
		return err
	}
	s.Report(res)
	if res.Found == nil {
		os.Exit(1)
	}
	return nil
}

func sessionCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: mendr session <run-spec.json>")
	}
	rs, err := loadRunSpec(args[0])
	if err != nil {
		return err
	}
	s, err := buildSession(rs)
	if err != nil {
		return err
	}
	if s.Store != nil {
		defer s.Store.Close()
	}

	weighted := localize.Localize(s.Index, rs.Suggestions)
	sids := make([]mutate.SID, 0, len(weighted))
	for _, w := range weighted {
		sids = append(sids, w.SID)
	}
	edits := adaptive.BuildEdits(sids, adaptive.ReverseUniverse(sids, s.Index.AllSIDs()))

	return s.RunLoop(context.Background(), os.Stdin, rs.Suggestions, edits)
}

// demoCommand runs spec.md §8 scenario S1 end to end: a three-argument
// median() whose (x<y, !(y<z), !(x<z)) leaf wrongly returns y instead of
// x, repaired against the five passing / one failing test case that
// actually exercise it.
func demoCommand(args []string) error {
	mode := session.ModeEvolutionary
	if len(args) > 0 {
		mode = parseMode(args[0])
	}

	const sourceFile = "median.mdr"
	const buggyMedian = `func median(x, y, z) {
    if (x < y) {
        if (y < z) {
            return y
        } else {
            if (x < z) {
                return z
            } else {
                return y
            }
        }
    } else {
        if (x < z) {
            return x
        } else {
            if (y < z) {
                return z
            } else {
                return y
            }
        }
    }
}
`
	cases := []oracle.Case{
		{Name: "1,2,3", Func: "median", Args: []oracle.Value{int64(1), int64(2), int64(3)}, Want: int64(2)},
		{Name: "1,3,2", Func: "median", Args: []oracle.Value{int64(1), int64(3), int64(2)}, Want: int64(2)},
		{Name: "2,3,1", Func: "median", Args: []oracle.Value{int64(2), int64(3), int64(1)}, Want: int64(2)},
		{Name: "3,2,5", Func: "median", Args: []oracle.Value{int64(3), int64(2), int64(5)}, Want: int64(3)},
		{Name: "5,2,4", Func: "median", Args: []oracle.Value{int64(5), int64(2), int64(4)}, Want: int64(4)},
		{Name: "5,4,3", Func: "median", Args: []oracle.Value{int64(5), int64(4), int64(3)}, Want: int64(4)},
	}
	// Only "2,3,1" (z<=x<y) reaches the buggy leaf on line 9; every other
	// case resolves to a correct leaf regardless of the bug.
	expectedFailing := []string{"2,3,1"}
	suggestions := []localize.Suggestion{
		{File: sourceFile, Line: 9, Weight: 1.0},
	}

	cfg := config.Default()
	cfg.PopulationSize = 16
	cfg.MaxGenerations = 25
	cfg.MutationProbability = 1.0
	cfg.OperatorWeights = map[mutate.Kind]float64{mutate.Replace: 1.0}
	cfg.KDepth = 1

	dir, err := os.MkdirTemp("", "mendr-demo-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	s, err := session.Open(dir, sourceFile, buggyMedian, cases, expectedFailing, []string{"x", "y", "z"}, cfg, os.Stdout)
	if err != nil {
		return err
	}

	weighted := localize.Localize(s.Index, suggestions)
	sids := make([]mutate.SID, 0, len(weighted))
	for _, w := range weighted {
		sids = append(sids, w.SID)
	}
	edits := adaptive.BuildEdits(sids, adaptive.ReverseUniverse(sids, s.Index.AllSIDs()))

	res, err := s.Run(context.Background(), mode, suggestions, edits)
	if err != nil {
		return err
	}
	s.Report(res)
	if res.Found == nil {
		os.Exit(1)
	}
	return nil
}
