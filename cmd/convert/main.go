package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"settingscout/internal/report"
	"settingscout/internal/util/jsonutil"
)

func main() {
	in := flag.String("in", "", "report JSON written by scout")
	out := flag.String("out", "", "replay config output (default: <in>_config.json)")
	flag.Parse()
	if *in == "" {
		log.Fatal("--in is required")
	}
	if *out == "" {
		*out = strings.TrimSuffix(*in, filepath.Ext(*in)) + "_config.json"
	}

	raw, err := os.ReadFile(*in)
	if err != nil {
		log.Fatal(err)
	}
	rep, err := report.Decode(raw)
	if err != nil {
		log.Fatal(err)
	}
	cfg := report.Convert(rep)
	b, err := jsonutil.MarshalNoEscapeIndent(cfg, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(*out, b, 0o644); err != nil {
		log.Fatal(err)
	}
	log.Printf("%d steps, %d switches → %s", len(cfg.Steps), len(cfg.Switch), *out)
}
