// Command vod-index scans a media directory, probes every recognized file
// (H.264/H.265 Annex-B, AAC/ADTS, MPEG-TS, Matroska), and writes the
// resulting catalog as JSON. Useful for inspecting what rtspvod-serve would
// pick up before actually running the engine.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/snapetech/rtspvod/internal/mapcache"
	"github.com/snapetech/rtspvod/internal/mediacatalog"
)

func main() {
	mediaDir := flag.String("media", "./media", "Directory of VOD media files to scan")
	outPath := flag.String("out", "", "Write catalog JSON to this path instead of stdout")
	flag.Parse()

	cache := mapcache.New()
	defer cache.Clear()

	cat := mediacatalog.New()
	if err := cat.Scan(*mediaDir, cache); err != nil {
		log.Fatalf("scan %s: %v", *mediaDir, err)
	}

	entries := cat.All()
	log.Printf("indexed %d entries from %s", len(entries), *mediaDir)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		log.Fatalf("marshal catalog: %v", err)
	}

	if *outPath == "" {
		os.Stdout.Write(data)
		os.Stdout.Write([]byte("\n"))
		return
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		log.Fatalf("write %s: %v", *outPath, err)
	}
	log.Printf("wrote catalog to %s", *outPath)
}
