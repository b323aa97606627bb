package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tingold/geogrid"
)

var (
	dir  = flag.String("dir", ".", "directory scanned for grids")
	addr = flag.String("addr", ":8080", "listen address")
)

func main() {
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	grids, err := loadGrids(logger, *dir)
	if err != nil {
		logger.Error("Unable to scan grid directory", "dir", *dir, "err", err)
		os.Exit(1)
	}
	if len(grids) == 0 {
		logger.Error("No grids found", "dir", *dir)
		os.Exit(1)
	}

	// Build both encodings once; the catalogue does not change while serving.
	var buf bytes.Buffer
	opts := geogrid.DefaultOptions()
	opts.Name = "grid_footprints"
	opts.Description = "Footprints of the grids in " + *dir
	opts.CRS = geogrid.WGS84()
	if err := geogrid.WriteFootprints(&buf, grids, opts); err != nil {
		logger.Error("Failed to create FlatGeobuf", "err", err)
		os.Exit(1)
	}
	flatgeobufData := buf.Bytes()

	geojsonData, err := json.Marshal(geogrid.FootprintCollection(grids))
	if err != nil {
		logger.Error("Failed to create GeoJSON", "err", err)
		os.Exit(1)
	}

	http.HandleFunc("/footprints.fgb", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Write(flatgeobufData)
	})
	http.HandleFunc("/footprints.geojson", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Write(geojsonData)
	})

	logger.Info("Server starting", "addr", *addr, "grids", len(grids))
	if err := http.ListenAndServe(*addr, nil); err != nil {
		logger.Error("Server stopped", "err", err)
		os.Exit(1)
	}
}

// loadGrids loads every file of dir with a known grid extension. Files that
// fail to decode are logged and skipped.
func loadGrids(logger *slog.Logger, dir string) ([]geogrid.NamedGrid, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var grids []geogrid.NamedGrid
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if geogrid.FormatFromPath(path) == geogrid.FormatUnknown {
			continue
		}
		g, err := geogrid.LoadGrid(path)
		if err != nil {
			logger.Warn("Skipping grid", "path", path, "err", err)
			continue
		}
		grids = append(grids, geogrid.NamedGrid{Name: e.Name(), Grid: g})
	}
	return grids, nil
}
