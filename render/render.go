package main

/*
This application renders waterfalls for sweep data collected with the
arinst collector into a sqlite DB.
*/

import (
	"database/sql"
	"flag"
	"fmt"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/w6rfk/arinst/device"
	"github.com/w6rfk/arinst/extraction"

	// Blind import support for sqlite3.
	_ "github.com/mattn/go-sqlite3"
)

const timeFmt = "2006-01-02T15:04:05"

// Flags
var (
	sqliteFile   = flag.String("sqliteFile", "/tmp/arinst", "File path of the sqlite DB file to use.")
	source       = flag.String("source", device.SourceName, "Source type of the sweeps to select.")
	identifier   = flag.String("identifier", "%", "Identifier of the sweeps to select (sqlite LIKE pattern).")
	startFreq    = flag.Int64("startFreq", 0, "Select sweep points starting with this frequency in Hz.")
	endFreq      = flag.Int64("endFreq", math.MaxInt64, "Select sweep points up to this frequency in Hz.")
	startTimeRaw = flag.String("startTime", "2000-01-02T15:04:05", "Select sweeps collected after this time. Format: 2006-01-02T15:04:05")
	endTimeRaw   = flag.String("endTime", "2100-01-02T15:04:05", "Select sweeps collected before this time. Format: 2006-01-02T15:04:05")
	imgPath      = flag.String("imgPath", "/tmp/out.jpg", "Path where the rendered image should be written to.")
	imgWidth     = flag.Int("imgWidth", 0, "Width of output image in pixels. 0 means as wide as the data allows.")
	imgHeight    = flag.Int("imgHeight", 0, "Height of output image in pixels. 0 means as tall as the data allows.")
	addGrid      = flag.Bool("addGrid", true, "Add a grid with frequency and time labels to the image.")
)

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	startTime, err := time.Parse(timeFmt, *startTimeRaw)
	if err != nil {
		glog.Fatalf("unable to parse startTime (value: %q, format: %q): %s", *startTimeRaw, timeFmt, err)
	}
	endTime, err := time.Parse(timeFmt, *endTimeRaw)
	if err != nil {
		glog.Fatalf("unable to parse endTime (value: %q, format: %q): %s", *endTimeRaw, timeFmt, err)
	}

	db, err := sql.Open("sqlite3", *sqliteFile)
	if err != nil {
		glog.Fatalf("unable to open sqlite DB %q: %s", *sqliteFile, err)
	}

	result, err := extraction.Render(db, &extraction.RenderRequest{
		Filter: &extraction.FilterOptions{
			Source:     *source,
			Identifier: *identifier,
			StartFreq:  *startFreq,
			EndFreq:    *endFreq,
			StartTime:  startTime,
			EndTime:    endTime,
		},
		Image: &extraction.ImageOptions{
			Height:  *imgHeight,
			Width:   *imgWidth,
			AddGrid: *addGrid,
		},
	})
	if err != nil {
		glog.Fatalf("unable to render waterfall: %s", err)
	}

	fmt.Println("Selected source metadata:")
	fmt.Printf("  - Low frequency: %d Hz\n", result.SourceMeta.LowFreq)
	fmt.Printf("  - High frequency: %d Hz\n", result.SourceMeta.HighFreq)
	fmt.Printf("  - Start time: %s (%d)\n", result.SourceMeta.StartTime.Format(timeFmt), result.SourceMeta.StartTime.Unix())
	fmt.Printf("  - End time: %s (%d)\n", result.SourceMeta.EndTime.Format(timeFmt), result.SourceMeta.EndTime.Unix())
	fmt.Printf("  - Duration: %s\n", result.SourceMeta.EndTime.Sub(result.SourceMeta.StartTime))
	fmt.Printf("Rendered image (%d x %d)\n", result.ImageMeta.ImageWidth, result.ImageMeta.ImageHeight)

	fmt.Printf("Writing image to %q\n", *imgPath)
	f, err := os.Create(*imgPath)
	if err != nil {
		glog.Fatalf("unable to create image file %q: %s", *imgPath, err)
	}
	defer f.Close()
	switch {
	case strings.HasSuffix(*imgPath, ".png"):
		png.Encode(f, result.Image)
	case strings.HasSuffix(*imgPath, ".jpg"):
		jpeg.Encode(f, result.Image, &jpeg.Options{Quality: jpeg.DefaultQuality})
	default:
		glog.Fatalf("unsupported image format for %q, use .png or .jpg", *imgPath)
	}
}
