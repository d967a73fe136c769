// Command tracker runs the tracking daemon: it polls a tracking device in
// the background, serves the query API over HTTP, and on shutdown persists
// the acquired samples and writes an acquisition report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/saviola777/PlusLib/internal/api"
	"github.com/saviola777/PlusLib/internal/config"
	"github.com/saviola777/PlusLib/internal/devices/lineproto"
	"github.com/saviola777/PlusLib/internal/report"
	"github.com/saviola777/PlusLib/internal/storage"
	"github.com/saviola777/PlusLib/internal/tracking"
	"github.com/saviola777/PlusLib/internal/tracking/buffer"
	"github.com/saviola777/PlusLib/internal/tracking/sim"
)

var (
	deviceKind = flag.String("device", "sim", "Device driver: sim or serial")
	serialPath = flag.String("serial-path", "/dev/ttyUSB0", "Serial port path for the serial device")
	numTools   = flag.Int("tools", 2, "Number of tool ports")
	frequency  = flag.Float64("freq", 30, "Acquisition frequency in Hz")
	bufferCap  = flag.Int("buffer", buffer.DefaultCapacity, "Per-tool sample buffer capacity")
	listen     = flag.String("listen", ":8080", "HTTP listen address")
	dbPath     = flag.String("db", "", "Optional sqlite path to record acquired samples on shutdown")
	configPath = flag.String("config", "", "Optional JSON configuration file")
	reportDir  = flag.String("report-dir", "", "Optional directory to write the acquisition report to")
)

func main() {
	flag.Parse()

	var device tracking.Device
	switch *deviceKind {
	case "sim":
		device = sim.New(*numTools, nil)
	case "serial":
		device = lineproto.New(*serialPath, nil, *numTools, nil)
	default:
		log.Fatalf("unknown device %q (want sim or serial)", *deviceKind)
	}

	tracker, err := tracking.New(tracking.Config{
		Device:        device,
		NumberOfTools: *numTools,
		StoreFactory:  buffer.Factory(*bufferCap),
		Frequency:     *frequency,
	})
	if err != nil {
		log.Fatalf("creating tracker: %v", err)
	}

	if *configPath != "" {
		doc, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading configuration: %v", err)
		}
		if doc.Tracker != nil {
			if err := tracker.ReadConfiguration(doc.Tracker); err != nil {
				log.Fatalf("applying configuration: %v", err)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tracker.StartTracking(); err != nil {
		log.Fatalf("starting tracking: %v", err)
	}
	tracker.SetStartTime(float64(time.Now().UnixNano()) / 1e9)
	log.Printf("tracking started: device=%s tools=%d freq=%gHz", *deviceKind, *numTools, *frequency)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		apiMux := api.NewServer(tracker).ServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiMux))

		server := &http.Server{Addr: *listen, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	<-ctx.Done()
	wg.Wait()

	if err := tracker.StopTracking(); err != nil {
		log.Printf("stopping tracking: %v", err)
	}
	log.Printf("tracking stopped after %d samples (update time %.3f)",
		totalSamples(tracker), tracker.UpdateTime())

	if *dbPath != "" {
		if err := recordSamples(tracker, *dbPath, *deviceKind); err != nil {
			log.Printf("recording samples: %v", err)
		}
	}
	if *reportDir != "" {
		if err := writeReport(tracker, *reportDir); err != nil {
			log.Printf("writing report: %v", err)
		}
	}
	log.Print("graceful shutdown complete")
}

func totalSamples(t *tracking.Tracker) int {
	total := 0
	for port := 0; port < t.NumberOfTools(); port++ {
		tool, err := t.GetTool(port)
		if err != nil {
			continue
		}
		total += tool.Store().Len()
	}
	return total
}

// recordSamples persists every buffered sample into a fresh recorder
// session.
func recordSamples(t *tracking.Tracker, path, device string) error {
	rec, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer rec.Close()

	sessionID, err := rec.BeginSession(device)
	if err != nil {
		return err
	}
	for port := 0; port < t.NumberOfTools(); port++ {
		tool, err := t.GetTool(port)
		if err != nil {
			return err
		}
		for _, timestamp := range tool.Store().Timestamps() {
			sample, err := tool.Store().Nearest(timestamp)
			if err != nil {
				return err
			}
			if err := rec.RecordSample(sessionID, tool.Name(), port, sample); err != nil {
				return err
			}
		}
	}
	if err := rec.EndSession(sessionID); err != nil {
		return err
	}
	log.Printf("recorded session %s to %s", sessionID, path)
	return nil
}

// writeReport renders the acquisition report plus per-tool sample-period
// plots into dir.
func writeReport(t *tracking.Tracker, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	builder := report.NewBuilder("Tracking data acquisition report")
	plotter := &report.PNGPlotter{Dir: dir}
	if err := t.GenerateTrackingDataAcquisitionReport(builder, plotter); err != nil {
		return err
	}

	path := filepath.Join(dir, "report.html")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()
	if err := builder.WriteHTML(f); err != nil {
		return err
	}
	log.Printf("wrote acquisition report to %s", path)
	return nil
}
