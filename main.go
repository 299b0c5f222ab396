package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/DINESHPANDIAN-J/speech-intelligent-app/analyzer"
	"github.com/DINESHPANDIAN-J/speech-intelligent-app/audio"
	"github.com/DINESHPANDIAN-J/speech-intelligent-app/log"
	"github.com/DINESHPANDIAN-J/speech-intelligent-app/shutdown"
)

var version = "dev"

var analysisCount atomic.Int64

var shutdownOnce sync.Once

func gracefulShutdown(rec *audio.Recorder) {
	shutdownOnce.Do(func() {
		if rec != nil {
			rec.Teardown()
		}
		if n := analysisCount.Load(); n > 0 {
			log.SessionEnd(int(n))
		}
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func main() {
	// Credentials may live in a local .env during development.
	godotenv.Load()

	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	formatFlag := flag.String("format", "wav", "Recording format: wav or flac")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("speech-app %s\n", version)
		os.Exit(0)
	}

	switch *formatFlag {
	case "wav", "flac":
	default:
		fmt.Printf("Error: unknown format %q (use wav or flac)\n", *formatFlag)
		os.Exit(1)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	an, err := analyzer.New()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	log.SessionStart(an.Name(), *formatFlag)

	// A positional file argument runs one analysis and exits.
	if args := flag.Args(); len(args) > 0 {
		os.Exit(runFile(an, args[0]))
	}

	ctx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := ctx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	rec := audio.NewRecorder(ctx, selectedDevice, *formatFlag,
		func(elapsed time.Duration) {
			tuiSend(RecordingTickMsg{Duration: elapsed.Seconds()})
		},
		func(rms float64) {
			tuiSend(AudioLevelMsg{Level: rms})
		})

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		gracefulShutdown(rec)
	}()

	wf := newWorkflow()
	p := NewTUIProgram(wf, rec, an, deviceLineText(selectedDevice), *formatFlag)
	tuiMu.Lock()
	tuiProgram = p
	tuiMu.Unlock()

	if _, err := p.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	gracefulShutdown(rec)
}

func runFile(an analyzer.Analyzer, path string) int {
	clip, err := audio.LoadClip(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	fmt.Printf("Analyzing %s (%.1f KB, %s)...\n", clip.Name, float64(len(clip.Data))/1024.0, clip.MIMEType)

	id := uuid.NewString()
	log.AnalysisStart(id, an.Name(), clip.Name)

	start := time.Now()
	res, err := an.Analyze(context.Background(), clip)
	elapsed := time.Since(start)
	if err != nil {
		log.Errorf("analysis error: %v", err)
		fmt.Printf("Error: %v\n", err)
		return 1
	}

	log.Transcript(id, res.Transcript)
	metrics := log.Metrics{
		AudioSizeKB: float64(len(clip.Data)) / 1024.0,
		AnalysisMs:  float64(elapsed.Milliseconds()),
	}
	connReused := false
	tlsProto := ""
	if res.Net != nil {
		metrics.PayloadKB = res.Net.PayloadKB
		metrics.DNSTimeMs = res.Net.DNSMs
		metrics.TLSTimeMs = res.Net.TLSMs
		metrics.TTFBMs = res.Net.TTFBMs
		metrics.TotalTimeMs = res.Net.TotalMs
		connReused = res.Net.ConnReused
		tlsProto = res.Net.TLSProtocol
	}
	log.AnalysisMetrics(id, an.Name(), metrics, connReused, tlsProto)

	fmt.Println()
	fmt.Print(renderReport(res, elapsed, 78))
	log.SessionEnd(1)
	log.Close()
	return 0
}
