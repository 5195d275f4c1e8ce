// Package main provides a performance benchmarking tool for the rowscope CLI.
// It generates synthetic captures of increasing size, runs each command
// several times, treats the first successful cached run as cold and averages
// the rest as warm, and writes a CSV summary for documentation.
//
// Prerequisites:
// - rowscope binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for generated captures and the benchmark cache
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/rowscope/internal/sampleio"
	"github.com/huangsam/rowscope/schema"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Capture     string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Files       int            // captures per size
	Sizes       map[string]int // label -> samples per capture
	Order       []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Files:       8,
		Sizes:       map[string]int{"10k": 10_000, "100k": 100_000, "1m": 1_000_000},
		Order:       []string{"10k", "100k", "1m"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	captures, err := generateCaptures(config)
	if err != nil {
		fmt.Printf("Failed to generate captures: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config, captures)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the rowscope binary and work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("rowscope"); err != nil {
		return fmt.Errorf("rowscope binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// generateCaptures writes config.Files synthetic CSV captures per size label.
// Conflicts recur roughly every 32 samples on a noisy hit baseline.
func generateCaptures(config BenchmarkConfig) (map[string][]string, error) {
	rng := rand.New(rand.NewPCG(42, 1))
	captures := make(map[string][]string, len(config.Sizes))

	for _, label := range config.Order {
		n := config.Sizes[label]
		for f := range config.Files {
			latencies := make([]float64, n)
			for i := range latencies {
				switch {
				case i%32 == 31:
					latencies[i] = 1300 + rng.Float64()*400
				case rng.IntN(1000) == 0:
					latencies[i] = 9000 // interrupt noise, dropped by the acts preset
				default:
					latencies[i] = 200 + rng.Float64()*150
				}
			}

			path := filepath.Join(config.WorkDir, fmt.Sprintf("capture_%s_%d.csv", label, f))
			if err := writeCapture(path, schema.NewSampleSet(latencies)); err != nil {
				return nil, err
			}
			captures[label] = append(captures[label], path)
		}
	}
	return captures, nil
}

func writeCapture(path string, samples schema.SampleSet) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sampleio.WriteCSV(file, samples); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

// runBenchmarks executes all benchmark tests across the generated sizes
func runBenchmarks(config BenchmarkConfig, captures map[string][]string) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sizes, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Order), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, label := range config.Order {
		files := captures[label]
		fmt.Printf("Benchmarking %d captures of %s samples\n", len(files), label)

		results = append(results, runBenchmarkSuite(config, label, "analyze", files, nil))
		results = append(results, runBenchmarkSuite(config, label, "check", files, []string{"--min-conflicts", "1"}))
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, label, command string, files, extraArgs []string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, label)

	// Each suite starts with an empty cache so the first cached run is cold
	cacheDB := filepath.Join(config.WorkDir, fmt.Sprintf("cache_%s_%s.db", label, command))
	_ = os.Remove(cacheDB)

	runPhase := func(cacheArgs []string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		args := append(append([]string{command}, cacheArgs...), extraArgs...)
		cold, times := runBenchmark(config, append(args, files...), numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase([]string{"--cache-backend", "none"}, config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase([]string{"--cache-backend", "sqlite", "--cache-db-connect", cacheDB}, config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Capture:     label,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a rowscope command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, args []string, numRuns int) (coldTime float64, warmTimes []float64) {
	args = append([]string{args[0], "--workers", fmt.Sprint(config.Workers), "--color", "no"}, args[1:]...)

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("rowscope", args...)
		cmd.Dir = config.WorkDir

		done := make(chan bool, 1)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output, args) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte, args []string) bool {
	outputStr := string(output)
	if args[0] == "check" {
		return strings.Contains(outputStr, "All files passed policy checks")
	}
	return strings.Contains(outputStr, "Analyzed") && strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("rowscope_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"capture", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Capture, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "analyze", "Analyze:")
	printCommandSummary(results, "check", "Check:")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-6s: No-cache: %s, Cold: %s, Warm: %s\n", result.Capture, result.NoCacheTime, result.ColdTime, result.WarmTime)
		}
	}
}
