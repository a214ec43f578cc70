// Package main provides a performance benchmarking tool for the bikebin CLI.
// It generates synthetic dock readings of increasing size, then measures
// aggregation and evaluation times with and without a SQLite store. Each
// test runs multiple times; the first successful run is treated as cold and
// the rest are averaged as warm. Results are written as CSV.
//
// Prerequisites:
// - bikebin binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for generated readings and the benchmark store
package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// windowStart is the first instant of every generated dataset.
const windowStart = "2013-06-07T00:00:00Z"

// BenchmarkResult holds the result of a benchmark run (no-store average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset     string
	Command     string
	NoStoreTime string
	ColdTime    string
	WarmTime    string
}

// Dataset describes one synthetic input.
type Dataset struct {
	Name     string
	Stations int
	Days     int
	Every    time.Duration // Interval between readings of one station
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoStoreRuns int
	StoreRuns   int
	Datasets    []Dataset
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	workDir, err := filepath.Abs(os.Args[1])
	if err != nil {
		fmt.Printf("Invalid work dir: %v\n", err)
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     workDir,
		Timeout:     5 * time.Minute,
		Workers:     14,
		NoStoreRuns: 3,
		StoreRuns:   4,
		Datasets: []Dataset{
			{Name: "small", Stations: 20, Days: 7, Every: 5 * time.Minute},
			{Name: "medium", Stations: 100, Days: 14, Every: 2 * time.Minute},
			{Name: "large", Stations: 400, Days: 14, Every: time.Minute},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the bikebin binary and the work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("bikebin"); err != nil {
		return fmt.Errorf("bikebin binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// runBenchmarks executes all benchmark tests across configured datasets
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d workers, no-store: %d runs, store: %d runs\n",
		len(config.Datasets), config.Timeout, config.Workers, config.NoStoreRuns, config.StoreRuns)

	for _, ds := range config.Datasets {
		fmt.Printf("Generating %s dataset (%d stations, %d days)\n", ds.Name, ds.Stations, ds.Days)
		rawPath := filepath.Join(config.WorkDir, ds.Name+".txt")
		if err := generateReadings(rawPath, ds); err != nil {
			fmt.Printf("Warning: failed to generate %s: %v\n", ds.Name, err)
			continue
		}

		dbPath := filepath.Join(config.WorkDir, ds.Name+".db")
		_ = os.Remove(dbPath)
		window := fmt.Sprintf("--start %s --days %d", windowStart, ds.Days)

		result := runBenchmarkSuite(config, ds.Name, dbPath, "aggregate", "aggregation", window+" "+rawPath)
		results = append(results, result)

		// Evaluation reads a bins file so both phases see the same input
		binsPath := filepath.Join(config.WorkDir, ds.Name+".bins")
		prepareArgs := append([]string{"aggregate", "--store-backend", "none", "--output-file", binsPath}, parseArgs(window)...)
		prepare := exec.Command("bikebin", append(prepareArgs, rawPath)...)
		if output, err := prepare.CombinedOutput(); err != nil {
			fmt.Printf("Warning: failed to write bins file: %v\nOutput: %s\n", err, string(output))
			continue
		}
		result = runBenchmarkSuite(config, ds.Name, dbPath, "evaluate", "evaluation", window+" --bins-file "+binsPath)
		results = append(results, result)
	}

	return results
}

// generateReadings writes one reading per station every ds.Every over the
// whole window, with a daily occupancy cycle plus noise.
func generateReadings(path string, ds Dataset) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	start, err := time.Parse(time.RFC3339, windowStart)
	if err != nil {
		return err
	}
	end := start.Add(time.Duration(ds.Days) * 24 * time.Hour)
	rng := rand.New(rand.NewPCG(uint64(ds.Stations), uint64(ds.Days)))

	w := bufio.NewWriter(file)
	for ts := start; ts.Before(end); ts = ts.Add(ds.Every) {
		hour := ts.Hour()
		stamp := ts.Format(time.RFC3339)
		for station := range ds.Stations {
			size := 10 + station%30
			bikes := (size * ((hour + station) % 24)) / 24
			bikes = min(size, max(0, bikes+rng.IntN(3)-1))
			if _, err := fmt.Fprintf(w, "%d %d %d %s\n", station, bikes, size-bikes, stamp); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

// runBenchmarkSuite runs both no-store and store benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, dataset, dbPath, command, description, extraArgs string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", description, dataset)

	// Helper to run a benchmark phase
	runPhase := func(storeArgs []string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, command, extraArgs, storeArgs, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avg := sum / float64(len(times))
			avgTime = fmt.Sprintf("%.3fs", avg)
		}
		return cold, avgTime
	}

	// Phase 1: No-store runs
	_, noStoreAvg := runPhase([]string{"--store-backend", "none"}, config.NoStoreRuns, "No-store")

	// Phase 2: SQLite store runs
	coldTime, warmAvg := runPhase([]string{"--store-backend", "sqlite", "--store-db-connect", dbPath}, config.StoreRuns, "Store")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-store average: %s, Cold time: %s, Warm average: %s\n", noStoreAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:     dataset,
		Command:     command,
		NoStoreTime: noStoreAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a bikebin command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, command, extraArgs string, storeArgs []string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{command, "--workers", fmt.Sprint(config.Workers), "--log-level", "warn"}
	args = append(args, storeArgs...)
	if extraArgs != "" {
		args = append(args, parseArgs(extraArgs)...)
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("bikebin", args...)
		cmd.Dir = config.WorkDir

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output, command) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

func parseArgs(argsStr string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false

	for _, r := range argsStr {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ' ':
			if !inQuotes && current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			} else if inQuotes {
				current.WriteRune(r)
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte, command string) bool {
	outputStr := string(output)

	var completionPhrase string
	if command == "evaluate" {
		completionPhrase = "Evaluated"
	} else {
		completionPhrase = "Aggregation completed in"
	}

	return strings.Contains(outputStr, completionPhrase) &&
		strings.Contains(outputStr, "with") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/bikebin_benchmark_%s.csv", timestamp)

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

	if err := writer.Write([]string{"dataset", "cmd", "no_store_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Command, result.NoStoreTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "aggregate", "Aggregation:")
	printCommandSummary(results, "evaluate", "Evaluation:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-8s: No-store: %s, Cold: %s, Warm: %s\n", result.Dataset, result.NoStoreTime, result.ColdTime, result.WarmTime)
		}
	}
}
