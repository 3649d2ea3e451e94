package kv

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/kvds/cmd/util"
	"github.com/ValentinKolb/kvds/lib/common"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for kvds stores",
		Long:    "",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfBatchSize        = 10
	perfSkip             = make([]string, 0)

	log = common.CreateLogger("perf")
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. put,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the put-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "batch-size"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of entries per batch in the batch test"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfBatchSize = max(viper.GetInt("batch-size"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for kvds stores")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(storeConfig.String())
	fmt.Printf("Store: %s (%s)\n", localStore.Name(), localStore.Path())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	putResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("put") {
			return
		}

		// prepare keys
		getKey, iter := getKeys("put")

		// cleanup
		b.Cleanup(func() { deleteKeys("put", iter) })

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if _, err := localStore.Put([]byte(getKey(counter)), []byte("test")); err != nil {
					log.Error().Err(err).Msg("(put) - error putting key")
				}
				counter++
			}
		})
	})

	results["put"] = putResult
	printResult("put", putResult)

	putLargeValueResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("put-large") {
			return
		}

		// prepare large value
		largeValue := make([]byte, perfLargeValueSizeKB*1024)

		// prepare keys
		getKey, iter := getKeys("put-large")

		// cleanup
		b.Cleanup(func() { deleteKeys("put-large", iter) })

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if _, err := localStore.Put([]byte(getKey(counter)), largeValue); err != nil {
					log.Error().Err(err).Msg("(put-large) - error putting key")
				}
				counter++
			}
		})
	})

	results["put-large"] = putLargeValueResult
	printResult("put-large", putLargeValueResult)

	getResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("get") {
			return
		}

		// prepare keys
		getKey, iter := getKeys("get")
		fillKeys("get", iter)

		// cleanup
		b.Cleanup(func() { deleteKeys("get", iter) })

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if _, _, err := localStore.Get([]byte(getKey(counter))); err != nil {
					log.Error().Err(err).Msg("(get) - error getting key")
				}
				counter++
			}
		})
	})

	results["get"] = getResult
	printResult("get", getResult)

	deleteResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("delete") {
			return
		}

		// prepare keys
		getKey, iter := getKeys("delete")
		fillKeys("delete", iter)

		// cleanup
		b.Cleanup(func() { deleteKeys("delete", iter) })

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if err := localStore.Delete([]byte(getKey(counter))); err != nil {
					log.Error().Err(err).Msg("(delete) - error deleting key")
				}
				counter++
			}
		})
	})

	results["delete"] = deleteResult
	printResult("delete", deleteResult)

	batchResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("batch") {
			return
		}

		// prepare keys
		getKey, iter := getKeys("batch")

		// cleanup
		b.Cleanup(func() { deleteKeys("batch", iter) })

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				rows := make(map[string][]byte, perfBatchSize)
				for i := 0; i < perfBatchSize; i++ {
					rows[getKey(counter+i)] = []byte("test")
				}
				if err := localStore.UpdateBatch(rows); err != nil {
					log.Error().Err(err).Msg("(batch) - error writing batch")
				}
				counter += perfBatchSize
			}
		})
	})

	results["batch"] = batchResult
	printResult("batch", batchResult)

	keysResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("keys") {
			return
		}

		// prepare keys
		_, iter := getKeys("keys")
		fillKeys("keys", iter)

		// cleanup
		b.Cleanup(func() { deleteKeys("keys", iter) })

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				if _, err := localStore.Keys(); err != nil {
					log.Error().Err(err).Msg("(keys) - error enumerating keys")
				}
			}
		})
	})

	results["keys"] = keysResult
	printResult("keys", keysResult)

	mixedUsageResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("mixed") {
			return
		}

		// prepare keys
		getKey, iter := getKeys("mixed")
		fillKeys("mixed", iter)

		// cleanup
		b.Cleanup(func() { deleteKeys("mixed", iter) })

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				key := []byte(getKey(counter))
				var err error
				switch counter % 4 {
				case 0: // put
					_, err = localStore.Put(key, []byte("test"))
				case 1: // get
					_, _, err = localStore.Get(key)
				case 2: // delete
					err = localStore.Delete(key)
				case 3: // batch
					err = localStore.UpdateBatch(map[string][]byte{string(key): []byte("test")})
				}

				if err != nil {
					log.Error().Err(err).Int("op", counter%4).Msg("(mixed) - error performing operation")
				}
				counter++
			}
		})
	})

	results["mixed"] = mixedUsageResult
	printResult("mixed", mixedUsageResult)

	// Print the store metrics collected during the run
	fmt.Println()
	fmt.Println("Metrics:")
	metrics.WriteOnce(localStore.Metrics(), os.Stdout)

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// fillKeys writes all keys of a test concurrently with perfNumThreads workers
func fillKeys(test string, iter func(func(string))) {
	var g errgroup.Group
	g.SetLimit(perfNumThreads)

	iter(func(k string) {
		g.Go(func() error {
			_, err := localStore.Put([]byte(k), []byte("test"))
			return err
		})
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msgf("(%s) - error putting key", test)
	}
}

// deleteKeys removes all keys of a test
func deleteKeys(test string, iter func(func(string))) {
	iter(func(k string) {
		if err := localStore.Delete([]byte(k)); err != nil {
			log.Error().Err(err).Msgf("(%s) - error deleting key", test)
		}
	})
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Engine", "DBDir", "Name",
		"Threads", "LargeValueSizeKB", "Keys Count", "BatchSize",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			string(storeConfig.Engine),
			storeConfig.DBDir,
			localStore.Name(),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
			strconv.Itoa(perfBatchSize),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
