package testing

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/kvds/lib/db"
)

// RunEngineBenchmarks runs all benchmarks for an engine implementation
func RunEngineBenchmarks(b *testing.B, name string, factory EngineFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Put", func(b *testing.B) {
			benchmarkPut(b, open(b, factory))
		})

		b.Run("PutLargeValue", func(b *testing.B) {
			benchmarkPutLargeValue(b, open(b, factory))
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, open(b, factory))
		})

		b.Run("Batch", func(b *testing.B) {
			benchmarkBatch(b, open(b, factory))
		})

		b.Run("Cursor", func(b *testing.B) {
			benchmarkCursor(b, open(b, factory))
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkPut(b *testing.B, engine db.Engine) {
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := []byte(fmt.Sprintf("test-key-%d", counter))
			_ = engine.Put(key, key)
			counter++
		}
	})
}

func benchmarkPutLargeValue(b *testing.B, engine db.Engine) {
	value := make([]byte, 64*1024)
	for i := range value {
		value[i] = byte(i % 256)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = engine.Put([]byte(fmt.Sprintf("large-key-%d", i)), value)
	}
}

func benchmarkGet(b *testing.B, engine db.Engine) {
	const numKeys = 1000
	for i := 0; i < numKeys; i++ {
		key := []byte(fmt.Sprintf("test-key-%d", i))
		_ = engine.Put(key, key)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _ = engine.Get([]byte(fmt.Sprintf("test-key-%d", counter%numKeys)))
			counter++
		}
	})
}

// Benchmark for batches of 100 writes
func benchmarkBatch(b *testing.B, engine db.Engine) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		batch := engine.NewBatch()
		for j := 0; j < 100; j++ {
			key := []byte(fmt.Sprintf("batch-%d-key-%d", i, j))
			_ = batch.Put(key, key)
		}
		_ = batch.Commit()
		_ = batch.Close()
	}
}

// Benchmark for a full scan over 1000 keys
func benchmarkCursor(b *testing.B, engine db.Engine) {
	for i := 0; i < 1000; i++ {
		key := []byte(fmt.Sprintf("scan-key-%04d", i))
		_ = engine.Put(key, key)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cursor, err := engine.NewCursor()
		if err != nil {
			b.Fatal(err)
		}
		for cursor.Next() {
		}
		_ = cursor.Close()
	}
}
