package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexanderramin/timekeep/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentAccess_ActiveSessionUniquePerUser races many inserts for the
// same user through separate pooled connections. The UNIQUE user_id column
// must let exactly one through.
func TestConcurrentAccess_ActiveSessionUniquePerUser(t *testing.T) {
	database := testutil.NewFileTestDB(t)
	ctx := context.Background()
	repo := NewSQLiteActiveSessionRepo(database)

	const attempts = 12
	var wg sync.WaitGroup
	var created atomic.Int32
	start := time.Now().UTC()

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := testutil.NewTestSession("alice", fmt.Sprintf("T%d", i), start)
			if err := repo.Create(ctx, s); err == nil {
				created.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// TestConcurrentAccess_StreamDuringWrite verifies that range reads stay
// consistent while logs are appended.
func TestConcurrentAccess_StreamDuringWrite(t *testing.T) {
	database := testutil.NewFileTestDB(t)
	ctx := context.Background()
	repo := NewSQLiteTimeLogRepo(database)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			l := testutil.NewTestTimeLog(fmt.Sprintf("user-%d", i%3), "T1", 60)
			if err := repo.Create(ctx, l); err != nil {
				t.Errorf("writer: create log %d: %v", i, err)
				return
			}
		}
	}()

	for r := 0; r < 5; r++ {
		wg.Add(1)
		go func(reader int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				logs, err := repo.List(ctx, TimeLogFilter{TaskID: "T1"})
				if err != nil {
					t.Errorf("reader %d: list: %v", reader, err)
					return
				}
				for _, l := range logs {
					if l.ID == "" || l.DurationSeconds != 60 {
						t.Errorf("reader %d: got torn log %+v", reader, l)
					}
				}
			}
		}(r)
	}

	wg.Wait()

	logs, err := repo.List(ctx, TimeLogFilter{})
	require.NoError(t, err)
	assert.Len(t, logs, 20)
}
