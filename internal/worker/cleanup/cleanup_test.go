package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/tastebuddiez/internal/metrics"
)

// mockSessionDeleter はExpiredSessionDeleterのモック実装。
type mockSessionDeleter struct {
	mu            sync.Mutex
	calls         int
	deleteExpired func(ctx context.Context) (int64, error)
}

func (m *mockSessionDeleter) DeleteExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.deleteExpired != nil {
		return m.deleteExpired(ctx)
	}
	return 0, nil
}

func (m *mockSessionDeleter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// recordingCollector は削除件数だけを記録するMetricsCollector。
type recordingCollector struct {
	metrics.NopCollector
	mu      sync.Mutex
	cleaned []int64
}

func (c *recordingCollector) RecordSessionsCleaned(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleaned = append(c.cleaned, n)
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestCleanupJob_Run_DeletesExpiredSessions(t *testing.T) {
	var buf bytes.Buffer
	deleter := &mockSessionDeleter{
		deleteExpired: func(ctx context.Context) (int64, error) { return 7, nil },
	}
	collector := &recordingCollector{}
	job := NewCleanupJob(deleter, collector, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if deleter.callCount() != 1 {
		t.Errorf("DeleteExpired calls = %d, want 1", deleter.callCount())
	}
	if len(collector.cleaned) != 1 || collector.cleaned[0] != 7 {
		t.Errorf("recorded = %v, want [7]", collector.cleaned)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("ログ出力のJSONパースに失敗: %v", err)
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
	if entry["deleted_count"] != float64(7) {
		t.Errorf("deleted_count = %v, want 7", entry["deleted_count"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("ログにduration_msフィールドが含まれていない")
	}
}

func TestCleanupJob_Run_NothingToDelete(t *testing.T) {
	var buf bytes.Buffer
	job := NewCleanupJob(&mockSessionDeleter{}, nil, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Errorf("削除対象がない場合もエラーにならないこと: %v", err)
	}
}

func TestCleanupJob_Run_ReturnsErrorOnFailure(t *testing.T) {
	var buf bytes.Buffer
	deleter := &mockSessionDeleter{
		deleteExpired: func(ctx context.Context) (int64, error) {
			return 0, errors.New("connection refused")
		},
	}
	collector := &recordingCollector{}
	job := NewCleanupJob(deleter, collector, newTestLogger(&buf))

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("エラーが返されること")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("元のエラーがラップされていること: %v", err)
	}
	if len(collector.cleaned) != 0 {
		t.Errorf("失敗時はメトリクスを記録しないこと: %v", collector.cleaned)
	}
	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Errorf("ERRORレベルのログが出力されること: %s", buf.String())
	}
}

func TestCleanupJob_Start_RunsImmediatelyAndOnTick(t *testing.T) {
	var buf bytes.Buffer
	deleter := &mockSessionDeleter{}
	job := NewCleanupJob(deleter, nil, newTestLogger(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for deleter.callCount() < 3 {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("DeleteExpired calls = %d, want >= 3", deleter.callCount())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ctxキャンセル後にStartが終了すること")
	}
}

func TestCleanupJob_Start_ContinuesAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	deleter := &mockSessionDeleter{
		deleteExpired: func(ctx context.Context) (int64, error) {
			return 0, errors.New("temporary failure")
		},
	}
	job := NewCleanupJob(deleter, nil, newTestLogger(&buf))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	job.Start(ctx, 10*time.Millisecond)

	if deleter.callCount() < 2 {
		t.Errorf("失敗しても次の周期で再実行されること: calls = %d", deleter.callCount())
	}
}
