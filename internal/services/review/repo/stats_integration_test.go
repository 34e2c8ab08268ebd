//go:build integration_ch
// +build integration_ch

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"contractlens/internal/platform/store"
	"contractlens/internal/services/review/domain"

	"github.com/google/uuid"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startClickhouse(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "clickhouse/clickhouse-server:24.8-alpine",
			ExposedPorts: []string{"9000/tcp", "8123/tcp"},
			Env: map[string]string{
				"CLICKHOUSE_USER":     "review",
				"CLICKHOUSE_PASSWORD": "review",
				"CLICKHOUSE_DB":       "default",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("9000/tcp"),
				wait.ForHTTP("/ping").WithPort("8123/tcp"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start clickhouse: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := c.MappedPort(ctx, "9000/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("clickhouse://review:review@%s:%s/default", host, port.Port())
}

func TestStats_Integration_RecordAndAggregate(t *testing.T) {
	dsn := startClickhouse(t)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st, err := store.Open(ctx, store.Config{AppName: "review-test", CH: store.CHConfig{Enabled: true, URL: dsn}})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	c := NewCH(st.CH)
	if err := c.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	started := time.Now().UTC().Add(-time.Minute)
	record := func(gen string, violations, failed int) {
		t.Helper()
		run := domain.RunSummary{
			RunID:        uuid.NewString(),
			Status:       domain.RunDone,
			GenerationID: gen,
			Mode:         "numbered",
			Source:       "inline",
			Units:        4,
			StartedAt:    started,
		}
		run.TotalUnits, run.ViolationCount, run.FailedUnits = 4, violations, failed
		if err := c.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}
	record("store_openai_m_20250101_000000", 1, 0)
	record("store_openai_m_20250101_000000", 2, 1)
	record("store_ollama_m_20250202_000000", 0, 0)

	got, err := c.ByGeneration(ctx, 10)
	if err != nil {
		t.Fatalf("ByGeneration: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("generations = %+v", got)
	}
	busiest := got[0]
	if busiest.GenerationID != "store_openai_m_20250101_000000" || busiest.Runs != 2 {
		t.Fatalf("busiest = %+v", busiest)
	}
	if busiest.Units != 8 || busiest.ViolationCount != 3 || busiest.FailedUnits != 1 {
		t.Fatalf("sums = %+v", busiest)
	}
}
