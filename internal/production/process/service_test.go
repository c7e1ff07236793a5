package process

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/texfab-erp/texfab-erp/internal/workflow"
)

type memoryProcessRepo struct {
	nextID     int64
	records    map[int64]*Record
	aggregates int
}

func newMemoryProcessRepo() *memoryProcessRepo {
	return &memoryProcessRepo{nextID: 1, records: map[int64]*Record{}}
}

func (m *memoryProcessRepo) Get(_ context.Context, companyID, id int64) (*Record, error) {
	rec, ok := m.records[id]
	if !ok || rec.CompanyID != companyID {
		return nil, ErrNotFound
	}
	out := *rec
	out.QualityChecks = append([]QualityCheck(nil), rec.QualityChecks...)
	out.Issues = append([]Issue(nil), rec.Issues...)
	return &out, nil
}

func (m *memoryProcessRepo) List(_ context.Context, req ListRecordsRequest) ([]Record, int, error) {
	var out []Record
	for _, rec := range m.records {
		if rec.CompanyID == req.CompanyID && rec.ProcessCode == req.ProcessCode {
			out = append(out, *rec)
		}
	}
	return out, len(out), nil
}

func (m *memoryProcessRepo) Create(_ context.Context, record Record) (int64, error) {
	record.ID = m.nextID
	m.nextID++
	m.records[record.ID] = &record
	return record.ID, nil
}

func (m *memoryProcessRepo) Update(_ context.Context, record Record) error {
	existing, ok := m.records[record.ID]
	if !ok || existing.CompanyID != record.CompanyID {
		return ErrNotFound
	}
	record.QualityChecks = existing.QualityChecks
	record.Issues = existing.Issues
	m.records[record.ID] = &record
	return nil
}

func (m *memoryProcessRepo) AddQualityCheck(_ context.Context, check QualityCheck) (int64, error) {
	rec := m.records[check.RecordID]
	check.ID = m.nextID
	m.nextID++
	rec.QualityChecks = append(rec.QualityChecks, check)
	return check.ID, nil
}

func (m *memoryProcessRepo) AddIssue(_ context.Context, issue Issue) (int64, error) {
	rec := m.records[issue.RecordID]
	issue.ID = m.nextID
	m.nextID++
	rec.Issues = append(rec.Issues, issue)
	return issue.ID, nil
}

func (m *memoryProcessRepo) ResolveIssue(_ context.Context, companyID, recordID, issueID int64, at time.Time) error {
	rec, ok := m.records[recordID]
	if !ok || rec.CompanyID != companyID {
		return ErrNotFound
	}
	for i := range rec.Issues {
		if rec.Issues[i].ID == issueID && rec.Issues[i].ResolvedAt == nil {
			rec.Issues[i].ResolvedAt = &at
			return nil
		}
	}
	return ErrNotFound
}

func (m *memoryProcessRepo) Aggregate(_ context.Context, companyID int64, processCode string) (Analytics, error) {
	m.aggregates++
	a := Analytics{ProcessCode: processCode}
	var checks, passes, measured int
	var efficiency float64
	for _, rec := range m.records {
		if rec.CompanyID != companyID || rec.ProcessCode != processCode {
			continue
		}
		a.TotalRecords++
		switch rec.Status {
		case StatusPending:
			a.Pending++
		case StatusInProgress:
			a.InProgress++
		case StatusCompleted:
			a.Completed++
		}
		if rec.OutputQty != nil {
			gross := *rec.OutputQty
			if rec.WastageQty != nil {
				gross += *rec.WastageQty
			}
			if gross > 0 {
				efficiency += *rec.OutputQty / gross
				measured++
			}
		}
		if rec.TotalCost != nil {
			a.TotalCost += *rec.TotalCost
		}
		for _, qc := range rec.QualityChecks {
			checks++
			if qc.Result == ResultPass {
				passes++
			}
		}
		for _, is := range rec.Issues {
			if is.ResolvedAt == nil {
				a.OpenIssues++
			}
		}
	}
	if checks > 0 {
		a.PassRate = float64(passes) / float64(checks)
	}
	if measured > 0 {
		a.AvgEfficiency = efficiency / float64(measured)
	}
	return a, nil
}

type memoryCache struct {
	entries map[string]string
}

func newMemoryCache() *memoryCache { return &memoryCache{entries: map[string]string{}} }

func (m *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.entries[key] = value
	return nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryProcessRepo, *memoryCache) {
	t.Helper()
	repo := newMemoryProcessRepo()
	cache := newMemoryCache()
	return NewService(repo, cache, nil, nil), repo, cache
}

func createDyeing(t *testing.T, svc *Service) *Record {
	t.Helper()
	rec, err := svc.Create(context.Background(), 1, "dyeing", CreateRecordRequest{
		ProductionOrderID: 5,
		Params:            map[string]any{"recipe_no": "R-104", "shade": "navy"},
	}, 10)
	require.NoError(t, err)
	return rec
}

func TestUnknownProcessRejected(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), 1, "embroidery", CreateRecordRequest{ProductionOrderID: 5}, 10)
	require.ErrorIs(t, err, ErrUnknownProcess)
}

func TestParamsValidatedAgainstDefinition(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), 1, "dyeing", CreateRecordRequest{
		ProductionOrderID: 5,
		Params:            map[string]any{"screen_count": 4},
	}, 10)
	require.ErrorIs(t, err, ErrUnknownParam)
}

func TestLifecycleSharedAcrossProcessTypes(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, code := range []string{"dyeing", "printing", "finishing", "cutting_packing"} {
		rec, err := svc.Create(context.Background(), 1, code, CreateRecordRequest{ProductionOrderID: 5}, 10)
		require.NoError(t, err)
		require.Equal(t, StatusPending, rec.Status)

		rec, err = svc.Start(context.Background(), 1, code, rec.ID, StartRequest{}, 10)
		require.NoError(t, err)
		require.Equal(t, StatusInProgress, rec.Status)
		require.NotNil(t, rec.StartedAt)

		output := 950.0
		rec, err = svc.Complete(context.Background(), 1, code, rec.ID, CompleteRequest{OutputQty: &output}, 10)
		require.NoError(t, err)
		require.Equal(t, StatusCompleted, rec.Status)
		require.NotNil(t, rec.CompletedAt)
	}
}

func TestRecordNotVisibleUnderOtherProcessCode(t *testing.T) {
	svc, _, _ := newTestService(t)
	rec := createDyeing(t, svc)

	_, err := svc.Get(context.Background(), 1, "printing", rec.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteRequiresInProgress(t *testing.T) {
	svc, _, _ := newTestService(t)
	rec := createDyeing(t, svc)

	_, err := svc.Complete(context.Background(), 1, "dyeing", rec.ID, CompleteRequest{}, 10)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestQualityCheckOnlyOnCompletedRecord(t *testing.T) {
	svc, _, _ := newTestService(t)
	rec := createDyeing(t, svc)

	_, err := svc.AddQualityCheck(context.Background(), 1, "dyeing", rec.ID, QualityCheckRequest{Result: ResultPass}, 11)
	require.ErrorIs(t, err, ErrNotCompleted)

	_, err = svc.Start(context.Background(), 1, "dyeing", rec.ID, StartRequest{}, 10)
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), 1, "dyeing", rec.ID, CompleteRequest{}, 10)
	require.NoError(t, err)

	check, err := svc.AddQualityCheck(context.Background(), 1, "dyeing", rec.ID, QualityCheckRequest{Result: ResultPass}, 11)
	require.NoError(t, err)
	require.Equal(t, ResultPass, check.Result)
}

func TestIssueReportAndResolve(t *testing.T) {
	svc, _, _ := newTestService(t)
	rec := createDyeing(t, svc)

	issue, err := svc.ReportIssue(context.Background(), 1, "dyeing", rec.ID, IssueRequest{
		Severity: SeverityMajor, Description: "shade variation batch to batch",
	}, 11)
	require.NoError(t, err)

	a, err := svc.GetAnalytics(context.Background(), 1, "dyeing")
	require.NoError(t, err)
	require.Equal(t, 1, a.OpenIssues)

	require.NoError(t, svc.ResolveIssue(context.Background(), 1, "dyeing", rec.ID, issue.ID, 11))
	a, err = svc.GetAnalytics(context.Background(), 1, "dyeing")
	require.NoError(t, err)
	require.Zero(t, a.OpenIssues)
}

func TestCompleteSumsCostBreakdown(t *testing.T) {
	svc, _, _ := newTestService(t)
	rec := createDyeing(t, svc)

	_, err := svc.Start(context.Background(), 1, "dyeing", rec.ID, StartRequest{}, 10)
	require.NoError(t, err)

	output, wastage := 950.0, 50.0
	rec, err = svc.Complete(context.Background(), 1, "dyeing", rec.ID, CompleteRequest{
		OutputQty:  &output,
		WastageQty: &wastage,
		CostBreakdown: map[string]float64{
			"dyes": 4200, "labour": 1800, "power": 600,
		},
	}, 10)
	require.NoError(t, err)
	require.NotNil(t, rec.TotalCost)
	require.InDelta(t, 6600.0, *rec.TotalCost, 0.001)
	require.Equal(t, 4200.0, rec.CostBreakdown["dyes"])
}

func TestAnalyticsReportsEfficiencyAndCost(t *testing.T) {
	svc, _, _ := newTestService(t)
	rec := createDyeing(t, svc)

	_, err := svc.Start(context.Background(), 1, "dyeing", rec.ID, StartRequest{}, 10)
	require.NoError(t, err)
	output, wastage := 900.0, 100.0
	_, err = svc.Complete(context.Background(), 1, "dyeing", rec.ID, CompleteRequest{
		OutputQty:     &output,
		WastageQty:    &wastage,
		CostBreakdown: map[string]float64{"dyes": 5000},
	}, 10)
	require.NoError(t, err)

	a, err := svc.GetAnalytics(context.Background(), 1, "dyeing")
	require.NoError(t, err)
	require.InDelta(t, 0.9, a.AvgEfficiency, 0.001)
	require.InDelta(t, 5000.0, a.TotalCost, 0.001)
}

func TestAnalyticsCachedUntilWrite(t *testing.T) {
	svc, repo, _ := newTestService(t)
	createDyeing(t, svc)

	_, err := svc.GetAnalytics(context.Background(), 1, "dyeing")
	require.NoError(t, err)
	_, err = svc.GetAnalytics(context.Background(), 1, "dyeing")
	require.NoError(t, err)
	require.Equal(t, 1, repo.aggregates)

	// A write invalidates the snapshot.
	createDyeing(t, svc)
	a, err := svc.GetAnalytics(context.Background(), 1, "dyeing")
	require.NoError(t, err)
	require.Equal(t, 2, repo.aggregates)
	require.Equal(t, 2, a.TotalRecords)
}

type slowAggregateRepo struct {
	*memoryProcessRepo
	release chan struct{}
	calls   int32
}

func (r *slowAggregateRepo) Aggregate(ctx context.Context, companyID int64, processCode string) (Analytics, error) {
	atomic.AddInt32(&r.calls, 1)
	<-r.release
	return r.memoryProcessRepo.Aggregate(ctx, companyID, processCode)
}

func TestConcurrentAnalyticsMissesRecomputeOnce(t *testing.T) {
	repo := &slowAggregateRepo{
		memoryProcessRepo: newMemoryProcessRepo(),
		release:           make(chan struct{}),
	}
	svc := NewService(repo, nil, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetAnalytics(context.Background(), 1, "dyeing")
			require.NoError(t, err)
		}()
	}

	// Let every caller pile up behind the in-flight recompute.
	time.Sleep(100 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&repo.calls))
}
