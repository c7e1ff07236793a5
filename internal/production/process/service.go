package process

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/texfab-erp/texfab-erp/internal/shared"
	"github.com/texfab-erp/texfab-erp/internal/workflow"
)

// statusMachine is the shared record lifecycle for every process type.
var statusMachine = workflow.New(map[Status][]Status{
	StatusPending:    {StatusInProgress},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  nil,
})

// AuditPort records process events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service runs process records for any defined process type. One Service
// instance serves all types; the definition is resolved per call.
type Service struct {
	repo     Repository
	cache    CachePort
	audit    AuditPort
	cacheTTL time.Duration
	logger   *slog.Logger
	flight   singleflight.Group
}

// NewService constructs the Service.
func NewService(repo Repository, cache CachePort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, audit: audit, cacheTTL: 5 * time.Minute, logger: logger}
}

// Create opens a pending record for the given process type.
func (s *Service) Create(ctx context.Context, companyID int64, processCode string, req CreateRecordRequest, createdBy int64) (*Record, error) {
	def, err := Lookup(processCode)
	if err != nil {
		return nil, err
	}
	if err := validateParams(def, req.Params); err != nil {
		return nil, err
	}

	record := Record{
		CompanyID:         companyID,
		ProductionOrderID: req.ProductionOrderID,
		ProcessCode:       def.Code,
		Status:            StatusPending,
		Params:            req.Params,
		Notes:             req.Notes,
		CreatedBy:         createdBy,
	}
	id, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("create %s record: %w", def.Code, err)
	}
	record.ID = id
	s.invalidate(ctx, companyID, def.Code)
	s.recordAudit(ctx, companyID, createdBy, def.Code+".created", id, nil)
	return &record, nil
}

// Start moves the record to in_progress, merging any late parameters.
func (s *Service) Start(ctx context.Context, companyID int64, processCode string, id int64, req StartRequest, actorID int64) (*Record, error) {
	record, def, err := s.load(ctx, companyID, processCode, id)
	if err != nil {
		return nil, err
	}
	if err := statusMachine.Check(record.Status, StatusInProgress); err != nil {
		return nil, err
	}
	if err := validateParams(def, req.Params); err != nil {
		return nil, err
	}

	now := time.Now()
	record.Status = StatusInProgress
	record.StartedAt = &now
	if req.OperatorID != nil {
		record.OperatorID = req.OperatorID
	}
	if len(req.Params) > 0 {
		if record.Params == nil {
			record.Params = map[string]any{}
		}
		for k, v := range req.Params {
			record.Params[k] = v
		}
	}

	if err := s.repo.Update(ctx, *record); err != nil {
		return nil, fmt.Errorf("start %s record: %w", def.Code, err)
	}
	s.invalidate(ctx, companyID, def.Code)
	s.recordAudit(ctx, companyID, actorID, def.Code+".started", id, nil)
	return record, nil
}

// Complete moves the record to completed with output figures.
func (s *Service) Complete(ctx context.Context, companyID int64, processCode string, id int64, req CompleteRequest, actorID int64) (*Record, error) {
	record, def, err := s.load(ctx, companyID, processCode, id)
	if err != nil {
		return nil, err
	}
	if err := statusMachine.Check(record.Status, StatusCompleted); err != nil {
		return nil, err
	}

	now := time.Now()
	record.Status = StatusCompleted
	record.CompletedAt = &now
	record.OutputQty = req.OutputQty
	record.WastageQty = req.WastageQty
	if len(req.CostBreakdown) > 0 {
		record.CostBreakdown = req.CostBreakdown
		total := 0.0
		for _, v := range req.CostBreakdown {
			total += v
		}
		record.TotalCost = &total
	}
	if req.Notes != nil {
		record.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, *record); err != nil {
		return nil, fmt.Errorf("complete %s record: %w", def.Code, err)
	}
	s.invalidate(ctx, companyID, def.Code)
	s.recordAudit(ctx, companyID, actorID, def.Code+".completed", id, map[string]any{
		"output_qty": req.OutputQty, "wastage_qty": req.WastageQty, "total_cost": record.TotalCost,
	})
	return record, nil
}

// AddQualityCheck records an inspection verdict on a completed record.
func (s *Service) AddQualityCheck(ctx context.Context, companyID int64, processCode string, id int64, req QualityCheckRequest, checkedBy int64) (*QualityCheck, error) {
	record, def, err := s.load(ctx, companyID, processCode, id)
	if err != nil {
		return nil, err
	}
	if record.Status != StatusCompleted {
		return nil, ErrNotCompleted
	}

	check := QualityCheck{
		RecordID:  record.ID,
		Result:    req.Result,
		Score:     req.Score,
		Remarks:   req.Remarks,
		CheckedBy: checkedBy,
		CheckedAt: time.Now(),
	}
	checkID, err := s.repo.AddQualityCheck(ctx, check)
	if err != nil {
		return nil, fmt.Errorf("add quality check: %w", err)
	}
	check.ID = checkID
	s.invalidate(ctx, companyID, def.Code)
	s.recordAudit(ctx, companyID, checkedBy, def.Code+".quality_checked", id, map[string]any{"result": string(req.Result)})
	return &check, nil
}

// ReportIssue attaches a problem report to a record in any state.
func (s *Service) ReportIssue(ctx context.Context, companyID int64, processCode string, id int64, req IssueRequest, reportedBy int64) (*Issue, error) {
	record, def, err := s.load(ctx, companyID, processCode, id)
	if err != nil {
		return nil, err
	}

	issue := Issue{
		RecordID:    record.ID,
		Severity:    req.Severity,
		Description: req.Description,
		ReportedBy:  reportedBy,
		ReportedAt:  time.Now(),
	}
	issueID, err := s.repo.AddIssue(ctx, issue)
	if err != nil {
		return nil, fmt.Errorf("report issue: %w", err)
	}
	issue.ID = issueID
	s.invalidate(ctx, companyID, def.Code)
	s.recordAudit(ctx, companyID, reportedBy, def.Code+".issue_reported", id, map[string]any{"severity": string(req.Severity)})
	return &issue, nil
}

// ResolveIssue marks an open issue resolved.
func (s *Service) ResolveIssue(ctx context.Context, companyID int64, processCode string, recordID, issueID, actorID int64) error {
	_, def, err := s.load(ctx, companyID, processCode, recordID)
	if err != nil {
		return err
	}
	if err := s.repo.ResolveIssue(ctx, companyID, recordID, issueID, time.Now()); err != nil {
		return err
	}
	s.invalidate(ctx, companyID, def.Code)
	s.recordAudit(ctx, companyID, actorID, def.Code+".issue_resolved", recordID, map[string]any{"issue_id": issueID})
	return nil
}

// Get fetches one record with checks and issues.
func (s *Service) Get(ctx context.Context, companyID int64, processCode string, id int64) (*Record, error) {
	record, _, err := s.load(ctx, companyID, processCode, id)
	return record, err
}

// List pages records of one process type.
func (s *Service) List(ctx context.Context, req ListRecordsRequest) ([]Record, int, error) {
	if _, err := Lookup(req.ProcessCode); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, req)
}

// GetAnalytics returns the cached analytics snapshot, recomputing on a miss.
// Every write path invalidates the key, so a stale snapshot lives at most one
// cache TTL after an external data fix.
func (s *Service) GetAnalytics(ctx context.Context, companyID int64, processCode string) (Analytics, error) {
	def, err := Lookup(processCode)
	if err != nil {
		return Analytics{}, err
	}

	key := analyticsKey(companyID, def.Code)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("analytics cache read failed", "key", key, "error", err)
		} else if ok {
			if a, err := decodeAnalytics(cached); err == nil {
				return a, nil
			}
		}
	}

	// Collapse concurrent misses into one recompute per key.
	v, err, _ := s.flight.Do(key, func() (any, error) {
		a, err := s.repo.Aggregate(ctx, companyID, def.Code)
		if err != nil {
			return nil, fmt.Errorf("aggregate %s analytics: %w", def.Code, err)
		}
		if s.cache != nil {
			if encoded, err := encodeAnalytics(a); err == nil {
				if err := s.cache.Set(ctx, key, encoded, s.cacheTTL); err != nil {
					s.logger.Warn("analytics cache write failed", "key", key, "error", err)
				}
			}
		}
		return a, nil
	})
	if err != nil {
		return Analytics{}, err
	}
	return v.(Analytics), nil
}

func (s *Service) load(ctx context.Context, companyID int64, processCode string, id int64) (*Record, Definition, error) {
	def, err := Lookup(processCode)
	if err != nil {
		return nil, Definition{}, err
	}
	record, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, Definition{}, err
	}
	if record.ProcessCode != def.Code {
		return nil, Definition{}, ErrNotFound
	}
	return record, def, nil
}

func (s *Service) invalidate(ctx context.Context, companyID int64, processCode string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, analyticsKey(companyID, processCode)); err != nil {
		s.logger.Warn("analytics cache invalidation failed", "process", processCode, "error", err)
	}
}

func (s *Service) recordAudit(ctx context.Context, companyID, actorID int64, action string, recordID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		CompanyID: companyID,
		ActorID:   actorID,
		Action:    action,
		Entity:    "process_record",
		EntityID:  strconv.FormatInt(recordID, 10),
		Meta:      meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}

func validateParams(def Definition, params map[string]any) error {
	for k := range params {
		known := false
		for _, allowed := range def.ParamKeys {
			if k == allowed {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: %q for %s", ErrUnknownParam, k, def.Code)
		}
	}
	return nil
}
