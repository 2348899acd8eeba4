package services

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"dealdesk/internal/models"
	"dealdesk/internal/pdf"
	"dealdesk/internal/repositories"
)

type ReportService interface {
	Funnel(ctx context.Context) ([]models.FunnelRow, error)
	WinRate(ctx context.Context) (*models.WinRate, error)
	Forecast(ctx context.Context) ([]models.ForecastRow, error)
	ActivityCounts(ctx context.Context) ([]models.ActivityCount, error)
	// WritePipelinePDF renders all four reports into w.
	WritePipelinePDF(ctx context.Context, w io.Writer) error
}

type reportService struct {
	repo      repositories.ReportRepository
	pipelines repositories.PipelineRepository
	now       Clock
}

func NewReportService(repo repositories.ReportRepository, pipelines repositories.PipelineRepository, now Clock) ReportService {
	return &reportService{repo: repo, pipelines: pipelines, now: now}
}

func (s *reportService) Funnel(ctx context.Context) ([]models.FunnelRow, error) {
	return s.repo.Funnel(ctx)
}

func (s *reportService) WinRate(ctx context.Context) (*models.WinRate, error) {
	return s.repo.WinRate(ctx)
}

func (s *reportService) Forecast(ctx context.Context) ([]models.ForecastRow, error) {
	return s.repo.Forecast(ctx)
}

func (s *reportService) ActivityCounts(ctx context.Context) ([]models.ActivityCount, error) {
	return s.repo.ActivityCounts(ctx)
}

func (s *reportService) WritePipelinePDF(ctx context.Context, w io.Writer) error {
	report := pdf.PipelineReport{GeneratedAt: s.now()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		report.Funnel, err = s.repo.Funnel(gctx)
		return err
	})
	g.Go(func() error {
		wr, err := s.repo.WinRate(gctx)
		if err == nil {
			report.WinRate = *wr
		}
		return err
	})
	g.Go(func() (err error) {
		report.Forecast, err = s.repo.Forecast(gctx)
		return err
	})
	g.Go(func() (err error) {
		report.ActivityCounts, err = s.repo.ActivityCounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		report.StageNames, err = s.stageNames(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("collect report data: %w", err)
	}
	return pdf.WritePipelineReport(w, report)
}

func (s *reportService) stageNames(ctx context.Context) (map[string]string, error) {
	pipelines, err := s.pipelines.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string)
	for _, p := range pipelines {
		stages, err := s.pipelines.ListStages(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, st := range stages {
			names[st.ID] = p.Name + " / " + st.Name
		}
	}
	return names, nil
}
