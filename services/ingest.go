package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gr-rentals/models"
	"gr-rentals/storage"
	"gr-rentals/utils"
)

// FeedSource yields the entries of one feed download.
type FeedSource interface {
	Fetch(ctx context.Context) ([]models.FeedEntry, error)
}

// Ingestor normalizes entries from the feed or a CSV file and upserts them
// one at a time, in source order.
type Ingestor struct {
	source FeedSource
	store  storage.ListingWriter
	logger *utils.Logger
	now    func() time.Time
}

func NewIngestor(source FeedSource, store storage.ListingWriter, logger *utils.Logger) *Ingestor {
	return &Ingestor{source: source, store: store, logger: logger, now: time.Now}
}

// IngestFeed fetches the feed and upserts every usable entry. Entries with
// neither a title nor a link are skipped with a warning. A fetch, parse or
// storage error ends the run; rows already written stay written.
func (in *Ingestor) IngestFeed(ctx context.Context) (*models.RunReport, error) {
	report := in.newReport(models.SourceCraigslist)
	log := in.logger.With("run", report.RunID)

	if in.source == nil {
		return report, fmt.Errorf("%w: no feed source configured", utils.ErrConfig)
	}

	entries, err := in.source.Fetch(ctx)
	if err != nil {
		log.Error("[ingest] Feed fetch failed: %v", err)
		return report, err
	}

	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if strings.TrimSpace(e.Title) == "" && strings.TrimSpace(e.Link) == "" {
			log.Warn("[ingest] Entry %d has no title or link, skipping", i+1)
			report.Skipped++
			continue
		}

		l := NormalizeFeedEntry(e, in.now())
		if err := in.store.Upsert(ctx, l); err != nil {
			log.Error("[ingest] Upsert failed after %d rows: %v", report.Processed, err)
			return report, err
		}
		report.Processed++
	}

	report.FinishedAt = in.now().UTC()
	log.Info("[ingest] Feed run complete: %d upserted, %d skipped", report.Processed, report.Skipped)
	return report, nil
}

// IngestCSV upserts every row of a manual-import file. Rows without a url
// are skipped, since every one of them would share the same identifier.
func (in *Ingestor) IngestCSV(ctx context.Context, path string) (*models.RunReport, error) {
	report := in.newReport(models.SourceManual)
	log := in.logger.With("run", report.RunID)
	log.Info("[ingest] Importing %s", path)

	err := storage.EachCSVRow(path, func(line int, row map[string]string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.TrimSpace(row["url"]) == "" {
			log.Warn("[ingest] Line %d has no url, skipping", line)
			report.Skipped++
			return nil
		}

		l, bad := NormalizeCSVRow(row, in.now())
		if len(bad) > 0 {
			log.Warn("[ingest] Line %d: unparseable %s stored as NULL", line, strings.Join(bad, ", "))
		}
		if err := in.store.Upsert(ctx, l); err != nil {
			return err
		}
		report.Processed++
		return nil
	})
	if err != nil {
		log.Error("[ingest] Import stopped after %d rows: %v", report.Processed, err)
		return report, err
	}

	report.FinishedAt = in.now().UTC()
	log.Info("[ingest] Import complete: %d upserted, %d skipped", report.Processed, report.Skipped)
	return report, nil
}

func (in *Ingestor) newReport(source string) *models.RunReport {
	return &models.RunReport{
		RunID:     uuid.NewString(),
		Source:    source,
		StartedAt: in.now().UTC(),
	}
}
