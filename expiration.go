/*
Copyright 2025 Plaza Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package plaza

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/plazahq/plaza/config"
	"github.com/plazahq/plaza/internal/notification"
	"github.com/plazahq/plaza/model"
)

// SweepStats summarizes what one expiration sweep did.
type SweepStats struct {
	Scanned      int
	ExpiringSoon int
	Expired      int
	Deleted      int
}

// Sweep walks every published listing whose expiration falls inside the
// warning window and applies the lifecycle transitions: ACTIVE listings
// within the warning window become EXPIRING_SOON, anything past its
// expiration becomes EXPIRED, and listings expired longer than the grace
// period become DELETED and have their content purged. Each transition is a
// compare-and-swap, so concurrent sweeps never double-fire an event.
func (l *Plaza) Sweep(ctx context.Context, now time.Time) (SweepStats, error) {
	ctx, span := tracer.Start(ctx, "Sweeping listing expirations")
	defer span.End()

	cnf, err := config.Fetch()
	if err != nil {
		return SweepStats{}, err
	}

	stats := SweepStats{}
	cutoff := now.AddDate(0, 0, cnf.Lifecycle.ExpiringSoonDays)
	batchSize := cnf.Lifecycle.SweepBatchSize

	// keyset cursor: the sweep's own transitions shrink the candidate set,
	// so offset paging would skip rows that shifted into visited pages
	var cursorExpiration time.Time
	var cursorID string
	for {
		listings, err := l.datasource.GetSweepCandidates(ctx, cutoff, batchSize, cursorExpiration, cursorID)
		if err != nil {
			return stats, logAndRecordError(span, "sweep fetch error", err)
		}
		if len(listings) == 0 {
			break
		}

		for _, listing := range listings {
			stats.Scanned++
			l.sweepListing(ctx, listing, now, cnf, &stats)
		}

		if len(listings) < batchSize {
			break
		}
		last := listings[len(listings)-1]
		cursorExpiration = *last.ExpirationDate
		cursorID = last.ListingID
	}

	logrus.Infof("sweep complete: scanned=%d expiring_soon=%d expired=%d deleted=%d",
		stats.Scanned, stats.ExpiringSoon, stats.Expired, stats.Deleted)
	return stats, nil
}

func (l *Plaza) sweepListing(ctx context.Context, listing *model.Listing, now time.Time, cnf *config.Configuration, stats *SweepStats) {
	days := listing.DaysRemaining(now)

	switch listing.Status {
	case model.StatusActive:
		if days <= 0 {
			l.transitionExpired(ctx, listing, model.StatusActive, stats)
			return
		}
		if days <= cnf.Lifecycle.ExpiringSoonDays {
			moved, err := l.datasource.UpdateListingStatus(ctx, listing.ListingID, model.StatusActive, model.StatusExpiringSoon)
			if err != nil {
				logrus.Errorf("sweep: expiring soon transition failed for %s: %v", listing.ListingID, err)
				return
			}
			if moved {
				stats.ExpiringSoon++
				listing.Status = model.StatusExpiringSoon
				l.notifyLifecycleEvent(listing)
			}
		}
	case model.StatusExpiringSoon:
		if days <= 0 {
			l.transitionExpired(ctx, listing, model.StatusExpiringSoon, stats)
		}
	case model.StatusExpired:
		if listing.ExpirationDate == nil {
			return
		}
		purgeAt := listing.ExpirationDate.AddDate(0, 0, cnf.Lifecycle.PurgeGraceDays)
		if now.Before(purgeAt) {
			return
		}
		moved, err := l.datasource.UpdateListingStatus(ctx, listing.ListingID, model.StatusExpired, model.StatusDeleted)
		if err != nil {
			logrus.Errorf("sweep: delete transition failed for %s: %v", listing.ListingID, err)
			return
		}
		if moved {
			if err := l.datasource.PurgeListingContent(ctx, listing.ListingID); err != nil {
				logrus.Errorf("sweep: purge failed for %s: %v", listing.ListingID, err)
			}
			stats.Deleted++
			listing.Status = model.StatusDeleted
			l.notifyLifecycleEvent(listing)
		}
	}
}

func (l *Plaza) transitionExpired(ctx context.Context, listing *model.Listing, fromStatus string, stats *SweepStats) {
	moved, err := l.datasource.UpdateListingStatus(ctx, listing.ListingID, fromStatus, model.StatusExpired)
	if err != nil {
		logrus.Errorf("sweep: expired transition failed for %s: %v", listing.ListingID, err)
		return
	}
	if moved {
		stats.Expired++
		listing.Status = model.StatusExpired
		l.notifyLifecycleEvent(listing)
	}
}

func (l *Plaza) notifyLifecycleEvent(listing *model.Listing) {
	go func() {
		err := SendWebhook(NewWebhook{
			Event:   getEventFromStatus(listing.Status),
			Payload: listing,
		})
		if err != nil {
			notification.NotifyError(err)
		}
	}()
}

// Sweeper runs the expiration sweep on a fixed interval.
type Sweeper struct {
	plaza    *Plaza
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewSweeper(plaza *Plaza, interval time.Duration) *Sweeper {
	return &Sweeper{
		plaza:    plaza,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		logrus.Infof("Expiration sweeper started with interval: %v", s.interval)

		s.runSweep()

		for {
			select {
			case <-ticker.C:
				s.runSweep()
			case <-s.stopCh:
				logrus.Info("Expiration sweeper stopping...")
				return
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	logrus.Info("Expiration sweeper stopped")
}

func (s *Sweeper) runSweep() {
	if _, err := s.plaza.Sweep(context.Background(), time.Now()); err != nil {
		logrus.Errorf("Sweeper: sweep failed: %v", err)
	}
}
