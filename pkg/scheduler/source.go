package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/kotrzina/skolmaten/pkg/config"
	"github.com/kotrzina/skolmaten/pkg/menu"
	"github.com/kotrzina/skolmaten/pkg/sensor"
	"github.com/kotrzina/skolmaten/pkg/store"
	"github.com/sirupsen/logrus"
)

const (
	resultOk      = "ok"
	resultEmpty   = "empty"
	resultError   = "error"
	resultSkipped = "skipped"
)

// updateSource runs fetch, assemble and publish for one source.
// The fetch is not interrupted by shutdown, ctx only cancels waiting in between.
func (s *Scheduler) updateSource(ctx context.Context, cycleLog *logrus.Entry, source config.Source) {
	log := cycleLog.WithFields(logrus.Fields{
		"source": source.Name,
		"slug":   source.Slug,
	})

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Unexpected failure while updating: %v", r)
			s.monitor.FetchTotal.WithLabelValues(source.Slug, resultError).Inc()
		}
	}()

	if source.Slug == "" {
		log.Error("School has no slug configured, skipping")
		s.monitor.FetchTotal.WithLabelValues(source.Name, resultSkipped).Inc()
		return
	}

	workCtx := context.WithoutCancel(ctx)
	now := s.now()

	var payload sensor.Payload
	result, err := s.fetcher.Fetch(workCtx, source.Slug, s.nextWeek)
	switch {
	case err != nil:
		log.Errorf("Could not fetch menu: %v", err)
		s.monitor.FetchTotal.WithLabelValues(source.Slug, resultError).Inc()
		payload = sensor.Failure(source, err, now)
	case len(result.Entries) == 0:
		log.Warn("No menu data found")
		s.monitor.FetchTotal.WithLabelValues(source.Slug, resultEmpty).Inc()
		s.monitor.MenuDays.WithLabelValues(source.Slug).Set(0)
		payload = sensor.NoData(source, result.NextWeek, now)
	default:
		assembly := menu.Assemble(result.Entries, now)
		s.monitor.FetchTotal.WithLabelValues(source.Slug, resultOk).Inc()
		s.monitor.MenuDays.WithLabelValues(source.Slug).Set(float64(len(result.Entries)))
		courses := 0
		if assembly.Today != nil {
			courses = len(assembly.Today.Courses)
		}
		s.monitor.TodayCourses.WithLabelValues(source.Slug).Set(float64(courses))
		log.Infof("Fetched %d days of menu, today: %s", len(result.Entries), assembly.State)
		payload = sensor.Menu(source, assembly, result.NextWeek, now)
	}

	published := s.publish(workCtx, log, source, payload)
	if !published && !payload.Degraded {
		// the menu was rejected, try to at least mark the sensor as failed
		payload = sensor.Failure(source, errors.New("could not publish menu"), now)
		published = s.publish(workCtx, log, source, payload)
	}

	if published && !payload.Degraded {
		s.monitor.LastUpdate.WithLabelValues(source.Slug).Set(float64(now.Unix()))
	}

	s.saveSnapshot(log, store.Snapshot{
		Slug:       source.Slug,
		Name:       source.Name,
		EntityID:   payload.EntityID,
		State:      payload.State,
		Attributes: payload.Attributes,
		Degraded:   payload.Degraded,
		Published:  published,
		UpdatedAt:  now,
	})
}

func (s *Scheduler) publish(ctx context.Context, log *logrus.Entry, source config.Source, payload sensor.Payload) bool {
	log = log.WithField("entity_id", payload.EntityID)

	if err := s.publisher.SetState(ctx, payload.EntityID, payload.State, payload.Attributes); err != nil {
		log.Errorf("Could not publish sensor: %v", err)
		s.monitor.PublishTotal.WithLabelValues(source.Slug, resultError).Inc()
		return false
	}

	log.Infof("Published sensor state: %s", payload.State)
	s.monitor.PublishTotal.WithLabelValues(source.Slug, resultOk).Inc()
	return true
}

// saveSnapshot keeps the payload for the status api, failures are only logged
func (s *Scheduler) saveSnapshot(log *logrus.Entry, snapshot store.Snapshot) {
	if err := s.store.SetSnapshot(snapshot); err != nil {
		log.Warnf("Could not store snapshot: %v", err)
	}

	event := fmt.Sprintf("%s %s: %s", snapshot.UpdatedAt.Format("2006-01-02 15:04:05"), snapshot.EntityID, snapshot.State)
	if !snapshot.Published {
		event += " (not published)"
	}
	if err := s.store.AddEvent(event); err != nil {
		log.Warnf("Could not store event: %v", err)
	}
}
