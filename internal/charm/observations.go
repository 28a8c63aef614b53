// ABOUTME: Observation operations on Charm KV.
// ABOUTME: Append-only facts, client-side range filtering and alignment.
package charm

import (
	"fmt"
	"sort"
	"time"

	"github.com/harperreed/vitals/internal/models"
	"github.com/harperreed/vitals/internal/storage"
)

// RecordObservation appends a fact. recorded_at is assigned here; the
// caller's observed_at is stored as given.
func (c *Client) RecordObservation(o *models.Observation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.nextID(ObservationPrefix)
	if err != nil {
		return err
	}
	o.ID = id
	o.RecordedAt = time.Now().UTC()

	data, err := marshalJSON(o)
	if err != nil {
		return fmt.Errorf("marshal observation: %w", err)
	}
	return c.setLocked(recordKey(ObservationPrefix, id), data)
}

// QuerySeries returns the point series for a subject/metric pair, ascending
// by observed_at, bounds inclusive.
func (c *Client) QuerySeries(subjectID, metricID int64, rng storage.Range) ([]models.Point, error) {
	observations, err := c.seriesObservations(subjectID, rng, map[int64]bool{metricID: true})
	if err != nil {
		return nil, err
	}

	var points []models.Point
	for _, o := range observations {
		points = append(points, models.Point{Value: o.Value, ObservedAt: o.ObservedAt})
	}
	return points, nil
}

// QueryAligned pivots the dependency observations into one row per exact
// observed_at instant. Dependencies silent at an instant are simply absent
// from that row's Values.
func (c *Client) QueryAligned(subjectID int64, metricIDs []int64, rng storage.Range) ([]storage.AlignedRow, error) {
	if len(metricIDs) == 0 {
		return nil, nil
	}
	wanted := make(map[int64]bool, len(metricIDs))
	for _, id := range metricIDs {
		wanted[id] = true
	}

	observations, err := c.seriesObservations(subjectID, rng, wanted)
	if err != nil {
		return nil, err
	}

	byInstant := make(map[int64]*storage.AlignedRow)
	var order []int64
	for _, o := range observations {
		nanos := o.ObservedAt.UnixNano()
		row, ok := byInstant[nanos]
		if !ok {
			row = &storage.AlignedRow{
				ObservedAt: o.ObservedAt,
				Values:     make(map[int64]models.ObservationValue),
			}
			byInstant[nanos] = row
			order = append(order, nanos)
		}
		row.Values[o.MetricID] = o.Value
	}

	rows := make([]storage.AlignedRow, 0, len(order))
	for _, nanos := range order {
		rows = append(rows, *byInstant[nanos])
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows, nil
}

// LatestObservation returns the most recent observation for the pair.
func (c *Client) LatestObservation(subjectID, metricID int64) (*models.Observation, error) {
	observations, err := c.seriesObservations(subjectID, storage.Range{}, map[int64]bool{metricID: true})
	if err != nil {
		return nil, err
	}
	if len(observations) == 0 {
		return nil, &models.NotFoundError{Entity: "observation", ID: metricID}
	}
	return observations[len(observations)-1], nil
}

// seriesObservations loads, filters, and time-orders a subject's
// observations for the wanted metrics.
func (c *Client) seriesObservations(subjectID int64, rng storage.Range, wanted map[int64]bool) ([]*models.Observation, error) {
	all, err := listRecords[models.Observation](c, ObservationPrefix)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}

	var observations []*models.Observation
	for _, o := range all {
		if o.SubjectID != subjectID || !wanted[o.MetricID] {
			continue
		}
		if !rng.Contains(o.ObservedAt) {
			continue
		}
		observations = append(observations, o)
	}

	sort.Slice(observations, func(i, j int) bool {
		if !observations[i].ObservedAt.Equal(observations[j].ObservedAt) {
			return observations[i].ObservedAt.Before(observations[j].ObservedAt)
		}
		return observations[i].MetricID < observations[j].MetricID
	})
	return observations, nil
}
