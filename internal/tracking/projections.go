// Package tracking builds read-side projections over alert slices: location
// clusters, client summaries, and daily timelines. Pure functions, no storage
// access.
package tracking

import (
	"math"
	"sort"
	"time"

	"github.com/silpredict/silpredict/internal/alerts"
	"github.com/silpredict/silpredict/internal/equipment"
)

// Cluster is a group of alerts whose equipment share a rounded location
type Cluster struct {
	Latitude      float64                `json:"latitude"`
	Longitude     float64                `json:"longitude"`
	AlertCount    int                    `json:"alert_count"`
	GravityCounts map[alerts.Gravity]int `json:"gravity_counts"`
	EquipmentIDs  []string               `json:"equipment_ids"`
}

// Summary aggregates a client's alerts by gravity and lifecycle state
type Summary struct {
	Total          int                    `json:"total"`
	ByGravity      map[alerts.Gravity]int `json:"by_gravity"`
	ByStatus       map[alerts.Status]int  `json:"by_status"`
	FalsePositives int                    `json:"false_positives"`
	Open           int                    `json:"open"`
}

// TimelineBucket counts one day's alerts
type TimelineBucket struct {
	Date          time.Time              `json:"date"`
	AlertCount    int                    `json:"alert_count"`
	GravityCounts map[alerts.Gravity]int `json:"gravity_counts"`
}

// roundCoord rounds a coordinate to two decimals, about a kilometer of
// resolution. Equipment that close belongs to the same site.
func roundCoord(v float64) float64 {
	return math.Round(v*100) / 100
}

// Clusters groups alerts by the rounded location of their equipment and
// keeps clusters holding at least minSize alerts. Alerts whose equipment is
// unknown or has no coordinates are skipped.
func Clusters(alertList []alerts.Alert, fleet map[string]equipment.Info, minSize int) []Cluster {
	if minSize < 1 {
		minSize = 1
	}

	type coord struct{ lat, lon float64 }
	grouped := make(map[coord]*Cluster)

	for _, a := range alertList {
		eq, ok := fleet[a.EquipmentID]
		if !ok || (eq.Latitude == 0 && eq.Longitude == 0) {
			continue
		}
		c := coord{roundCoord(eq.Latitude), roundCoord(eq.Longitude)}
		cluster := grouped[c]
		if cluster == nil {
			cluster = &Cluster{
				Latitude:      c.lat,
				Longitude:     c.lon,
				GravityCounts: make(map[alerts.Gravity]int),
			}
			grouped[c] = cluster
		}
		cluster.AlertCount++
		cluster.GravityCounts[a.Gravity]++
		if !containsString(cluster.EquipmentIDs, a.EquipmentID) {
			cluster.EquipmentIDs = append(cluster.EquipmentIDs, a.EquipmentID)
		}
	}

	out := make([]Cluster, 0, len(grouped))
	for _, cluster := range grouped {
		if cluster.AlertCount < minSize {
			continue
		}
		sort.Strings(cluster.EquipmentIDs)
		out = append(out, *cluster)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AlertCount != out[j].AlertCount {
			return out[i].AlertCount > out[j].AlertCount
		}
		if out[i].Latitude != out[j].Latitude {
			return out[i].Latitude < out[j].Latitude
		}
		return out[i].Longitude < out[j].Longitude
	})
	return out
}

// Summarize aggregates alerts into the client dashboard counts
func Summarize(alertList []alerts.Alert) Summary {
	s := Summary{
		ByGravity: make(map[alerts.Gravity]int),
		ByStatus:  make(map[alerts.Status]int),
	}
	for _, a := range alertList {
		s.Total++
		s.ByGravity[a.Gravity]++
		s.ByStatus[a.Status]++
		if a.Status == alerts.StatusFalsePositive {
			s.FalsePositives++
		}
		if !a.Status.IsTerminal() {
			s.Open++
		}
	}
	return s
}

// DailyTimeline buckets alerts by UTC calendar day, oldest first
func DailyTimeline(alertList []alerts.Alert) []TimelineBucket {
	byDay := make(map[time.Time]*TimelineBucket)
	for _, a := range alertList {
		day := a.Timestamp.UTC().Truncate(24 * time.Hour)
		bucket := byDay[day]
		if bucket == nil {
			bucket = &TimelineBucket{
				Date:          day,
				GravityCounts: make(map[alerts.Gravity]int),
			}
			byDay[day] = bucket
		}
		bucket.AlertCount++
		bucket.GravityCounts[a.Gravity]++
	}

	out := make([]TimelineBucket, 0, len(byDay))
	for _, bucket := range byDay {
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
