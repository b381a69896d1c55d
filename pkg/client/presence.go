package client

import (
	"sort"

	"github.com/leitstand/leitstand/pkg/protocol"
)

// Bucket identifies a display section of the dispatcher console.
type Bucket int

const (
	BucketBlitz Bucket = iota
	BucketSprechwunsch
	BucketTalking
	BucketDefault
)

// Buckets is the dispatcher console's partition of the unit list. Each unit
// appears in exactly one bucket; the special-marker buckets take priority
// over the conversation bucket, which takes priority over the default one.
// An empty bucket means its section is hidden entirely.
type Buckets struct {
	Blitz        []protocol.UnitStatus
	Sprechwunsch []protocol.UnitStatus
	Talking      []protocol.UnitStatus
	Default      []protocol.UnitStatus
}

// listedUnits filters out team-lead role connections and console viewer
// identities; neither belongs in a unit listing.
func listedUnits(units []protocol.UnitStatus) []protocol.UnitStatus {
	var out []protocol.UnitStatus
	for _, u := range units {
		if u.IsTeamLead || u.IsViewer() {
			continue
		}
		out = append(out, u)
	}
	return out
}

// ClassifyDispatcher partitions units into the dispatcher console's sections
// and orders each by recency of activity, most recent first.
func ClassifyDispatcher(units []protocol.UnitStatus, notices map[string]protocol.Notice) Buckets {
	var b Buckets
	for _, u := range listedUnits(units) {
		switch {
		case u.Special != nil && *u.Special == protocol.SpecialBlitz:
			b.Blitz = append(b.Blitz, u)
		case u.Special != nil && *u.Special == protocol.SpecialSprechwunsch:
			b.Sprechwunsch = append(b.Sprechwunsch, u)
		case InConversation(u, noticeFor(notices, u.Name)):
			b.Talking = append(b.Talking, u)
		default:
			b.Default = append(b.Default, u)
		}
	}
	sortByActivity(b.Blitz)
	sortByActivity(b.Sprechwunsch)
	sortByActivity(b.Talking)
	sortByActivity(b.Default)
	return b
}

// TeamLeadList is the team-lead console's single listing: no exclusive
// bucketing, conversation and notice state folded into per-unit badges,
// ordered by last status change only.
func TeamLeadList(units []protocol.UnitStatus) []protocol.UnitStatus {
	out := listedUnits(units)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastStatusUpdate > out[j].LastStatusUpdate
	})
	return out
}

func noticeFor(notices map[string]protocol.Notice, name string) *protocol.Notice {
	if n, ok := notices[name]; ok {
		return &n
	}
	return nil
}

// sortByActivity orders units by the later of their status change and their
// general activity timestamp, descending. Ties keep arrival order.
func sortByActivity(units []protocol.UnitStatus) {
	sort.SliceStable(units, func(i, j int) bool {
		return activity(units[i]) > activity(units[j])
	})
}

func activity(u protocol.UnitStatus) float64 {
	if u.LastStatusUpdate > u.LastUpdate {
		return u.LastStatusUpdate
	}
	return u.LastUpdate
}
