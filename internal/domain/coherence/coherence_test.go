package coherence_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	coherence "github.com/tabrizchi/sib/internal/domain/coherence"
	"github.com/tabrizchi/sib/internal/domain/model"
	"github.com/tabrizchi/sib/internal/domain/types"
)

func TestScorer_Score(t *testing.T) {
	Convey("Given a scorer with default tiers", t, func() {
		scorer := coherence.NewScorer()
		at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		readings := func(strengths ...float64) []model.SignalReading {
			out := make([]model.SignalReading, len(strengths))
			for i, s := range strengths {
				out[i] = model.SignalReading{Agent: "agent-1", Strength: s}
			}
			return out
		}

		Convey("When the window holds no readings", func() {
			_, ok := scorer.Score("agent-1", nil, model.TrendSummary{}, at)

			Convey("Then no snapshot should be produced", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the trend is stable", func() {
			summary := model.TrendSummary{Agent: "agent-1", Trend: types.TrendStable, AvgVariance: 2.0}
			snapshot, ok := scorer.Score("agent-1", readings(0.8, 0.6), summary, at)

			Convey("Then the score should be the unadjusted mean strength", func() {
				So(ok, ShouldBeTrue)
				So(snapshot.CoherenceScore, ShouldAlmostEqual, 0.7, 1e-9)
				So(snapshot.AvgSignalStrength, ShouldAlmostEqual, 0.7, 1e-9)
				So(snapshot.SignalCount, ShouldEqual, 2)
				So(snapshot.Timestamp.Equal(at), ShouldBeTrue)
			})
		})

		Convey("When the trend is degrading", func() {
			summary := model.TrendSummary{Agent: "agent-1", Trend: types.TrendDegrading, AvgVariance: 18.0}
			snapshot, ok := scorer.Score("agent-1", readings(0.8), summary, at)

			Convey("Then the mean strength should be discounted by 15%", func() {
				So(ok, ShouldBeTrue)
				So(snapshot.CoherenceScore, ShouldAlmostEqual, 0.68, 1e-9)
				So(snapshot.AvgSignalStrength, ShouldAlmostEqual, 0.8, 1e-9)
			})
		})

		Convey("When the trend is recovering", func() {
			summary := model.TrendSummary{Agent: "agent-1", Trend: types.TrendRecovering, AvgVariance: 8.0}
			snapshot, ok := scorer.Score("agent-1", readings(0.8), summary, at)

			Convey("Then the mean strength should be discounted by 5%", func() {
				So(ok, ShouldBeTrue)
				So(snapshot.CoherenceScore, ShouldAlmostEqual, 0.76, 1e-9)
			})
		})

		Convey("When every reading is at full strength", func() {
			summary := model.TrendSummary{Agent: "agent-1", Trend: types.TrendStable}
			snapshot, ok := scorer.Score("agent-1", readings(1.0, 1.0, 1.0), summary, at)

			Convey("Then the score should stay within [0, 1]", func() {
				So(ok, ShouldBeTrue)
				So(snapshot.CoherenceScore, ShouldEqual, 1.0)
			})
		})
	})
}

func TestScorer_Status(t *testing.T) {
	Convey("Given a scorer with default tiers", t, func() {
		scorer := coherence.NewScorer()

		Convey("When average variance is below the caution tier", func() {
			Convey("Then the status should be stable", func() {
				So(scorer.Status(0), ShouldEqual, types.StatusStable)
				So(scorer.Status(9.99), ShouldEqual, types.StatusStable)
			})
		})

		Convey("When average variance hits the caution tier", func() {
			Convey("Then the status should be caution", func() {
				So(scorer.Status(10.0), ShouldEqual, types.StatusCaution)
				So(scorer.Status(14.99), ShouldEqual, types.StatusCaution)
			})
		})

		Convey("When average variance hits the warning tier", func() {
			Convey("Then the status should be warning", func() {
				So(scorer.Status(15.0), ShouldEqual, types.StatusWarning)
				So(scorer.Status(19.99), ShouldEqual, types.StatusWarning)
			})
		})

		Convey("When average variance hits the critical tier", func() {
			Convey("Then the status should be critical", func() {
				So(scorer.Status(20.0), ShouldEqual, types.StatusCritical)
				So(scorer.Status(80.0), ShouldEqual, types.StatusCritical)
			})
		})
	})

	Convey("Given a scorer with custom tiers", t, func() {
		scorer := coherence.NewScorer(coherence.WithStatusTiers(5, 25, 50))

		Convey("When average variance falls between the custom tiers", func() {
			Convey("Then the status should follow the custom ladder", func() {
				So(scorer.Status(4.9), ShouldEqual, types.StatusStable)
				So(scorer.Status(5.0), ShouldEqual, types.StatusCaution)
				So(scorer.Status(25.0), ShouldEqual, types.StatusWarning)
				So(scorer.Status(50.0), ShouldEqual, types.StatusCritical)
			})
		})
	})
}
