package drift_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	drift "github.com/tabrizchi/sib/internal/domain/drift"
	"github.com/tabrizchi/sib/internal/domain/model"
	"github.com/tabrizchi/sib/internal/domain/types"
)

func TestVariance(t *testing.T) {
	Convey("Given a baseline/current pair", t, func() {
		Convey("When current equals baseline", func() {
			Convey("Then variance should be zero", func() {
				So(drift.Variance(0.8, 0.8), ShouldEqual, 0.0)
			})
		})

		Convey("When current deviates below baseline", func() {
			Convey("Then variance should be the relative deviation in percent", func() {
				So(drift.Variance(0.8, 0.6), ShouldAlmostEqual, 25.0, 1e-9)
			})
		})

		Convey("When current deviates above baseline", func() {
			Convey("Then variance should be symmetric with the downward case", func() {
				So(drift.Variance(0.8, 1.0), ShouldAlmostEqual, 25.0, 1e-9)
			})
		})

		Convey("When the baseline is zero", func() {
			Convey("And current is also zero", func() {
				So(drift.Variance(0, 0), ShouldEqual, 0.0)
			})

			Convey("And current is non-zero", func() {
				Convey("Then variance should report total divergence", func() {
					So(drift.Variance(0, 0.5), ShouldEqual, 100.0)
				})
			})
		})
	})
}

func TestClassifier_Severity(t *testing.T) {
	Convey("Given a classifier with default thresholds", t, func() {
		classifier := drift.NewClassifier()

		Convey("When variance is below the warn threshold", func() {
			Convey("Then severity should be green", func() {
				So(classifier.Severity(0), ShouldEqual, types.SeverityGreen)
				So(classifier.Severity(14.99), ShouldEqual, types.SeverityGreen)
			})
		})

		Convey("When variance is exactly the warn threshold", func() {
			Convey("Then severity should be yellow", func() {
				So(classifier.Severity(15.0), ShouldEqual, types.SeverityYellow)
			})
		})

		Convey("When variance is between the thresholds", func() {
			Convey("Then severity should be yellow", func() {
				So(classifier.Severity(19.99), ShouldEqual, types.SeverityYellow)
			})
		})

		Convey("When variance is exactly the critical threshold", func() {
			Convey("Then severity should be red", func() {
				So(classifier.Severity(20.0), ShouldEqual, types.SeverityRed)
			})
		})

		Convey("When variance is far above the critical threshold", func() {
			Convey("Then severity should be red", func() {
				So(classifier.Severity(100.0), ShouldEqual, types.SeverityRed)
			})
		})
	})

	Convey("Given a classifier with custom thresholds", t, func() {
		classifier := drift.NewClassifier(
			drift.WithWarnThreshold(10),
			drift.WithCriticalThreshold(30),
		)

		Convey("When variance falls in the widened yellow band", func() {
			Convey("Then severity should follow the custom thresholds", func() {
				So(classifier.Severity(9.9), ShouldEqual, types.SeverityGreen)
				So(classifier.Severity(10.0), ShouldEqual, types.SeverityYellow)
				So(classifier.Severity(29.9), ShouldEqual, types.SeverityYellow)
				So(classifier.Severity(30.0), ShouldEqual, types.SeverityRed)
			})
		})
	})
}

func TestClassifier_Evaluate(t *testing.T) {
	Convey("Given a classifier with default thresholds", t, func() {
		classifier := drift.NewClassifier()
		at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		Convey("When the reading matches the baseline", func() {
			eval := classifier.Evaluate("agent-1", 0.8, 0.8, at)

			Convey("Then the evaluation should be green and not anomalous", func() {
				So(eval.Agent, ShouldEqual, "agent-1")
				So(eval.Timestamp.Equal(at), ShouldBeTrue)
				So(eval.BaselineValue, ShouldEqual, 0.8)
				So(eval.CurrentValue, ShouldEqual, 0.8)
				So(eval.VariancePercent, ShouldEqual, 0.0)
				So(eval.Severity, ShouldEqual, types.SeverityGreen)
				So(eval.IsAnomaly, ShouldBeFalse)
			})
		})

		Convey("When the reading drops 25% below the baseline", func() {
			eval := classifier.Evaluate("agent-1", 0.8, 0.6, at)

			Convey("Then the evaluation should be red and anomalous", func() {
				So(eval.VariancePercent, ShouldAlmostEqual, 25.0, 1e-9)
				So(eval.Severity, ShouldEqual, types.SeverityRed)
				So(eval.IsAnomaly, ShouldBeTrue)
			})
		})

		Convey("When the variance lands in the yellow band", func() {
			eval := classifier.Evaluate("agent-1", 1.0, 0.84, at)

			Convey("Then yellow should also count as anomalous", func() {
				So(eval.VariancePercent, ShouldAlmostEqual, 16.0, 1e-9)
				So(eval.Severity, ShouldEqual, types.SeverityYellow)
				So(eval.IsAnomaly, ShouldBeTrue)
			})
		})
	})
}

func TestBaseline(t *testing.T) {
	Convey("Given a set of readings", t, func() {
		readings := func(strengths ...float64) []model.SignalReading {
			out := make([]model.SignalReading, len(strengths))
			for i, s := range strengths {
				out[i] = model.SignalReading{Strength: s}
			}
			return out
		}

		Convey("When fewer than minSamples readings exist", func() {
			value, samples, ok := drift.Baseline(readings(0.8, 0.8, 0.8, 0.8), 5)

			Convey("Then no baseline should be established", func() {
				So(ok, ShouldBeFalse)
				So(samples, ShouldEqual, 4)
				So(value, ShouldEqual, 0.0)
			})
		})

		Convey("When exactly minSamples readings exist", func() {
			value, samples, ok := drift.Baseline(readings(0.8, 0.8, 0.8, 0.8, 0.8), 5)

			Convey("Then the baseline should be the mean strength", func() {
				So(ok, ShouldBeTrue)
				So(samples, ShouldEqual, 5)
				So(value, ShouldAlmostEqual, 0.8, 1e-9)
			})
		})

		Convey("When strengths vary", func() {
			value, samples, ok := drift.Baseline(readings(0.5, 0.7, 0.9), 3)

			Convey("Then the baseline should average them", func() {
				So(ok, ShouldBeTrue)
				So(samples, ShouldEqual, 3)
				So(value, ShouldAlmostEqual, 0.7, 1e-9)
			})
		})

		Convey("When no readings exist", func() {
			value, samples, ok := drift.Baseline(nil, 5)

			Convey("Then no baseline should be established", func() {
				So(ok, ShouldBeFalse)
				So(samples, ShouldEqual, 0)
				So(value, ShouldEqual, 0.0)
			})
		})
	})
}
