package repository_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tabrizchi/sib/internal/adapters/repository"
	"github.com/tabrizchi/sib/internal/domain/model"
	"github.com/tabrizchi/sib/internal/domain/types"
)

func reading(agent string, at time.Time, strength float64) model.SignalReading {
	return model.SignalReading{
		ID:        agent + "-" + at.Format(time.RFC3339Nano),
		Agent:     agent,
		State:     types.StateNeutral,
		Strength:  strength,
		Timestamp: at,
	}
}

func TestMemoryStore_ReadingsBetween(t *testing.T) {
	Convey("Given a memory store with readings for two agents", t, func() {
		store := repository.NewMemoryStore()
		ctx := context.Background()
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		So(store.AppendReading(ctx, reading("alpha", base.Add(1*time.Minute), 0.5), nil), ShouldBeNil)
		So(store.AppendReading(ctx, reading("alpha", base.Add(3*time.Minute), 0.7), nil), ShouldBeNil)
		So(store.AppendReading(ctx, reading("alpha", base.Add(5*time.Minute), 0.9), nil), ShouldBeNil)
		So(store.AppendReading(ctx, reading("beta", base.Add(2*time.Minute), 0.4), nil), ShouldBeNil)

		Convey("When querying one agent over the full range", func() {
			got, err := store.ReadingsBetween(ctx, "alpha", base, base.Add(10*time.Minute), 0)

			Convey("Then its readings should come back newest-first", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 3)
				So(got[0].Strength, ShouldEqual, 0.9)
				So(got[1].Strength, ShouldEqual, 0.7)
				So(got[2].Strength, ShouldEqual, 0.5)
			})
		})

		Convey("When querying with an empty agent", func() {
			got, err := store.ReadingsBetween(ctx, "", base, base.Add(10*time.Minute), 0)

			Convey("Then readings from all agents should be merged newest-first", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 4)
				So(got[0].Agent, ShouldEqual, "alpha")
				So(got[3].Agent, ShouldEqual, "alpha")
				So(got[2].Agent, ShouldEqual, "beta")
			})
		})

		Convey("When the range bounds are inclusive", func() {
			got, err := store.ReadingsBetween(ctx, "alpha", base.Add(1*time.Minute), base.Add(3*time.Minute), 0)

			Convey("Then readings at both bounds should be included", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
			})
		})

		Convey("When a limit is applied", func() {
			got, err := store.ReadingsBetween(ctx, "alpha", base, base.Add(10*time.Minute), 2)

			Convey("Then only the newest readings should be returned", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0].Strength, ShouldEqual, 0.9)
				So(got[1].Strength, ShouldEqual, 0.7)
			})
		})

		Convey("When the range matches nothing", func() {
			got, err := store.ReadingsBetween(ctx, "alpha", base.Add(time.Hour), base.Add(2*time.Hour), 0)

			Convey("Then the result should be empty", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})

		Convey("When readings share an event timestamp", func() {
			older := reading("alpha", base.Add(4*time.Minute), 0.8)
			older.ReceivedAt = base.Add(4 * time.Minute)
			newer := reading("alpha", base.Add(4*time.Minute), 0.6)
			newer.ID = older.ID + "-later"
			newer.ReceivedAt = base.Add(4*time.Minute + time.Second)
			So(store.AppendReading(ctx, older, nil), ShouldBeNil)
			So(store.AppendReading(ctx, newer, nil), ShouldBeNil)

			Convey("Then receipt time should break the tie", func() {
				got, err := store.ReadingsBetween(ctx, "alpha", base, base.Add(10*time.Minute), 0)
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 5)
				So(got[0].Strength, ShouldEqual, 0.9)
				So(got[1].ID, ShouldEqual, newer.ID)
				So(got[2].ID, ShouldEqual, older.ID)
			})
		})

		Convey("When readings arrive out of event-time order", func() {
			So(store.AppendReading(ctx, reading("alpha", base.Add(2*time.Minute), 0.6), nil), ShouldBeNil)
			got, err := store.ReadingsBetween(ctx, "alpha", base, base.Add(10*time.Minute), 0)

			Convey("Then query results should still be ordered by event time", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 4)
				So(got[2].Strength, ShouldEqual, 0.6)
			})
		})
	})
}

func TestMemoryStore_Anomalies(t *testing.T) {
	Convey("Given a memory store", t, func() {
		store := repository.NewMemoryStore()
		ctx := context.Background()
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		Convey("When a reading is appended together with an anomaly", func() {
			r := reading("alpha", base, 0.2)
			anomaly := &model.AnomalyRecord{
				ID:              "anom-1",
				Agent:           "alpha",
				ReadingID:       r.ID,
				VariancePercent: 25.0,
				Severity:        types.SeverityRed,
				BaselineValue:   0.8,
				DetectedAt:      base,
			}
			So(store.AppendReading(ctx, r, anomaly), ShouldBeNil)

			Convey("Then both should be visible", func() {
				got, err := store.AnomaliesSince(ctx, "alpha", base.Add(-time.Minute))
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].ReadingID, ShouldEqual, r.ID)
				So(got[0].VariancePercent, ShouldEqual, 25.0)

				count, err := store.CountReadings(ctx)
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)
			})
		})

		Convey("When anomalies exist for multiple agents", func() {
			for i, agent := range []string{"alpha", "beta", "alpha"} {
				at := base.Add(time.Duration(i) * time.Minute)
				r := reading(agent, at, 0.2)
				a := &model.AnomalyRecord{
					ID: r.ID + "-anom", Agent: agent, ReadingID: r.ID,
					VariancePercent: 25.0, Severity: types.SeverityRed,
					BaselineValue: 0.8, DetectedAt: at,
				}
				So(store.AppendReading(ctx, r, a), ShouldBeNil)
			}

			Convey("Then filtering by agent should return only its records, newest-first", func() {
				got, err := store.AnomaliesSince(ctx, "alpha", base.Add(-time.Minute))
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0].DetectedAt.After(got[1].DetectedAt), ShouldBeTrue)
			})

			Convey("And the since bound should be inclusive", func() {
				got, err := store.AnomaliesSince(ctx, "", base.Add(1*time.Minute))
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
			})
		})
	})
}

func TestMemoryStore_Agents(t *testing.T) {
	Convey("Given a memory store", t, func() {
		store := repository.NewMemoryStore()
		ctx := context.Background()
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		Convey("When no readings exist", func() {
			agents, err := store.Agents(ctx)

			Convey("Then the agent list should be empty", func() {
				So(err, ShouldBeNil)
				So(agents, ShouldBeEmpty)
			})
		})

		Convey("When readings exist for several agents", func() {
			So(store.AppendReading(ctx, reading("gamma", base, 0.5), nil), ShouldBeNil)
			So(store.AppendReading(ctx, reading("alpha", base, 0.5), nil), ShouldBeNil)
			So(store.AppendReading(ctx, reading("alpha", base.Add(time.Minute), 0.6), nil), ShouldBeNil)

			Convey("Then each agent should appear once, sorted", func() {
				agents, err := store.Agents(ctx)
				So(err, ShouldBeNil)
				So(agents, ShouldResemble, []string{"alpha", "gamma"})
			})
		})
	})
}

func TestMemoryStore_Close(t *testing.T) {
	Convey("Given a closed memory store", t, func() {
		store := repository.NewMemoryStore()
		ctx := context.Background()
		So(store.Close(), ShouldBeNil)

		Convey("When any operation runs after close", func() {
			Convey("Then it should fail with the closed sentinel", func() {
				err := store.AppendReading(ctx, reading("alpha", time.Now(), 0.5), nil)
				So(err, ShouldEqual, repository.ErrClosed)

				_, err = store.ReadingsBetween(ctx, "alpha", time.Time{}, time.Now(), 0)
				So(err, ShouldEqual, repository.ErrClosed)

				_, err = store.Agents(ctx)
				So(err, ShouldEqual, repository.ErrClosed)
			})
		})
	})
}
