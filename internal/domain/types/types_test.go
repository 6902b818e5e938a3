package types_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tabrizchi/sib/internal/domain/types"
)

func TestAgentState_Valid(t *testing.T) {
	Convey("Given the recognized agent states", t, func() {
		Convey("When each is checked", func() {
			Convey("Then all should be valid", func() {
				for _, s := range types.AgentStates() {
					So(s.Valid(), ShouldBeTrue)
				}
			})
		})

		Convey("When unrecognized values are checked", func() {
			Convey("Then they should be invalid", func() {
				So(types.AgentState("").Valid(), ShouldBeFalse)
				So(types.AgentState("euphoric").Valid(), ShouldBeFalse)
				So(types.AgentState("CALM").Valid(), ShouldBeFalse)
			})
		})
	})
}

func TestSeverity_Anomalous(t *testing.T) {
	Convey("Given the severity ladder", t, func() {
		Convey("When green is checked", func() {
			Convey("Then it should not be anomalous", func() {
				So(types.SeverityGreen.Anomalous(), ShouldBeFalse)
			})
		})

		Convey("When yellow and red are checked", func() {
			Convey("Then both should be anomalous", func() {
				So(types.SeverityYellow.Anomalous(), ShouldBeTrue)
				So(types.SeverityRed.Anomalous(), ShouldBeTrue)
			})
		})
	})
}
