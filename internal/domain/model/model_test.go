package model_test

import (
	"testing"

	"github.com/okian/scoreboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEvaluation(t *testing.T) {
	Convey("Given an evaluation with padded names", t, func() {
		e := model.Evaluation{
			Evaluator:    " J1 ",
			Company:      "  Acme ",
			Organization: "Spring Cohort ",
			EventID:      "evt-1",
			Scores:       model.Scores{"team": 8},
		}

		Convey("Then the company name should be trimmed", func() {
			So(e.CompanyName(), ShouldEqual, "Acme")
		})

		Convey("Then the natural key should ignore padding", func() {
			other := e
			other.Evaluator = "J1"
			other.Company = "Acme"
			other.Organization = "Spring Cohort"
			So(other.NaturalKey(), ShouldEqual, e.NaturalKey())
		})

		Convey("Then a different evaluator should produce a different key", func() {
			other := e
			other.Evaluator = "J2"
			So(other.NaturalKey(), ShouldNotEqual, e.NaturalKey())
		})
	})

	Convey("Given a scores map", t, func() {
		s := model.Scores{"team": 8, "market": 6}

		Convey("When cloning it", func() {
			c := s.Clone()
			c["team"] = 1

			Convey("Then the original should be untouched", func() {
				So(s["team"], ShouldEqual, 8)
				So(len(c.Keys()), ShouldEqual, 2)
			})
		})

		Convey("When cloning nil", func() {
			var empty model.Scores
			So(empty.Clone(), ShouldBeNil)
		})
	})
}

func TestCatalog(t *testing.T) {
	Convey("Given the default catalog", t, func() {
		c := model.NewCatalog(model.DefaultCriteria())

		Convey("When ordering a mix of known and unknown keys", func() {
			got := c.Order([]string{"zeta", "market", "alpha", "team", "market"})

			Convey("Then known keys come first in configured order, then unknown keys sorted", func() {
				keys := make([]string, 0, len(got))
				for _, cr := range got {
					keys = append(keys, cr.Key)
				}
				So(keys, ShouldResemble, []string{"team", "market", "alpha", "zeta"})
				So(got[1].Label, ShouldEqual, "Market Opportunity")
				So(got[2].Label, ShouldEqual, "alpha")
			})
		})

		Convey("When labelling an unknown key", func() {
			So(c.Label("esg"), ShouldEqual, "esg")
		})

		Convey("When listing known criteria", func() {
			So(len(c.Known()), ShouldEqual, len(model.DefaultCriteria()))
		})
	})

	Convey("Given a catalog with duplicate and empty keys", t, func() {
		c := model.NewCatalog([]model.Criterion{
			{Key: "b", Label: "Bee"},
			{Key: ""},
			{Key: "a", Label: "Ay"},
			{Key: "b", Label: "Other"},
		})

		Convey("Then the first occurrence should win", func() {
			So(c.Label("b"), ShouldEqual, "Bee")
			So(len(c.Known()), ShouldEqual, 2)
			So(c.Order([]string{"a", "b"})[0].Key, ShouldEqual, "b")
		})
	})
}
