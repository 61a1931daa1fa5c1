package review_test

import (
	"context"
	"errors"
	"testing"
	"time"

	fv "github.com/okian/ladder/internal/domain/filevalidation"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/review"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEvidenceReviewer(t *testing.T) {
	Convey("Given a reviewer with a fixed clock", t, func() {
		fixed := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
		r := review.NewEvidenceReviewer(review.WithClock(func() time.Time { return fixed }))
		ctx := context.Background()

		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		end := start.Add(7 * 24 * time.Hour)

		Convey("When a pull request URL arrives inside the week", func() {
			v, err := r.Review(ctx, model.Submission{
				ID:          "s-1",
				UserID:      "u-1",
				TaskCode:    "GHW_MERGE_1PR",
				Kind:        "url",
				URL:         "https://github.com/owner/repo/pull/42",
				SubmittedAt: start.Add(24 * time.Hour),
				PeriodStart: &start,
				PeriodEnd:   &end,
			})

			Convey("Then it should be accepted with hours remaining", func() {
				So(err, ShouldBeNil)
				So(v.Accepted, ShouldBeTrue)
				So(v.Errors, ShouldBeEmpty)
				So(*v.HoursRemaining, ShouldEqual, 144)
				So(v.ProcessedAt, ShouldEqual, fixed)
				So(v.SubmissionID, ShouldEqual, "s-1")
				So(v.UserID, ShouldEqual, "u-1")
			})
		})

		Convey("When a wrong kind arrives after the week", func() {
			file := fv.File{Name: "a.png", MimeType: fv.MimePNG, Size: 10}
			v, err := r.Review(ctx, model.Submission{
				ID:          "s-2",
				TaskCode:    "GHW_MERGE_1PR",
				Kind:        "SCREENSHOT",
				File:        &file,
				SubmittedAt: end.Add(time.Hour),
				PeriodStart: &start,
				PeriodEnd:   &end,
			})

			Convey("Then both failures should be listed", func() {
				So(err, ShouldBeNil)
				So(v.Accepted, ShouldBeFalse)
				So(v.Errors, ShouldHaveLength, 2)
				So(v.HoursRemaining, ShouldBeNil)
			})
		})

		Convey("When the evidence kind is unknown", func() {
			v, _ := r.Review(ctx, model.Submission{ID: "s-3", TaskCode: "GHS_PINNED_REPOS", Kind: "VIDEO"})

			Convey("Then it should be rejected", func() {
				So(v.Accepted, ShouldBeFalse)
				So(v.Errors[0], ShouldContainSubstring, "VIDEO")
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := r.Review(cctx, model.Submission{ID: "s-4"})

			Convey("Then it should return the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}
