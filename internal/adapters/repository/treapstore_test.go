package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/ladder/internal/adapters/repository"
	"github.com/okian/ladder/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func accepted(id, user string) model.Verdict {
	return model.Verdict{SubmissionID: id, UserID: user, TaskCode: "GHW_MERGE_1PR", Accepted: true, Errors: []string{}}
}

func rejected(id, user string) model.Verdict {
	return model.Verdict{SubmissionID: id, UserID: user, TaskCode: "GHW_MERGE_1PR", Errors: []string{"Task period has ended"}}
}

func TestTreapStore_Verdicts(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		s := repository.NewTreapStore(repository.WithSeed(1))

		Convey("When a verdict is stored", func() {
			So(s.PutVerdict(ctx, rejected("s-1", "alice")), ShouldBeNil)

			Convey("Then it should be retrievable by submission ID", func() {
				v, err := s.Verdict(ctx, "s-1")
				So(err, ShouldBeNil)
				So(v.UserID, ShouldEqual, "alice")
				So(v.Errors, ShouldResemble, []string{"Task period has ended"})
				So(s.Verdicts(ctx), ShouldEqual, 1)
			})

			Convey("Then a rejected verdict should not rank the user", func() {
				_, err := s.Rank(ctx, "alice")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(s.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When an unknown verdict is requested", func() {
			_, err := s.Verdict(ctx, "missing")

			Convey("Then ErrNotFound should be returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a verdict has no submission ID", func() {
			err := s.PutVerdict(ctx, accepted("", "alice"))

			Convey("Then it should be refused", func() {
				So(errors.Is(err, repository.ErrEmptyID), ShouldBeTrue)
				So(s.Verdicts(ctx), ShouldEqual, 0)
			})
		})
	})
}

func TestTreapStore_Ranking(t *testing.T) {
	Convey("Given users with different verified counts", t, func() {
		ctx := context.Background()
		s := repository.NewTreapStore(repository.WithSeed(42))

		put := func(user string, n int) {
			for i := 0; i < n; i++ {
				So(s.PutVerdict(ctx, accepted(fmt.Sprintf("%s-%d", user, i), user)), ShouldBeNil)
			}
		}
		put("carol", 3)
		put("alice", 3)
		put("bob", 5)
		put("dave", 1)

		Convey("When the top entries are requested", func() {
			top, err := s.TopN(ctx, 10)

			Convey("Then they should be ordered by count desc and user asc with dense ranks", func() {
				So(err, ShouldBeNil)
				So(top, ShouldResemble, []model.Entry{
					{Rank: 1, UserID: "bob", Verified: 5},
					{Rank: 2, UserID: "alice", Verified: 3},
					{Rank: 2, UserID: "carol", Verified: 3},
					{Rank: 3, UserID: "dave", Verified: 1},
				})
			})
		})

		Convey("When fewer entries than users are requested", func() {
			top, err := s.TopN(ctx, 2)

			Convey("Then only the leaders should be returned", func() {
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 2)
				So(top[0].UserID, ShouldEqual, "bob")
				So(top[1].UserID, ShouldEqual, "alice")
			})
		})

		Convey("When individual ranks are requested", func() {
			Convey("Then they should match the leaderboard", func() {
				for user, want := range map[string]int{"bob": 1, "alice": 2, "carol": 2, "dave": 3} {
					e, err := s.Rank(ctx, user)
					So(err, ShouldBeNil)
					So(e.Rank, ShouldEqual, want)
				}
			})
		})

		Convey("When the same submission is accepted again", func() {
			So(s.PutVerdict(ctx, accepted("dave-0", "dave")), ShouldBeNil)

			Convey("Then the count should not change", func() {
				e, _ := s.Rank(ctx, "dave")
				So(e.Verified, ShouldEqual, 1)
			})
		})

		Convey("When a rejected submission is later accepted", func() {
			So(s.PutVerdict(ctx, rejected("dave-x", "dave")), ShouldBeNil)
			So(s.PutVerdict(ctx, accepted("dave-x", "dave")), ShouldBeNil)

			Convey("Then it should count once", func() {
				e, _ := s.Rank(ctx, "dave")
				So(e.Verified, ShouldEqual, 2)
				So(e.Rank, ShouldEqual, 3)
			})
		})

		Convey("When the limit is invalid", func() {
			_, err := s.TopN(ctx, 0)

			Convey("Then ErrInvalidLimit should be returned", func() {
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})
		})
	})
}

func TestTreapStore_ConcurrentAccess(t *testing.T) {
	Convey("Given concurrent writers and readers", t, func() {
		ctx := context.Background()
		s := repository.NewTreapStore()

		var wg sync.WaitGroup
		for u := 0; u < 20; u++ {
			wg.Add(1)
			go func(u int) {
				defer wg.Done()
				user := fmt.Sprintf("user-%02d", u)
				for i := 0; i <= u; i++ {
					_ = s.PutVerdict(ctx, accepted(fmt.Sprintf("%s-%d", user, i), user))
					_, _ = s.TopN(ctx, 5)
				}
			}(u)
		}
		wg.Wait()

		Convey("Then every user should hold its exact count in order", func() {
			So(s.Count(ctx), ShouldEqual, 20)
			So(s.Verdicts(ctx), ShouldEqual, 210)

			top, err := s.TopN(ctx, 20)
			So(err, ShouldBeNil)
			for i, e := range top {
				So(e.UserID, ShouldEqual, fmt.Sprintf("user-%02d", 19-i))
				So(e.Verified, ShouldEqual, 20-i)
				So(e.Rank, ShouldEqual, i+1)
			}
		})
	})
}

func BenchmarkTreapStore_PutVerdict(b *testing.B) {
	ctx := context.Background()
	s := repository.NewTreapStore(repository.WithSeed(7))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.PutVerdict(ctx, accepted(fmt.Sprintf("s-%d", i), fmt.Sprintf("user-%d", i%1000)))
	}
}

func BenchmarkTreapStore_TopN(b *testing.B) {
	ctx := context.Background()
	s := repository.NewTreapStore(repository.WithSeed(7))
	for i := 0; i < 10000; i++ {
		_ = s.PutVerdict(ctx, accepted(fmt.Sprintf("s-%d", i), fmt.Sprintf("user-%d", i%1000)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.TopN(ctx, 100)
	}
}
